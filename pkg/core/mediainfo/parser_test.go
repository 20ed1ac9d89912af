package mediainfo_test

import (
	"testing"

	"github.com/clearjav/torrentmeta/pkg/core/mediainfo"
	"github.com/stretchr/testify/assert"
)

const sampleDump = `General
Complete name                            : SDDE-300.mp4
Format                                   : MPEG-4
Duration                                 : 2 h 0 min

Video
ID                                       : 1
Format                                   : AVC
Format/Info                              : Advanced Video Codec
Format profile                           : High@L4
Codec ID                                 : avc1
Width                                    : 1 920 pixels
Height                                   : 1 080 pixels

Audio
ID                                       : 2
Format                                   : AAC
Format/Info                              : Advanced Audio Codec
Codec ID                                 : mp4a-40-2
Channel(s)                               : 2 channels
`

func TestResolutionFromHeight(t *testing.T) {
	tests := []struct {
		height int
		want   mediainfo.Resolution
	}{
		{4320, mediainfo.Res2160p},
		{2160, mediainfo.Res2160p},
		{2159, mediainfo.Res1080p},
		{1080, mediainfo.Res1080p},
		{1079, mediainfo.Res720p},
		{720, mediainfo.Res720p},
		{719, mediainfo.Res576p},
		{576, mediainfo.Res576p},
		{480, mediainfo.Res480p},
		{479, mediainfo.Res404p},
		{404, mediainfo.Res404p},
		{403, mediainfo.ResLower},
		{0, mediainfo.ResLower},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, mediainfo.ResolutionFromHeight(tc.height), "height %d", tc.height)
	}
}

func TestParseResolution(t *testing.T) {
	assert.Equal(t, mediainfo.Res1080p, mediainfo.ParseResolution(sampleDump))

	// Thousands separators and unit suffixes must be ignored.
	assert.Equal(t, mediainfo.Res2160p, mediainfo.ParseResolution("Height : 2,160 pixels"))

	// Missing or garbled height falls back to the documented default.
	assert.Equal(t, mediainfo.Res1080p, mediainfo.ParseResolution("no height here"))
	assert.Equal(t, mediainfo.Res1080p, mediainfo.ParseResolution("Height : pixels"))
}

func TestParseVideoCodec(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"avc format", sampleDump, "H.264"},
		{"hevc format", "Video\nFormat : HEVC\nHeight : 2 160 pixels\n", "H.265"},
		{"vp9", "Video\nFormat : VP9\n", "VP9"},
		{"mpeg-2", "Video\nFormat : MPEG-2 Video\n", "MPEG-2"},
		{"vc-1", "Video\nFormat : VC-1\n", "VC-1"},
		{"codec id fallback", "Video\nFormat : Something Odd\nCodec ID : hvc1\n", "H.265"},
		{"no video block", "General\nFormat : MPEG-4\n", "H.264"},
		{"nothing matches", "Video\nFormat : Dirac\n", "H.264"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mediainfo.ParseVideoCodec(tc.text))
		})
	}
}

func TestParseVideoCodecScopedToFirstVideoBlock(t *testing.T) {
	// The Audio block's Format must not leak into video codec detection.
	text := "Video\nCodec ID : avc1\n\nAudio\nFormat : HEVC-not-really\n"
	assert.Equal(t, "H.264", mediainfo.ParseVideoCodec(text))
}

func TestParseAudioCodec(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"aac", sampleDump, "AAC"},
		{"ac3 maps to DD", "Audio\nFormat : AC-3\n", "DD"},
		{"eac3 maps to DD+ not DD", "Audio\nFormat : E-AC-3\n", "DD+"},
		{"truehd", "Audio\nFormat : TrueHD\n", "TrueHD"},
		{"dts-hd ma beats dts", "Audio\nFormat : DTS-HD MA\n", "DTS-HD MA"},
		{"plain dts", "Audio\nFormat : DTS\n", "DTS"},
		{"pcm maps to LPCM", "Audio\nFormat : PCM\n", "LPCM"},
		{"opus", "Audio\nFormat : Opus\n", "Opus"},
		{"unknown format returned verbatim", "Audio\nFormat : MLP FBA\n", "MLP FBA"},
		{"no audio block", "Video\nFormat : AVC\n", "AAC"},
		{"audio block without format", "Audio\nChannel(s) : 2 channels\n", "AAC"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mediainfo.ParseAudioCodec(tc.text))
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	first := mediainfo.Parse(sampleDump)
	second := mediainfo.Parse(sampleDump)
	assert.Equal(t, first, second)
	assert.Equal(t, mediainfo.Res1080p, first.Resolution)
	assert.Equal(t, "H.264", first.VideoCodec)
	assert.Equal(t, "AAC", first.AudioCodec)
}

func TestResolutionID(t *testing.T) {
	tests := []struct {
		res  mediainfo.Resolution
		want int
	}{
		{mediainfo.Res2160p, 2},
		{mediainfo.Res1080p, 3},
		{mediainfo.Res720p, 5},
		{mediainfo.Res576p, 6},
		{mediainfo.Res480p, 8},
		{mediainfo.Res404p, 10},
		{mediainfo.ResLower, 10},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, mediainfo.ResolutionID(tc.res), "resolution %s", tc.res)
	}
}
