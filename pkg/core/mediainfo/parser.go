// Package mediainfo parses the textual technical-info dump produced by the
// mediainfo tool into the handful of facts the release title and upload
// payload need: resolution class, video codec family, audio codec family.
// The parse is pure text processing; invoking the tool is the pipeline's job.
package mediainfo

import (
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Resolution is the fixed, ordered enumeration of resolution classes.
type Resolution string

const (
	Res2160p Resolution = "2160p"
	Res1080p Resolution = "1080p"
	Res720p  Resolution = "720p"
	Res576p  Resolution = "576p"
	Res480p  Resolution = "480p"
	Res404p  Resolution = "404p"
	ResLower Resolution = "Lower"
)

// resolutionBreakpoints maps descending height thresholds to classes. A
// height maps to the largest threshold it does not fall below.
var resolutionBreakpoints = []struct {
	Height int
	Class  Resolution
}{
	{2160, Res2160p},
	{1080, Res1080p},
	{720, Res720p},
	{576, Res576p},
	{480, Res480p},
	{404, Res404p},
}

// ResolutionFromHeight classifies a pixel height. Total over all
// non-negative heights; anything under the lowest breakpoint is ResLower.
func ResolutionFromHeight(height int) Resolution {
	for _, bp := range resolutionBreakpoints {
		if height >= bp.Height {
			return bp.Class
		}
	}
	return ResLower
}

// ResolutionID maps a resolution class to the tracker's numeric resolution
// id. Classes the tracker has no id for map to the "Other" id.
func ResolutionID(r Resolution) int {
	switch r {
	case Res2160p:
		return 2
	case Res1080p:
		return 3
	case Res720p:
		return 5
	case Res576p:
		return 6
	case Res480p:
		return 8
	default:
		return 10
	}
}

// heightDigits strips everything that is not a digit; mediainfo prints
// heights with thousands separators, e.g. "1 080 pixels" or "2,160 pixels".
var nonDigit = regexp.MustCompile(`[^0-9]`)

// ParseResolution locates the Height field and classifies it. When no
// height can be parsed the documented default is 1080p, logged as a warning.
func ParseResolution(text string) Resolution {
	value := fieldValue(text, "Height")
	if value == "" {
		log.Warnf("mediainfo: no Height field found, defaulting to %s", Res1080p)
		return Res1080p
	}
	digits := nonDigit.ReplaceAllString(value, "")
	height, err := strconv.Atoi(digits)
	if err != nil || height <= 0 {
		log.Warnf("mediainfo: unparseable Height %q, defaulting to %s", value, Res1080p)
		return Res1080p
	}
	return ResolutionFromHeight(height)
}

// codecKeyword pairs a case-insensitive keyword with its canonical label.
// Tables are ordered: the first matching keyword wins, so longer keywords
// that contain shorter ones (E-AC-3 vs AC-3, DTS-HD MA vs DTS) come first.
type codecKeyword struct {
	Keyword string
	Label   string
}

var videoFormatTable = []codecKeyword{
	{"AVC", "H.264"},
	{"H.264", "H.264"},
	{"HEVC", "H.265"},
	{"H.265", "H.265"},
	{"VP9", "VP9"},
	{"MPEG-2", "MPEG-2"},
	{"VC-1", "VC-1"},
}

var videoCodecIDTable = []codecKeyword{
	{"AVC", "H.264"},
	{"H264", "H.264"},
	{"HEV", "H.265"},
	{"HVC", "H.265"},
	{"H265", "H.265"},
	{"VP09", "VP9"},
	{"VP9", "VP9"},
	{"MPEG2", "MPEG-2"},
	{"MPEG-2", "MPEG-2"},
	{"WVC1", "VC-1"},
	{"VC-1", "VC-1"},
}

var audioFormatTable = []codecKeyword{
	{"E-AC-3", "DD+"},
	{"AC-3", "DD"},
	{"TrueHD", "TrueHD"},
	{"DTS-HD MA", "DTS-HD MA"},
	{"DTS-HD HRA", "DTS-HD HRA"},
	{"DTS:X", "DTS:X"},
	{"DTS-ES", "DTS-ES"},
	{"DTS", "DTS"},
	{"AAC", "AAC"},
	{"FLAC", "FLAC"},
	{"ALAC", "ALAC"},
	{"LPCM", "LPCM"},
	{"PCM", "LPCM"},
	{"Opus", "Opus"},
}

// DefaultVideoCodec and DefaultAudioCodec are returned when the relevant
// stream block or field is absent or matches nothing.
const (
	DefaultVideoCodec = "H.264"
	DefaultAudioCodec = "AAC"
)

// ParseVideoCodec classifies the first video stream's codec family. The
// Format field is checked against the keyword table first; Codec ID is the
// fallback. Default H.264 when neither matches.
func ParseVideoCodec(text string) string {
	block := firstStreamBlock(text, "Video")
	if block == "" {
		log.Warnf("mediainfo: no Video block found, defaulting to %s", DefaultVideoCodec)
		return DefaultVideoCodec
	}
	if format := fieldValue(block, "Format"); format != "" {
		if label, ok := matchKeyword(format, videoFormatTable); ok {
			return label
		}
	}
	if codecID := fieldValue(block, "Codec ID"); codecID != "" {
		if label, ok := matchKeyword(strings.ToUpper(codecID), videoCodecIDTable); ok {
			return label
		}
	}
	log.Warnf("mediainfo: unrecognized video codec, defaulting to %s", DefaultVideoCodec)
	return DefaultVideoCodec
}

// ParseAudioCodec classifies the first audio stream's codec family. A
// Format value that matches no keyword is returned verbatim rather than
// collapsed to a default; only an absent block or field yields AAC.
func ParseAudioCodec(text string) string {
	block := firstStreamBlock(text, "Audio")
	if block == "" {
		log.Warnf("mediainfo: no Audio block found, defaulting to %s", DefaultAudioCodec)
		return DefaultAudioCodec
	}
	format := fieldValue(block, "Format")
	if format == "" {
		log.Warnf("mediainfo: Audio block has no Format field, defaulting to %s", DefaultAudioCodec)
		return DefaultAudioCodec
	}
	if label, ok := matchKeyword(format, audioFormatTable); ok {
		return label
	}
	return format
}

func matchKeyword(value string, table []codecKeyword) (string, bool) {
	upper := strings.ToUpper(value)
	for _, entry := range table {
		if strings.Contains(upper, strings.ToUpper(entry.Keyword)) {
			return entry.Label, true
		}
	}
	return "", false
}

// streamHeaders are the section names mediainfo uses; a new header or a
// blank line terminates the current stream block.
var streamHeaderRE = regexp.MustCompile(`^(General|Video|Audio|Text|Menu|Image)( #\d+)?\s*$`)

// firstStreamBlock returns the text of the first stream section whose
// header starts with kind ("Video", "Audio"), bounded by the next blank
// line, the next section header, or end of text.
func firstStreamBlock(text, kind string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r ")
		if m := streamHeaderRE.FindStringSubmatch(trimmed); m != nil && m[1] == kind {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], "\r ")
		if trimmed == "" || streamHeaderRE.MatchString(trimmed) {
			end = i
			break
		}
	}
	return strings.Join(lines[start:end], "\n")
}

// fieldValue extracts the value of a "Name   : value" line. The field name
// must be followed only by whitespace before the colon, so "Format" does
// not match "Format profile".
func fieldValue(text, name string) string {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + `\s*:\s*(.+?)\s*$`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// TechnicalProfile bundles the three parsed facts for one file.
type TechnicalProfile struct {
	Resolution Resolution
	VideoCodec string
	AudioCodec string
}

// Parse derives the full technical profile from one dump. Each field falls
// back to its documented default independently; Parse never fails.
func Parse(text string) TechnicalProfile {
	return TechnicalProfile{
		Resolution: ParseResolution(text),
		VideoCodec: ParseVideoCodec(text),
		AudioCodec: ParseAudioCodec(text),
	}
}
