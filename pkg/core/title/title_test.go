package title_test

import (
	"testing"

	"github.com/clearjav/torrentmeta/pkg/core/title"
	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name  string
		flags title.Flags
		want  string
	}{
		{
			name:  "internal release",
			flags: title.Flags{Internal: true},
			want:  "SDDE-300 2024-01-15 1080p DMM WEB-DL H.264 AAC-ClearJAV",
		},
		{
			name:  "personal release with tag",
			flags: title.Flags{Personal: true, CustomTag: "MyTag"},
			want:  "SDDE-300 2024-01-15 1080p DMM WEB-DL H.264 AAC-MyTag",
		},
		{
			name:  "personal release without tag gets no suffix",
			flags: title.Flags{Personal: true},
			want:  "SDDE-300 2024-01-15 1080p DMM WEB-DL H.264 AAC",
		},
		{
			name:  "internal wins over personal",
			flags: title.Flags{Internal: true, Personal: true, CustomTag: "MyTag"},
			want:  "SDDE-300 2024-01-15 1080p DMM WEB-DL H.264 AAC-ClearJAV",
		},
		{
			name:  "no flags",
			flags: title.Flags{},
			want:  "SDDE-300 2024-01-15 1080p DMM WEB-DL H.264 AAC",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := title.Compose("SDDE-300", "2024-01-15", "1080p", "H.264", "AAC", tc.flags)
			assert.Equal(t, tc.want, got)
		})
	}
}
