// Package title composes canonical release titles.
package title

import "strings"

// Flags are the release-flavor toggles that pick the title suffix.
type Flags struct {
	Internal  bool
	Personal  bool
	CustomTag string
}

// internalTag is the group suffix for internal releases.
const internalTag = "ClearJAV"

// Compose builds the canonical release title: the identifying facts joined
// by spaces, then at most one suffix. Internal releases always carry the
// group tag; a personal release carries its custom tag only when one is
// supplied, and never alongside the internal tag.
func Compose(catalogID, releaseDate string, resolution, videoCodec, audioCodec string, flags Flags) string {
	parts := []string{catalogID, releaseDate, resolution, "DMM", "WEB-DL", videoCodec, audioCodec}
	name := strings.Join(parts, " ")

	switch {
	case flags.Internal:
		name += "-" + internalTag
	case flags.Personal && flags.CustomTag != "":
		name += "-" + flags.CustomTag
	}
	return name
}
