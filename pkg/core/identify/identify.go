// Package identify derives the raw content identifier from a video
// filename. The result is a candidate only; authoritative catalog ids come
// from the lookup service.
package identify

import (
	"path/filepath"
	"regexp"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// Catalog codes are a short letter prefix followed by a numeric tail, with
// an optional separator: "SDDE-300", "sdde.300", "ABP 123". Requiring at
// least two letters and two digits keeps noise like "x264" from matching.
var codeRE = regexp.MustCompile(`(?i)([a-z]{2,6})[\s._-]?([0-9]{2,5})`)

// DeriveRawID extracts the raw identifier from a filename. The scene-name
// parser runs first so release tags (resolution, source, group) are
// stripped before the code regex sees the text; the bare base name is the
// fallback when the parser yields nothing usable. The returned id is
// upper-case letters immediately followed by the digits as they appeared;
// normalization variants are the resolver's job.
func DeriveRawID(filename string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	if parsed, err := ptn.Parse(filepath.Base(filename)); err == nil && parsed.Title != "" {
		if id, ok := firstCode(parsed.Title); ok {
			return id, true
		}
	} else if err != nil {
		log.Debugf("identify: scene-name parse failed for %q: %v", filename, err)
	}

	return firstCode(base)
}

func firstCode(s string) (string, bool) {
	m := codeRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + m[2], true
}
