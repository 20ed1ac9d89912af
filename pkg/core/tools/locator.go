package tools

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Names of the external tools the pipeline depends on.
const (
	FFmpeg     = "ffmpeg"
	FFprobe    = "ffprobe"
	Mtn        = "mtn"
	MediaInfo  = "mediainfo"
	Intermodal = "intermodal"
)

// IntermodalCommand returns the platform-specific command name for the
// torrent metafile creator (the Windows build ships as "imdl").
func IntermodalCommand() string {
	if runtime.GOOS == "windows" {
		return "imdl"
	}
	return Intermodal
}

// downloadURLs maps each tool to a page where the user can obtain it.
// Shown in the check report when a tool is missing.
var downloadURLs = map[string]string{
	FFmpeg:     "https://ffmpeg.org/download.html",
	FFprobe:    "https://ffmpeg.org/download.html",
	Mtn:        "https://www.videohelp.com/software/movie-thumbnailer",
	MediaInfo:  "https://mediaarea.net/en/MediaInfo/Download",
	Intermodal: "https://github.com/casey/intermodal/releases/",
}

// RequiredTools returns the full set of tools a run needs, in a stable order.
func RequiredTools() []string {
	return []string{FFmpeg, FFprobe, Mtn, MediaInfo, IntermodalCommand()}
}

// Status reports the availability of one tool.
type Status struct {
	Name        string
	Path        string // empty when not found
	Found       bool
	DownloadURL string
}

// Locator resolves absolute paths for external executables. A directory
// local to the application is preferred over the system search path, so a
// portable install with bundled tools wins over whatever is on PATH.
type Locator struct {
	// LocalDir is searched before PATH. Defaults to the directory of the
	// running executable when empty.
	LocalDir string
}

// NewLocator creates a Locator rooted at the running executable's directory.
func NewLocator() *Locator {
	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}
	return &Locator{LocalDir: dir}
}

// Locate returns the absolute path of the named tool, or ok=false when it
// cannot be found anywhere. Search order: local directory with the platform
// executable extension, local directory bare name, system search path.
func (l *Locator) Locate(name string) (string, bool) {
	if runtime.GOOS == "windows" {
		withExt := filepath.Join(l.LocalDir, name+".exe")
		if fileExists(withExt) {
			return withExt, true
		}
	}
	bare := filepath.Join(l.LocalDir, name)
	if fileExists(bare) {
		return bare, true
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	return "", false
}

// LocateAll resolves every required tool and returns per-tool statuses in
// the RequiredTools order plus a map of the found paths. Callers cache the
// map for the process lifetime; the Locator itself holds no state.
func (l *Locator) LocateAll() ([]Status, map[string]string) {
	names := RequiredTools()
	statuses := make([]Status, 0, len(names))
	paths := make(map[string]string, len(names))
	for _, name := range names {
		url := downloadURLs[name]
		if url == "" && name == "imdl" {
			url = downloadURLs[Intermodal]
		}
		path, ok := l.Locate(name)
		statuses = append(statuses, Status{
			Name:        name,
			Path:        path,
			Found:       ok,
			DownloadURL: url,
		})
		if ok {
			paths[name] = path
		}
	}
	return statuses, paths
}

// Missing filters a status list down to the tools that were not found.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Found {
			missing = append(missing, s)
		}
	}
	return missing
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
