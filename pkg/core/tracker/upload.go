package tracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
)

// Submission holds everything one upload needs: the artifacts produced by
// the pipeline plus the composed metadata.
type Submission struct {
	TorrentPath    string // required
	ThumbSheetPath string // optional; skipped when empty or missing

	JavID          string // raw content identifier
	DVDID          string // catalog id
	Name           string // composed release title
	DescriptionURL string
	MediaInfoText  string
	ResolutionID   int

	Anonymous       bool
	PersonalRelease bool
	SkipModQueue    bool
	Internal        bool // honored only for privileged accounts
}

// boolField converts a flag to the "1"/"0" string the form API expects.
func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Upload submits the metafile, optional contact sheet, and metadata as a
// multipart request. Any non-2xx response or transport error is returned as
// an error; the caller treats it as a per-item upload failure and keeps the
// local artifacts.
func (c *Client) Upload(ctx context.Context, sub Submission) error {
	if sub.TorrentPath == "" {
		return fmt.Errorf("torrent path is required")
	}
	if sub.Name == "" {
		return fmt.Errorf("release name is required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"jav_id":           sub.JavID,
		"dvd_id":           sub.DVDID,
		"name":             sub.Name,
		"description":      sub.DescriptionURL,
		"mediainfo":        sub.MediaInfoText,
		"category_id":      strconv.Itoa(CategoryID),
		"type_id":          strconv.Itoa(TypeID),
		"resolution_id":    strconv.Itoa(sub.ResolutionID),
		"anonymous":        boolField(sub.Anonymous),
		"personal_release": boolField(sub.PersonalRelease),
		"mod_queue_opt_in": boolField(!sub.SkipModQueue),
		"internal":         boolField(sub.Internal),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err := attachFile(writer, "torrent", sub.TorrentPath); err != nil {
		return err
	}
	if sub.ThumbSheetPath != "" {
		if _, err := os.Stat(sub.ThumbSheetPath); err == nil {
			if err := attachFile(writer, "torrent-cover", sub.ThumbSheetPath); err != nil {
				return err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.http.PostMultipart(ctx, uploadPath, writer.FormDataContentType(), &body, &response); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if response.Message != "" && !response.Success {
		return fmt.Errorf("upload rejected: %s", response.Message)
	}
	return nil
}

func attachFile(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s file %q: %w", field, path, err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create %s form part: %w", field, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy %s content: %w", field, err)
	}
	return nil
}
