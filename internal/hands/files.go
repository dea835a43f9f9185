package hands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeNameRE = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

var videoMime = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

// SafeFileName strips directories and every character outside
// [a-zA-Z0-9._-]. An empty result means the name is unusable.
func SafeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.Trim(unsafeNameRE.ReplaceAllString(base, ""), ".")
}

// IsVideo reports whether name has a supported video extension.
func IsVideo(name string) bool {
	_, ok := videoMime[strings.ToLower(filepath.Ext(name))]
	return ok
}

func mimeFromExt(name string) string {
	return videoMime[strings.ToLower(filepath.Ext(name))]
}

// saveFile streams r into base/<eventID>/<name> and returns the path
// relative to base, always with forward slashes. A name already taken gets
// a short random prefix.
func saveFile(base string, eventID uint, name string, r io.Reader) (string, error) {
	dir := filepath.Join(base, fmt.Sprint(eventID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	final, err := claimName(tmp.Name(), dir, name)
	_ = os.Remove(tmp.Name())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%s", eventID, final), nil
}

// claimName hard-links src into dir under name, or under a prefixed name
// when name is taken. os.Link fails on an existing target.
func claimName(src, dir, name string) (string, error) {
	final := name
	for range 5 {
		err := os.Link(src, filepath.Join(dir, final))
		if err == nil {
			return final, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		final = uuid.NewString()[:8] + "_" + name
	}
	return "", fmt.Errorf("no free name for %s", name)
}

// MoveFile renames src to dst, falling back to copy and remove across
// filesystems.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
