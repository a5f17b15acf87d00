package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidUpload is returned for payloads that carry no usable video.
var ErrInvalidUpload = errors.New("invalid upload")

const defaultExtension = "mp4"

var mimeToExt = map[string]string{
	"video/mp4":        "mp4",
	"video/avi":        "avi",
	"video/x-msvideo":  "avi",
	"video/mov":        "mov",
	"video/quicktime":  "mov",
	"video/wmv":        "wmv",
	"video/x-ms-wmv":   "wmv",
	"video/webm":       "webm",
	"video/mkv":        "mkv",
	"video/x-matroska": "mkv",
}

var extRegex = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// Payload is an uploaded video as sent by the editor: either a data URL, or
// a file name with base64 content.
type Payload struct {
	URL     string `json:"url,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// Intake writes uploaded videos into a working directory.
type Intake struct {
	Dir string
}

func NewIntake(dir string) *Intake {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "subdeck")
	}
	return &Intake{Dir: dir}
}

// Save decodes the payload and writes it to input_<uuid>.<ext>, returning the
// file path.
func (in *Intake) Save(p Payload) (string, error) {
	data, ext, err := decode(p)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: video file is empty", ErrInvalidUpload)
	}

	if err := os.MkdirAll(in.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(in.Dir, fmt.Sprintf("input_%s.%s", uuid.NewString(), ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write video file: %w", err)
	}
	return path, nil
}

func decode(p Payload) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(p.URL, "data:"):
		header, body, ok := strings.Cut(p.URL, ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: malformed data URL", ErrInvalidUpload)
		}
		data, err := decodeBase64(body)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to decode base64 video data: %v", ErrInvalidUpload, err)
		}
		return data, ExtensionForMIME(mimeFromHeader(header)), nil

	case p.Name != "" && p.Content != "":
		data, err := decodeBase64(p.Content)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to decode base64 video content: %v", ErrInvalidUpload, err)
		}
		return data, extensionFromName(p.Name), nil

	default:
		return nil, "", fmt.Errorf("%w: expected \"url\" or \"name\"/\"content\" fields", ErrInvalidUpload)
	}
}

// ExtensionForMIME maps a video MIME type to a file extension, mp4 when
// unknown.
func ExtensionForMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if ext, ok := mimeToExt[mime]; ok {
		return ext
	}
	return defaultExtension
}

// "data:video/webm;base64" -> "video/webm"
func mimeFromHeader(header string) string {
	header = strings.TrimPrefix(header, "data:")
	mime, _, _ := strings.Cut(header, ";")
	return mime
}

func extensionFromName(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !extRegex.MatchString(ext) {
		return defaultExtension
	}
	return ext
}

// accepts padded and unpadded input
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
