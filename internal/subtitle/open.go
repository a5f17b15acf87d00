package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Open reads a transcript file, converting it to UTF-8 first, and parses it
// according to its extension. The file name becomes the timeline source.
func Open(path string) (*Timeline, error) {
	format, err := GetFormatFromExtension(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	data, err = toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return Import(bytes.NewReader(data), format, filepath.Base(path))
}

// converts text in any detectable charset to UTF-8 without a BOM
func toUTF8(data []byte) ([]byte, error) {
	if len(data) == 0 || utf8.Valid(data) {
		return bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf}), nil
	}

	charset, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return nil, err
	}
	if charset.Charset == "UTF-8" {
		return data, nil
	}

	encoding, err := ianaindex.MIB.Encoding(charset.Charset)
	if err != nil {
		return nil, err
	}
	if encoding == nil {
		return nil, fmt.Errorf("no decoder for charset %s", charset.Charset)
	}

	transformed, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), encoding.NewDecoder()))
	if err != nil {
		return nil, err
	}

	return bytes.TrimPrefix(transformed, []byte{0xef, 0xbb, 0xbf}), nil
}

// Language is the detected language of a timeline's text.
type Language struct {
	Name     string
	Code     string
	Reliable bool
}

// DetectLanguage guesses the language of all entry texts combined. An empty
// timeline yields the zero Language.
func DetectLanguage(tl *Timeline) Language {
	if tl.Len() == 0 {
		return Language{}
	}

	texts := make([]string, 0, len(tl.Entries))
	for _, e := range tl.Entries {
		if t := strings.TrimSpace(e.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return Language{}
	}

	info := whatlanggo.Detect(strings.Join(texts, " "))
	return Language{
		Name:     info.Lang.String(),
		Code:     info.Lang.Iso6391(),
		Reliable: info.IsReliable(),
	}
}
