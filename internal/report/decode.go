package report

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeInput converts report bytes to UTF-8.
// MT5 writes HTML reports as UTF-16 LE; legacy exports are often Windows-1252.
func decodeInput(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return raw[len(bomUTF8):], nil
	case bytes.HasPrefix(raw, bomUTF16LE), bytes.HasPrefix(raw, bomUTF16BE):
		return decodeWith(raw, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case looksUTF16LE(raw):
		return decodeWith(raw, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	case !utf8.Valid(raw):
		return decodeWith(raw, charmap.Windows1252.NewDecoder())
	}
	return raw, nil
}

func decodeWith(raw []byte, t transform.Transformer) ([]byte, error) {
	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return nil, fmt.Errorf("decode report bytes: %w", err)
	}
	return out, nil
}

// looksUTF16LE detects BOM-less UTF-16 LE ASCII text (every odd byte zero)
func looksUTF16LE(raw []byte) bool {
	if len(raw) < 4 || len(raw)%2 != 0 {
		return false
	}
	n := len(raw)
	if n > 64 {
		n = 64
	}
	for i := 1; i < n; i += 2 {
		if raw[i] != 0 || raw[i-1] == 0 {
			return false
		}
	}
	return true
}
