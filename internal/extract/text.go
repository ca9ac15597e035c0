package extract

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText decodes data as UTF-8, falling back to Latin-1.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
