package utils

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

// IsBinary reports whether the provided byte slice appears to contain binary data.
// Any NUL byte marks the data as binary; invalid UTF-8 alone does not.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}

// DecodeText decodes data as UTF-8, replacing undecodable sequences with U+FFFD.
func DecodeText(data []byte) string {
	decoded, decodeError := unicode.UTF8.NewDecoder().Bytes(data)
	if decodeError != nil {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}
	return string(decoded)
}
