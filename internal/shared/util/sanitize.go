package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

const maxFileNameLength = 120

// SanitizeFileName turns an uploaded file name into a safe object key
// suffix. Separators become underscores and control characters are dropped.
// Long names are cut while keeping the extension.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if strings.Trim(s, "_. ") == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLength {
		ext := path.Ext(s)
		if len(ext) > 10 {
			ext = ""
		}
		s = truncateUTF8(s[:len(s)-len(ext)], maxFileNameLength-len(ext)) + ext
	}
	return s, nil
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
