package util

import (
	"errors"
	"strings"
)

// CleanFolder validates a storage folder hint. Only lowercase letters, digits,
// underscores and single slashes between segments are accepted.
func CleanFolder(folder string) (string, error) {
	f := strings.Trim(strings.TrimSpace(folder), "/")
	if f == "" {
		return "", errors.New("folder is required")
	}
	for _, seg := range strings.Split(f, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", errors.New("invalid folder")
		}
		for _, ch := range seg {
			if !((ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
				return "", errors.New("invalid folder")
			}
		}
	}
	return f, nil
}
