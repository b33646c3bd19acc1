package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// BaseWithoutExtension returns the last element of p without its extension.
// Both slash styles are accepted since resource paths come from metadata.
func BaseWithoutExtension(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// ExceptExtension strips the final extension from a filesystem path.
func ExceptExtension(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// MoveFile renames src to dst, creating the parent directory of dst.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}
	return os.Rename(src, dst)
}
