package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// SanitizeFolderName validates a user-supplied folder name. Names that are
// blank, ".", or contain a path separator or ".." are rejected; characters that
// are invalid on common filesystems are stripped.
func SanitizeFolderName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", eris.Wrap(ErrInvalidDestination, "folder name cannot be empty")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", eris.Wrap(ErrInvalidDestination, "folder name cannot contain path separators or '..'")
	}

	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name))
	if cleaned == "" {
		return "", eris.Wrap(ErrInvalidDestination, "folder name is empty after sanitization")
	}
	if cleaned == "." {
		return "", eris.Wrap(ErrInvalidDestination, "folder name cannot be '.'")
	}
	return cleaned, nil
}

// DownloadPath joins baseDir with the sanitized folder name.
func DownloadPath(baseDir, folder string) (string, error) {
	safe, err := SanitizeFolderName(folder)
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, safe), nil
}
