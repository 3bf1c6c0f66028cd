// Package keys derives object storage keys from the folder taxonomy.
//
// Every key has the shape orgs/{namespace}/{folderToken}/{unixMillis}_{filename}.
// The object store has no folders, so the key prefix up to the folder token is
// the only thing that groups files together.
package keys

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	// RootPrefix is the first segment of every key.
	RootPrefix = "orgs"

	// MaxKeyLength is the practical object store limit for a key, in bytes.
	MaxKeyLength = 1024

	// MaxFilenameLength bounds the sanitized filename embedded in a key.
	MaxFilenameLength = 255

	artifactRoot     = "Projects"
	thumbnailSuffix  = ".thumb.jpg"
	fallbackFilename = "file"
)

var (
	ErrEmptyNamespace   = errors.New("namespace must not be empty")
	ErrInvalidNamespace = errors.New("namespace must not contain path separators")
	ErrInvalidToken     = errors.New("folder token is invalid")
	ErrKeyTooLong       = errors.New("object key exceeds maximum length")
)

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '(', r == ')', r == '-', r == ' ':
		return true
	}
	return false
}

func replaceDisallowed(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if allowedRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// SanitizeFilename reduces a client supplied filename to a single safe key segment.
// Directory components are dropped and any character outside [A-Za-z0-9._()\- ]
// is replaced with an underscore.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	clean := replaceDisallowed(name)
	if strings.Trim(clean, ". ") == "" {
		return fallbackFilename
	}

	if len(clean) > MaxFilenameLength {
		ext := path.Ext(clean)
		if len(ext) >= MaxFilenameLength {
			ext = ""
		}
		clean = clean[:MaxFilenameLength-len(ext)] + ext
	}

	return clean
}

func validateNamespace(ns string) error {
	if ns == "" {
		return ErrEmptyNamespace
	}
	if strings.ContainsAny(ns, "/\\") {
		return ErrInvalidNamespace
	}
	return nil
}

func validateToken(token string) error {
	if token == "" || strings.HasPrefix(token, "/") || strings.HasSuffix(token, "/") {
		return ErrInvalidToken
	}
	for _, segment := range strings.Split(token, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrInvalidToken
		}
	}
	return nil
}

// FolderPrefix is the key prefix shared by every object filed under folderToken.
func FolderPrefix(ns, folderToken string) string {
	return fmt.Sprintf("%s/%s/%s/", RootPrefix, ns, folderToken)
}

// NamespacePrefix is the key prefix of everything a tenant owns.
func NamespacePrefix(ns string) string {
	return fmt.Sprintf("%s/%s/", RootPrefix, ns)
}

// Build derives the object key for a file. Two calls differing in filename or
// millisecond never collide; identical names in the same millisecond do.
func Build(ns, folderToken, filename string, at time.Time) (string, error) {
	if err := validateNamespace(ns); err != nil {
		return "", err
	}
	if err := validateToken(folderToken); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s%d_%s", FolderPrefix(ns, folderToken), at.UnixMilli(), SanitizeFilename(filename))
	if len(key) > MaxKeyLength {
		return "", ErrKeyTooLong
	}
	return key, nil
}

// Rebase moves a key's final segment under another folder token.
func Rebase(key, ns, folderToken string) (string, error) {
	if err := validateNamespace(ns); err != nil {
		return "", err
	}
	if err := validateToken(folderToken); err != nil {
		return "", err
	}

	moved := FolderPrefix(ns, folderToken) + path.Base(key)
	if len(moved) > MaxKeyLength {
		return "", ErrKeyTooLong
	}
	return moved, nil
}

func sanitizeSegment(segment string) string {
	clean := replaceDisallowed(segment)
	if strings.Trim(clean, ". ") == "" {
		return strings.Repeat("_", max(len(clean), 1))
	}
	return clean
}

// ArtifactToken is the composite folder token used for project artifacts.
// Each segment is sanitized so a project name cannot inject separators.
func ArtifactToken(projectName, folderName string) string {
	return strings.Join([]string{
		artifactRoot,
		sanitizeSegment(projectName),
		sanitizeSegment(folderName),
	}, "/")
}

// HasNamespace reports whether key lives under the namespace's prefix.
func HasNamespace(key, ns string) bool {
	return ns != "" && strings.HasPrefix(key, NamespacePrefix(ns))
}

// ThumbnailKey is where the preview image of key is stored.
func ThumbnailKey(key string) string {
	return key + thumbnailSuffix
}
