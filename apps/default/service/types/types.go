package types

import (
	"path"
	"strings"
)

// Namespace identifies a storage tenant: an organization id or, for users
// without an organization, the user id.
type Namespace string

func (n Namespace) String() string {
	return string(n)
}

// UploadStatus is the lifecycle state of an upload record.
type UploadStatus string

const (
	UploadStatusPending UploadStatus = "pending"
	UploadStatusActive  UploadStatus = "active"
	UploadStatusDeleted UploadStatus = "deleted"
)

// OrderBy selects the ordering of a file listing.
type OrderBy string

const (
	OrderByName          OrderBy = "name"
	OrderByCreatedAtDesc OrderBy = "created_desc"
)

// ParseOrderBy falls back to newest first for unknown values.
func ParseOrderBy(value string) OrderBy {
	switch OrderBy(value) {
	case OrderByName:
		return OrderByName
	default:
		return OrderByCreatedAtDesc
	}
}

// FileExtension returns the lower cased extension of a filename without the dot.
func FileExtension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.TrimPrefix(ext, ".")
}

// ImageExtensions are the file types shown by the photo viewer.
var ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "heic", "tif", "tiff", "bmp"}

// DrawingExtensions are the file types shown by the drawing viewer.
var DrawingExtensions = append([]string{"pdf", "dwg", "dxf", "dwf"}, ImageExtensions...)

// ViewerExtensions resolves a viewer preset name to its extension allowlist.
// An unknown or empty preset means no filtering.
func ViewerExtensions(preset string) []string {
	switch strings.ToLower(preset) {
	case "photos":
		return ImageExtensions
	case "drawings":
		return DrawingExtensions
	default:
		return nil
	}
}
