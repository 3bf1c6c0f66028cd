package models

import (
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/frame"
)

// Project is the parent of a folder taxonomy.
type Project struct {
	frame.BaseModel

	Name      string `gorm:"type:TEXT;not null"`
	Namespace string `gorm:"type:varchar(100);index;not null"`
	CreatedBy string `gorm:"type:varchar(100);not null"`
}

// Folder exists only as metadata; its objects share a key prefix.
type Folder struct {
	frame.BaseModel

	ProjectID  string `gorm:"type:varchar(50);uniqueIndex:idx_folder_project_name;not null"`
	Name       string `gorm:"type:varchar(255);uniqueIndex:idx_folder_project_name;not null"`
	FolderPath string `gorm:"type:TEXT"`
	IsSystem   bool
	SortOrder  int
	Namespace  string `gorm:"type:varchar(100);index;not null"`
	CreatedBy  string `gorm:"type:varchar(100);not null"`
}

// Upload records a single stored object.
type Upload struct {
	frame.BaseModel

	FolderID     string             `gorm:"type:varchar(50);index"`
	FolderPath   string             `gorm:"type:TEXT"`
	Name         string             `gorm:"type:TEXT;not null"`
	Size         int64
	ContentType  string             `gorm:"type:varchar(255)"`
	Ext          string             `gorm:"type:varchar(32)"`
	ObjectKey    string             `gorm:"type:varchar(1024);uniqueIndex;not null"`
	Namespace    string             `gorm:"type:varchar(100);index;not null"`
	CreatedBy    string             `gorm:"type:varchar(100);index;not null"`
	Status       types.UploadStatus `gorm:"type:varchar(20);index;not null"`
	ArtifactKind string             `gorm:"type:varchar(50)"`
	ThumbnailKey string             `gorm:"type:varchar(1024)"`
	Checksum     string             `gorm:"type:varchar(64)"`
}

// IsImage reports whether a preview can be generated for the upload.
func (u *Upload) IsImage() bool {
	for _, ext := range types.ImageExtensions {
		if u.Ext == ext {
			return true
		}
	}
	return false
}

// OrganizationMember links a user to the organization whose namespace they share.
type OrganizationMember struct {
	frame.BaseModel

	OrganizationID string `gorm:"type:varchar(100);index;not null"`
	UserID         string `gorm:"type:varchar(100);uniqueIndex;not null"`
}

// ShareLink grants unauthenticated upload access to a single folder until it expires.
type ShareLink struct {
	frame.BaseModel

	Token     string `gorm:"type:varchar(100);uniqueIndex;not null"`
	ProjectID string `gorm:"type:varchar(50);not null"`
	FolderID  string `gorm:"type:varchar(50);index;not null"`
	Namespace string `gorm:"type:varchar(100);not null"`
	CreatedBy string `gorm:"type:varchar(100);not null"`
	ExpiresAt time.Time
}

// Expired reports whether the link can no longer be used at the given time.
func (sl *ShareLink) Expired(at time.Time) bool {
	return !at.Before(sl.ExpiresAt)
}

// OrphanedObject is a dead letter for an object whose metadata is already gone
// but whose delete against the object store failed.
type OrphanedObject struct {
	frame.BaseModel

	ObjectKey string `gorm:"type:varchar(1024);uniqueIndex;not null"`
	Reason    string `gorm:"type:varchar(50)"`
	Attempts  int
	LastError string `gorm:"type:TEXT"`
}

// FileAudit holds events on a file.
type FileAudit struct {
	frame.BaseModel

	FileID  string `gorm:"type:varchar(50);index"`
	ActorID string `gorm:"type:varchar(100)"`
	Action  string `gorm:"type:varchar(50)"`
	Detail  string `gorm:"type:TEXT"`
}

// All lists every model the datastore migrates.
func All() []any {
	return []any{
		&Project{},
		&Folder{},
		&Upload{},
		&OrganizationMember{},
		&ShareLink{},
		&OrphanedObject{},
		&FileAudit{},
	}
}
