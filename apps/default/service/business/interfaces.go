package business

import (
	"context"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
)

// Publisher hands work to a background queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

// AuditSink persists file audit events.
type AuditSink interface {
	Save(ctx context.Context, audit *models.FileAudit) error
}

// FolderProvisioner creates the fixed system folder taxonomy of a project.
type FolderProvisioner interface {
	Provision(ctx context.Context, projectID, projectName, organizationID, userID string) ([]*models.Folder, error)
}

// ProjectService owns project creation and the folders below a project.
type ProjectService interface {
	CreateProject(ctx context.Context, scope *namespace.Scope, name string) (*ProjectResult, error)
	ListFolders(ctx context.Context, scope *namespace.Scope, projectID string) ([]*models.Folder, error)
	CreateFolder(ctx context.Context, scope *namespace.Scope, projectID, name string) (*models.Folder, error)
}

// ArtifactWriter stores server generated or uploaded project artifacts.
type ArtifactWriter interface {
	SaveArtifact(ctx context.Context, scope *namespace.Scope, req *ArtifactRequest) (*ArtifactResult, error)
}

// UploadService runs the two phase client upload flow.
type UploadService interface {
	RequestUploadSlot(ctx context.Context, scope *namespace.Scope, req *SlotRequest) (*SlotResult, error)
	CompleteUpload(ctx context.Context, scope *namespace.Scope, fileID string) (*models.Upload, error)
	CreateShareLink(ctx context.Context, scope *namespace.Scope, folderID string, ttl time.Duration) (*models.ShareLink, error)
	RequestSharedUploadSlot(ctx context.Context, token string, req *SlotRequest) (*SlotResult, error)
	CompleteSharedUpload(ctx context.Context, token, fileID string) (*models.Upload, error)
}

// FileService lists and mutates uploaded files.
type FileService interface {
	ListFiles(ctx context.Context, scope *namespace.Scope, folderID string, opts *ListOptions) ([]*models.Upload, error)
	RecentProjectFiles(ctx context.Context, scope *namespace.Scope, projectID string, limit int) ([]*models.Upload, error)
	DownloadURL(ctx context.Context, scope *namespace.Scope, fileID string) (*DownloadResult, error)
	Rename(ctx context.Context, scope *namespace.Scope, fileID, name string) (*models.Upload, error)
	Move(ctx context.Context, scope *namespace.Scope, fileID, folderID string) (*models.Upload, error)
	Delete(ctx context.Context, scope *namespace.Scope, fileID string) error
}

// Archiver bundles the active files of a folder into a zip.
type Archiver interface {
	PrepareFolderArchive(ctx context.Context, scope *namespace.Scope, folderID string) (*Archive, error)
}

// Reconciler cleans up state that best effort paths left behind.
type Reconciler interface {
	SweepPending(ctx context.Context) (int, error)
	RetryOrphans(ctx context.Context) (int, error)
	Run(ctx context.Context, interval time.Duration)
}

// ProjectResult is a created project and its provisioned folders.
type ProjectResult struct {
	Project *models.Project
	Folders []*models.Folder
}

// ArtifactRequest carries the full payload of an artifact.
type ArtifactRequest struct {
	ProjectID   string
	Kind        types.ArtifactKind
	Filename    string
	ContentType string
	Data        []byte
}

// ArtifactResult describes where an artifact was stored.
type ArtifactResult struct {
	Upload     *models.Upload
	FolderName string
	Key        string
}

// SlotRequest reserves a key for a client side upload.
type SlotRequest struct {
	Filename    string
	ContentType string
	Size        int64
	FolderID    string
}

// SlotResult is a reserved key and the URL the client writes it through.
type SlotResult struct {
	PutURL    string
	FileID    string
	Key       string
	ExpiresAt time.Time
}

// ListOptions narrows a folder listing.
type ListOptions struct {
	// Viewer selects an extension allowlist, "photos" or "drawings".
	Viewer         string
	OrderBy        types.OrderBy
	IncludePending bool
	Limit          int
	Offset         int
}

// DownloadResult is a short lived read URL for a file.
type DownloadResult struct {
	Upload    *models.Upload
	URL       string
	ExpiresAt time.Time
}

// archiveEntry is a fetched file waiting to be written into an archive.
type archiveEntry struct {
	name     string
	modified time.Time
	data     []byte
}

// Archive holds the fetched contents of a folder until it is streamed out.
type Archive struct {
	FolderName string
	Skipped    int
	entries    []archiveEntry
}
