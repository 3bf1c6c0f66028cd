package business

import (
	"context"
	"sort"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pkg/errors"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type fileService struct {
	deps   *Dependencies
	audit  *auditor
	reaper *objectReaper
}

func NewFileService(deps *Dependencies) FileService {
	return &fileService{
		deps:   deps,
		audit:  deps.auditor(),
		reaper: deps.reaper(),
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// folderFilter scopes a listing to one folder: its key prefixes, its id, the
// caller's namespace and, for solo users, the caller as creator.
func (fs *fileService) folderFilter(ctx context.Context, scope *namespace.Scope, folder *models.Folder) (repository.UploadFilter, error) {
	prefixes, err := folderPrefixes(ctx, fs.deps.DB, folder)
	if err != nil {
		return repository.UploadFilter{}, err
	}

	return repository.UploadFilter{
		Namespace: scope.Namespace.String(),
		CreatedBy: scope.CreatorFilter(),
		FolderID:  folder.GetID(),
		Prefixes:  prefixes,
		Statuses:  []types.UploadStatus{types.UploadStatusActive},
	}, nil
}

func (fs *fileService) ListFiles(ctx context.Context, scope *namespace.Scope, folderID string, opts *ListOptions) ([]*models.Upload, error) {
	folder, err := loadFolder(ctx, fs.deps.DB, scope, folderID)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &ListOptions{}
	}
	if opts.Offset < 0 {
		return nil, invalidInput("offset may not be negative")
	}

	filter, err := fs.folderFilter(ctx, scope, folder)
	if err != nil {
		return nil, err
	}

	if opts.IncludePending {
		filter.Statuses = nil
		filter.ExcludeStatus = types.UploadStatusDeleted
	}
	filter.Extensions = types.ViewerExtensions(opts.Viewer)
	filter.OrderBy = opts.OrderBy
	filter.Limit = clampLimit(opts.Limit)
	filter.Offset = opts.Offset

	uploads, err := fs.deps.DB.Uploads.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "could not list files")
	}
	return uploads, nil
}

// RecentProjectFiles runs one prefix query per folder of the project and
// merges them newest first.
func (fs *fileService) RecentProjectFiles(ctx context.Context, scope *namespace.Scope, projectID string, limit int) ([]*models.Upload, error) {
	project, err := loadProject(ctx, fs.deps.DB, scope, projectID)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	folders, err := fs.deps.DB.Folders.ListByProject(ctx, project.GetID())
	if err != nil {
		return nil, errors.Wrap(err, "could not list folders")
	}

	seen := make(map[string]bool)
	recent := make([]*models.Upload, 0)
	for _, folder := range folders {
		if !scope.Owns(types.Namespace(folder.Namespace), folder.CreatedBy) {
			continue
		}

		filter, filterErr := fs.folderFilter(ctx, scope, folder)
		if filterErr != nil {
			return nil, filterErr
		}
		filter.OrderBy = types.OrderByCreatedAtDesc
		filter.Limit = limit

		uploads, listErr := fs.deps.DB.Uploads.List(ctx, filter)
		if listErr != nil {
			return nil, errors.Wrap(listErr, "could not list files")
		}
		for _, upload := range uploads {
			if !seen[upload.GetID()] {
				seen[upload.GetID()] = true
				recent = append(recent, upload)
			}
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].GetID() > recent[j].GetID()
		}
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})

	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (fs *fileService) DownloadURL(ctx context.Context, scope *namespace.Scope, fileID string) (*DownloadResult, error) {
	upload, err := loadLiveUpload(ctx, fs.deps.DB, scope, fileID)
	if err != nil {
		return nil, err
	}
	if upload.Status != types.UploadStatusActive {
		return nil, errors.Wrap(ErrNotFound, "file upload is not complete")
	}

	ttl := fs.deps.Config.DownloadURLTTL
	url, err := fs.deps.Provider.DownloadURL(ctx, upload.ObjectKey, ttl)
	if err != nil {
		return nil, objectStoreFailure(err, "sign download url")
	}

	return &DownloadResult{
		Upload:    upload,
		URL:       url,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}
