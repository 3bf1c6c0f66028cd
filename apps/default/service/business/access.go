package business

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pkg/errors"
)

func requireScope(scope *namespace.Scope) error {
	if scope == nil || scope.UserID == "" || scope.Namespace == "" {
		return ErrUnauthenticated
	}
	return nil
}

func loadProject(ctx context.Context, db *storage.Database, scope *namespace.Scope, projectID string) (*models.Project, error) {
	if err := requireScope(scope); err != nil {
		return nil, err
	}
	if projectID == "" {
		return nil, invalidInput("project id is required")
	}

	project, err := db.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, lookupError(err, "project")
	}

	if !scope.Owns(types.Namespace(project.Namespace), project.CreatedBy) {
		return nil, errors.Wrapf(ErrScopeViolation, "project %s", projectID)
	}
	return project, nil
}

func loadFolder(ctx context.Context, db *storage.Database, scope *namespace.Scope, folderID string) (*models.Folder, error) {
	if err := requireScope(scope); err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, invalidInput("folder id is required")
	}

	folder, err := db.Folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, lookupError(err, "folder")
	}

	if !scope.Owns(types.Namespace(folder.Namespace), folder.CreatedBy) {
		return nil, errors.Wrapf(ErrScopeViolation, "folder %s", folderID)
	}
	return folder, nil
}

// loadUpload returns the upload whatever its status, after checking that both
// the row and its key belong to the scope.
func loadUpload(ctx context.Context, db *storage.Database, scope *namespace.Scope, fileID string) (*models.Upload, error) {
	if err := requireScope(scope); err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, invalidInput("file id is required")
	}

	upload, err := db.Uploads.GetByID(ctx, fileID)
	if err != nil {
		return nil, lookupError(err, "file")
	}

	if !scope.Owns(types.Namespace(upload.Namespace), upload.CreatedBy) ||
		!keys.HasNamespace(upload.ObjectKey, scope.Namespace.String()) {
		return nil, errors.Wrapf(ErrScopeViolation, "file %s", fileID)
	}
	return upload, nil
}

// loadLiveUpload is loadUpload for callers that treat deleted files as absent.
func loadLiveUpload(ctx context.Context, db *storage.Database, scope *namespace.Scope, fileID string) (*models.Upload, error) {
	upload, err := loadUpload(ctx, db, scope, fileID)
	if err != nil {
		return nil, err
	}
	if upload.Status == types.UploadStatusDeleted {
		return nil, errors.Wrap(ErrNotFound, "file")
	}
	return upload, nil
}

// folderPrefixes are the key prefixes that hold a folder's objects. System
// folders also hold artifacts filed under the project's composite token.
func folderPrefixes(ctx context.Context, db *storage.Database, folder *models.Folder) ([]string, error) {
	prefixes := []string{keys.FolderPrefix(folder.Namespace, folder.GetID())}
	if !folder.IsSystem {
		return prefixes, nil
	}

	project, err := db.Projects.GetByID(ctx, folder.ProjectID)
	if err != nil {
		return nil, lookupError(err, "project")
	}

	return append(prefixes, keys.FolderPrefix(folder.Namespace, keys.ArtifactToken(project.Name, folder.Name))), nil
}
