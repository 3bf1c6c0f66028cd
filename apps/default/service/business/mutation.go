package business

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

// deleteAttempts bounds how often Delete re-reads a row that changed under it.
const deleteAttempts = 3

var liveStatuses = []types.UploadStatus{types.UploadStatusPending, types.UploadStatusActive}

// thumbnailOf is the preview key an upload may own. The worker can attach a
// preview after the row was read, so images fall back to the derived key.
func thumbnailOf(upload *models.Upload) string {
	if upload.ThumbnailKey != "" {
		return upload.ThumbnailKey
	}
	if upload.IsImage() {
		return keys.ThumbnailKey(upload.ObjectKey)
	}
	return ""
}

// Rename changes the display name only. Keys are never derived from the
// display name after creation.
func (fs *fileService) Rename(ctx context.Context, scope *namespace.Scope, fileID, name string) (*models.Upload, error) {
	name, err := validateDisplayName(name, "file")
	if err != nil {
		return nil, err
	}

	upload, err := loadLiveUpload(ctx, fs.deps.DB, scope, fileID)
	if err != nil {
		return nil, err
	}

	renamed, err := fs.deps.DB.Uploads.UpdateIf(ctx, upload.GetID(),
		repository.UploadGuard{Statuses: liveStatuses},
		map[string]any{"name": name})
	if err != nil {
		return nil, errors.Wrap(err, "could not rename file")
	}
	if !renamed {
		return nil, errors.Wrap(ErrNotFound, "file")
	}

	previous := upload.Name
	upload.Name = name

	fs.audit.Record(ctx, upload.GetID(), scope.UserID, AuditActionRenamed, previous+" -> "+name)
	return upload, nil
}

// Move copies the object under the destination folder, points the metadata at
// the copy and only then deletes the original. The metadata only moves if the
// row still points at the copied key; otherwise the copy is removed again.
func (fs *fileService) Move(ctx context.Context, scope *namespace.Scope, fileID, folderID string) (*models.Upload, error) {
	upload, err := loadLiveUpload(ctx, fs.deps.DB, scope, fileID)
	if err != nil {
		return nil, err
	}
	if upload.Status != types.UploadStatusActive {
		return nil, invalidInput("file %s has not finished uploading", fileID)
	}

	destination, err := loadFolder(ctx, fs.deps.DB, scope, folderID)
	if err != nil {
		return nil, err
	}
	if destination.GetID() == upload.FolderID {
		return upload, nil
	}

	newKey, err := keys.Rebase(upload.ObjectKey, scope.Namespace.String(), destination.GetID())
	if err != nil {
		return nil, invalidInput("destination key: %v", err)
	}
	if !keys.HasNamespace(newKey, scope.Namespace.String()) {
		return nil, errors.Wrapf(ErrScopeViolation, "key %s", newKey)
	}

	oldKey := upload.ObjectKey
	oldThumbnail := thumbnailOf(upload)
	logger := util.Log(ctx).WithField("file_id", fileID).
		WithField("from", oldKey).
		WithField("to", newKey)

	err = fs.deps.Provider.Copy(ctx, newKey, oldKey)
	if err != nil {
		return nil, objectStoreFailure(err, "copy object")
	}

	moved, err := fs.deps.DB.Uploads.UpdateIf(ctx, upload.GetID(),
		repository.UploadGuard{ObjectKey: oldKey, Statuses: []types.UploadStatus{types.UploadStatusActive}},
		map[string]any{
			"object_key":    newKey,
			"folder_id":     destination.GetID(),
			"folder_path":   destination.FolderPath,
			"thumbnail_key": "",
		})
	if err != nil || !moved {
		fs.reaper.Remove(ctx, newKey, ReasonMoveCompensation)
		if err != nil {
			logger.WithError(err).Error("move metadata update failed, removing copy")
			return nil, errors.Wrap(err, "could not move file")
		}
		logger.Warn("file changed during move, removing copy")
		return nil, errors.Wrapf(ErrConflict, "file %s", fileID)
	}

	sourceFolder := upload.FolderID
	upload.ObjectKey = newKey
	upload.FolderID = destination.GetID()
	upload.FolderPath = destination.FolderPath
	upload.ThumbnailKey = ""

	fs.reaper.Remove(ctx, oldKey, ReasonMoveSource)
	fs.reaper.Remove(ctx, oldThumbnail, ReasonStaleThumbnail)

	fs.audit.Record(ctx, upload.GetID(), scope.UserID, AuditActionMoved, sourceFolder+" -> "+destination.GetID())
	publishThumbnail(ctx, fs.deps, upload)

	logger.Info("file moved")
	return upload, nil
}

// Delete soft deletes the row and then removes the object best effort.
// Deleting an already deleted file is a no-op. The status only flips while the
// row still holds the key that gets reaped.
func (fs *fileService) Delete(ctx context.Context, scope *namespace.Scope, fileID string) error {
	for attempt := 0; attempt < deleteAttempts; attempt++ {
		upload, err := loadUpload(ctx, fs.deps.DB, scope, fileID)
		if err != nil {
			return err
		}
		if upload.Status == types.UploadStatusDeleted {
			return nil
		}

		deleted, err := fs.deps.DB.Uploads.UpdateIf(ctx, upload.GetID(),
			repository.UploadGuard{ObjectKey: upload.ObjectKey, Statuses: []types.UploadStatus{upload.Status}},
			map[string]any{"status": types.UploadStatusDeleted})
		if err != nil {
			return errors.Wrap(err, "could not delete file")
		}
		if !deleted {
			continue
		}

		fs.reaper.Remove(ctx, upload.ObjectKey, ReasonDeleted)
		fs.reaper.Remove(ctx, thumbnailOf(upload), ReasonDeleted)

		fs.audit.Record(ctx, upload.GetID(), scope.UserID, AuditActionDeleted, upload.ObjectKey)
		return nil
	}
	return errors.Wrapf(ErrConflict, "file %s", fileID)
}
