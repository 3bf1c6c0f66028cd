package business

import (
	"context"
	"strings"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/antinvestor/service-slatedrop/apps/default/service/utils"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

type uploadService struct {
	deps  *Dependencies
	audit *auditor
}

func NewUploadService(deps *Dependencies) UploadService {
	return &uploadService{
		deps:  deps,
		audit: deps.auditor(),
	}
}

func validateSlot(req *SlotRequest) error {
	if req == nil {
		return invalidInput("upload request is required")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return invalidInput("filename is required")
	}
	if len(req.Filename) > maxDisplayNameLength {
		return invalidInput("filename is longer than %d bytes", maxDisplayNameLength)
	}
	if req.Size < 0 {
		return invalidInput("size may not be negative")
	}
	return nil
}

// reserve signs a write URL for a fresh key under the folder and records the
// pending row. The URL is signed first so a signing failure leaves nothing behind.
func (us *uploadService) reserve(ctx context.Context, folder *models.Folder, ns, createdBy string, req *SlotRequest) (*SlotResult, error) {
	key, err := keys.Build(ns, folder.GetID(), req.Filename, time.Now())
	if err != nil {
		return nil, invalidInput("upload key: %v", err)
	}
	if !keys.HasNamespace(key, folder.Namespace) {
		return nil, errors.Wrapf(ErrScopeViolation, "key %s", key)
	}

	ttl := us.deps.Config.UploadURLTTL
	putURL, err := us.deps.Provider.UploadURL(ctx, key, req.ContentType, ttl)
	if err != nil {
		return nil, objectStoreFailure(err, "sign upload url")
	}

	upload := &models.Upload{
		FolderID:    folder.GetID(),
		FolderPath:  folder.FolderPath,
		Name:        req.Filename,
		Size:        req.Size,
		ContentType: req.ContentType,
		Ext:         types.FileExtension(req.Filename),
		ObjectKey:   key,
		Namespace:   ns,
		CreatedBy:   createdBy,
		Status:      types.UploadStatusPending,
	}

	err = us.deps.DB.Uploads.Create(ctx, upload)
	if err != nil {
		return nil, errors.Wrap(err, "could not reserve upload")
	}

	us.audit.Record(ctx, upload.GetID(), createdBy, AuditActionUploadReserved, key)

	return &SlotResult{
		PutURL:    putURL,
		FileID:    upload.GetID(),
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (us *uploadService) RequestUploadSlot(ctx context.Context, scope *namespace.Scope, req *SlotRequest) (*SlotResult, error) {
	if err := validateSlot(req); err != nil {
		return nil, err
	}

	folder, err := loadFolder(ctx, us.deps.DB, scope, req.FolderID)
	if err != nil {
		return nil, err
	}

	return us.reserve(ctx, folder, scope.Namespace.String(), scope.UserID, req)
}

// activate flips a pending row once its object is present in the store.
// Completing an active row again is a no-op.
func (us *uploadService) activate(ctx context.Context, upload *models.Upload, actorID string) (*models.Upload, error) {
	switch upload.Status {
	case types.UploadStatusActive:
		return upload, nil
	case types.UploadStatusDeleted:
		return nil, errors.Wrap(ErrNotFound, "file")
	}

	exists, err := us.deps.Provider.Exists(ctx, upload.ObjectKey)
	if err != nil {
		return nil, objectStoreFailure(err, "check uploaded object")
	}
	if !exists {
		return nil, invalidInput("file %s has not been uploaded", upload.GetID())
	}

	activated, err := us.deps.DB.Uploads.UpdateIf(ctx, upload.GetID(),
		repository.UploadGuard{ObjectKey: upload.ObjectKey, Statuses: []types.UploadStatus{types.UploadStatusPending}},
		map[string]any{"status": types.UploadStatusActive})
	if err != nil {
		return nil, errors.Wrap(err, "could not complete upload")
	}
	if !activated {
		// a concurrent completion or the pending sweep got there first
		current, loadErr := us.deps.DB.Uploads.GetByID(ctx, upload.GetID())
		if loadErr != nil {
			return nil, lookupError(loadErr, "file")
		}
		if current.Status == types.UploadStatusActive {
			return current, nil
		}
		return nil, errors.Wrap(ErrNotFound, "file")
	}
	upload.Status = types.UploadStatusActive

	us.audit.Record(ctx, upload.GetID(), actorID, AuditActionUploadCompleted, upload.ObjectKey)
	publishThumbnail(ctx, us.deps, upload)

	return upload, nil
}

func (us *uploadService) CompleteUpload(ctx context.Context, scope *namespace.Scope, fileID string) (*models.Upload, error) {
	upload, err := loadUpload(ctx, us.deps.DB, scope, fileID)
	if err != nil {
		return nil, err
	}
	return us.activate(ctx, upload, scope.UserID)
}

func (us *uploadService) CreateShareLink(ctx context.Context, scope *namespace.Scope, folderID string, ttl time.Duration) (*models.ShareLink, error) {
	folder, err := loadFolder(ctx, us.deps.DB, scope, folderID)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = us.deps.Config.ShareLinkTTL
	}

	link := &models.ShareLink{
		Token:     utils.NewShareToken(),
		ProjectID: folder.ProjectID,
		FolderID:  folder.GetID(),
		Namespace: folder.Namespace,
		CreatedBy: scope.UserID,
		ExpiresAt: time.Now().Add(ttl),
	}

	err = us.deps.DB.ShareLinks.Create(ctx, link)
	if err != nil {
		return nil, errors.Wrap(err, "could not create share link")
	}
	return link, nil
}

// resolveLink returns a share link that is still valid. Every failure is
// reported as an invalid token so callers learn nothing about other tenants.
func (us *uploadService) resolveLink(ctx context.Context, token string) (*models.ShareLink, error) {
	if token == "" {
		return nil, ErrTokenExpiredOrInvalid
	}

	link, err := us.deps.DB.ShareLinks.GetByToken(ctx, token)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrTokenExpiredOrInvalid
		}
		return nil, errors.Wrap(err, "could not load share link")
	}

	if link.Expired(time.Now()) {
		return nil, errors.Wrap(ErrTokenExpiredOrInvalid, "share link expired")
	}
	return link, nil
}

func (us *uploadService) RequestSharedUploadSlot(ctx context.Context, token string, req *SlotRequest) (*SlotResult, error) {
	if err := validateSlot(req); err != nil {
		return nil, err
	}

	link, err := us.resolveLink(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.FolderID != "" && req.FolderID != link.FolderID {
		return nil, errors.Wrap(ErrTokenExpiredOrInvalid, "folder is not covered by the share link")
	}

	folder, err := us.deps.DB.Folders.GetByID(ctx, link.FolderID)
	if err != nil {
		return nil, lookupError(err, "folder")
	}
	if folder.Namespace != link.Namespace {
		return nil, errors.Wrap(ErrTokenExpiredOrInvalid, "share link namespace mismatch")
	}

	return us.reserve(ctx, folder, link.Namespace, link.CreatedBy, req)
}

// CompleteSharedUpload re-checks the token's expiry and that the file's key
// lies under the folder the token authorises before trusting the request.
func (us *uploadService) CompleteSharedUpload(ctx context.Context, token, fileID string) (*models.Upload, error) {
	link, err := us.resolveLink(ctx, token)
	if err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, invalidInput("file id is required")
	}

	upload, err := us.deps.DB.Uploads.GetByID(ctx, fileID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, errors.Wrap(ErrTokenExpiredOrInvalid, "file is not covered by the share link")
		}
		return nil, errors.Wrap(err, "could not load file")
	}

	authorised := keys.FolderPrefix(link.Namespace, link.FolderID)
	if upload.FolderID != link.FolderID ||
		upload.Namespace != link.Namespace ||
		!strings.HasPrefix(upload.ObjectKey, authorised) {
		util.Log(ctx).WithField("file_id", fileID).WithField("folder_id", link.FolderID).
			Warn("shared completion outside the authorised folder")
		return nil, errors.Wrap(ErrTokenExpiredOrInvalid, "file is not covered by the share link")
	}

	return us.activate(ctx, upload, link.CreatedBy)
}
