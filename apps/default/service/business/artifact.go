package business

import (
	"context"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/antinvestor/service-slatedrop/apps/default/service/utils"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

type artifactWriter struct {
	deps        *Dependencies
	provisioner FolderProvisioner
	audit       *auditor
	reaper      *objectReaper
}

func NewArtifactWriter(deps *Dependencies, provisioner FolderProvisioner) ArtifactWriter {
	return &artifactWriter{
		deps:        deps,
		provisioner: provisioner,
		audit:       deps.auditor(),
		reaper:      deps.reaper(),
	}
}

func (aw *artifactWriter) validate(req *ArtifactRequest) error {
	if req == nil {
		return invalidInput("artifact is required")
	}
	if _, err := types.ParseArtifactKind(string(req.Kind)); err != nil {
		return invalidInput("unknown artifact kind %q", req.Kind)
	}
	if req.Filename == "" {
		return invalidInput("artifact filename is required")
	}
	if len(req.Data) == 0 {
		return invalidInput("artifact is empty")
	}
	if limit := aw.deps.Config.MaxArtifactSizeBytes; limit > 0 && int64(len(req.Data)) > limit {
		return invalidInput("artifact exceeds %d bytes", limit)
	}
	return nil
}

// destination finds the system folder an artifact kind is filed in,
// provisioning the project first when its taxonomy is missing.
func (aw *artifactWriter) destination(ctx context.Context, scope *namespace.Scope, project *models.Project, folderName string) (*models.Folder, error) {
	folders, err := aw.deps.DB.Folders.ListByProject(ctx, project.GetID())
	if err != nil {
		return nil, errors.Wrap(err, "could not list folders")
	}

	if len(folders) == 0 {
		folders, err = aw.provisioner.Provision(ctx, project.GetID(), project.Name, scope.OrganizationID, scope.UserID)
		if err != nil {
			return nil, err
		}
	}

	for _, folder := range folders {
		if folder.IsSystem && folder.Name == folderName {
			return folder, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "system folder %q", folderName)
}

// SaveArtifact writes the object first and the metadata row second. Artifacts
// are complete on arrival so the row is created active.
func (aw *artifactWriter) SaveArtifact(ctx context.Context, scope *namespace.Scope, req *ArtifactRequest) (*ArtifactResult, error) {
	if err := aw.validate(req); err != nil {
		return nil, err
	}

	project, err := loadProject(ctx, aw.deps.DB, scope, req.ProjectID)
	if err != nil {
		return nil, err
	}

	folderName := req.Kind.FolderName()
	folder, err := aw.destination(ctx, scope, project, folderName)
	if err != nil {
		return nil, err
	}

	ns := scope.Namespace.String()
	key, err := keys.Build(ns, keys.ArtifactToken(project.Name, folderName), req.Filename, time.Now())
	if err != nil {
		return nil, invalidInput("artifact key: %v", err)
	}
	if !keys.HasNamespace(key, ns) {
		return nil, errors.Wrapf(ErrScopeViolation, "key %s", key)
	}

	logger := util.Log(ctx).WithField("project_id", project.GetID()).WithField("object_key", key)

	err = aw.deps.Provider.Put(ctx, key, req.Data, req.ContentType)
	if err != nil {
		return nil, objectStoreFailure(err, "write artifact")
	}

	upload := &models.Upload{
		FolderID:     folder.GetID(),
		FolderPath:   folder.FolderPath,
		Name:         req.Filename,
		Size:         int64(len(req.Data)),
		ContentType:  req.ContentType,
		Ext:          types.FileExtension(req.Filename),
		ObjectKey:    key,
		Namespace:    ns,
		CreatedBy:    scope.UserID,
		Status:       types.UploadStatusActive,
		ArtifactKind: string(req.Kind),
		Checksum:     utils.CreateHash(req.Data),
	}

	err = aw.deps.DB.Uploads.Create(ctx, upload)
	if err != nil {
		logger.WithError(err).Error("artifact metadata insert failed, removing object")
		aw.reaper.Remove(ctx, key, ReasonArtifactMetadata)
		return nil, errors.Wrap(err, "could not record artifact")
	}

	aw.audit.Record(ctx, upload.GetID(), scope.UserID, AuditActionArtifactSaved, string(req.Kind))
	publishThumbnail(ctx, aw.deps, upload)

	logger.WithField("file_id", upload.GetID()).Info("artifact saved")
	return &ArtifactResult{Upload: upload, FolderName: folderName, Key: key}, nil
}

// publishThumbnail queues preview generation for image uploads.
func publishThumbnail(ctx context.Context, deps *Dependencies, upload *models.Upload) {
	if deps.Publisher == nil || !upload.IsImage() {
		return
	}

	err := deps.Publisher.Publish(ctx, deps.Config.QueueThumbnailsGenerateName, map[string]string{
		"file_id": upload.GetID(),
	})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("file_id", upload.GetID()).
			Warn("could not queue thumbnail generation")
	}
}
