package business

import (
	"context"
	"strings"

	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

const maxDisplayNameLength = 255

type projectService struct {
	db          *storage.Database
	provisioner FolderProvisioner
}

func NewProjectService(db *storage.Database, provisioner FolderProvisioner) ProjectService {
	return &projectService{
		db:          db,
		provisioner: provisioner,
	}
}

func validateDisplayName(name, what string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidInput("%s name is required", what)
	}
	if len(name) > maxDisplayNameLength {
		return "", invalidInput("%s name is longer than %d bytes", what, maxDisplayNameLength)
	}
	return name, nil
}

// CreateProject inserts the project and its folder taxonomy. A project whose
// provisioning fails is removed again so no project exists without folders.
func (ps *projectService) CreateProject(ctx context.Context, scope *namespace.Scope, name string) (*ProjectResult, error) {
	if err := requireScope(scope); err != nil {
		return nil, err
	}

	name, err := validateDisplayName(name, "project")
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:      name,
		Namespace: scope.Namespace.String(),
		CreatedBy: scope.UserID,
	}

	err = ps.db.Projects.Create(ctx, project)
	if err != nil {
		return nil, errors.Wrap(err, "could not create project")
	}

	folders, err := ps.provisioner.Provision(ctx, project.GetID(), project.Name, scope.OrganizationID, scope.UserID)
	if err != nil {
		logger := util.Log(ctx).WithError(err).WithField("project_id", project.GetID())
		logger.Warn("provisioning failed, rolling back project")

		deleteErr := ps.db.Projects.Delete(ctx, project.GetID())
		if deleteErr != nil {
			logger.WithError(deleteErr).Error("could not roll back project")
		}
		return nil, err
	}

	return &ProjectResult{Project: project, Folders: folders}, nil
}

func (ps *projectService) ListFolders(ctx context.Context, scope *namespace.Scope, projectID string) ([]*models.Folder, error) {
	project, err := loadProject(ctx, ps.db, scope, projectID)
	if err != nil {
		return nil, err
	}

	folders, err := ps.db.Folders.ListByProject(ctx, project.GetID())
	if err != nil {
		return nil, errors.Wrap(err, "could not list folders")
	}
	return folders, nil
}

// CreateFolder adds a user folder after the existing folders of the project.
func (ps *projectService) CreateFolder(ctx context.Context, scope *namespace.Scope, projectID, name string) (*models.Folder, error) {
	project, err := loadProject(ctx, ps.db, scope, projectID)
	if err != nil {
		return nil, err
	}

	name, err = validateDisplayName(name, "folder")
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(name, "/\\") {
		return nil, invalidInput("folder name may not contain path separators")
	}

	existing, err := ps.db.Folders.ListByProject(ctx, project.GetID())
	if err != nil {
		return nil, errors.Wrap(err, "could not list folders")
	}

	sortOrder := 0
	for _, folder := range existing {
		if strings.EqualFold(folder.Name, name) {
			return nil, invalidInput("folder %q already exists", name)
		}
		if folder.SortOrder >= sortOrder {
			sortOrder = folder.SortOrder + 1
		}
	}

	folder := &models.Folder{
		ProjectID:  project.GetID(),
		Name:       name,
		FolderPath: types.FolderPath(project.Name, name),
		IsSystem:   false,
		SortOrder:  sortOrder,
		Namespace:  project.Namespace,
		CreatedBy:  scope.UserID,
	}

	err = ps.db.Folders.Create(ctx, folder)
	if err != nil {
		return nil, errors.Wrap(err, "could not create folder")
	}
	return folder, nil
}
