package business

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

type folderProvisioner struct {
	db *storage.Database
}

func NewFolderProvisioner(db *storage.Database) FolderProvisioner {
	return &folderProvisioner{db: db}
}

// Provision inserts the system folders of a project as a single batch. A
// project that already has any folder is treated as provisioned and its
// folders are returned unchanged.
func (fp *folderProvisioner) Provision(ctx context.Context, projectID, projectName, organizationID, userID string) ([]*models.Folder, error) {
	if projectID == "" || userID == "" {
		return nil, invalidInput("project and user are required to provision folders")
	}

	logger := util.Log(ctx).WithField("project_id", projectID)

	count, err := fp.db.Folders.CountByProject(ctx, projectID)
	if err != nil {
		return nil, errors.Wrapf(ErrProvisioningFailed, "count folders: %v", err)
	}

	if count > 0 {
		logger.WithField("folders", count).Debug("project already provisioned")
		existing, listErr := fp.db.Folders.ListByProject(ctx, projectID)
		if listErr != nil {
			return nil, errors.Wrapf(ErrProvisioningFailed, "list folders: %v", listErr)
		}
		return existing, nil
	}

	ns := namespace.Resolve(organizationID, userID)

	folders := make([]*models.Folder, 0, len(types.SystemFolderNames))
	for i, name := range types.SystemFolderNames {
		folders = append(folders, &models.Folder{
			ProjectID:  projectID,
			Name:       name,
			FolderPath: types.FolderPath(projectName, name),
			IsSystem:   true,
			SortOrder:  i,
			Namespace:  ns.String(),
			CreatedBy:  userID,
		})
	}

	err = fp.db.Folders.CreateBatch(ctx, folders)
	if err != nil {
		return nil, errors.Wrapf(ErrProvisioningFailed, "insert folders: %v", err)
	}

	logger.WithField("folders", len(folders)).Info("provisioned project folders")
	return folders, nil
}
