package repository

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
}

func NewProjectRepository(pool datastore.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

type projectRepository struct {
	pool datastore.Pool
}

func (pr *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	project := &models.Project{}
	err := pr.pool.DB(ctx, true).First(project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (pr *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return pr.pool.DB(ctx, false).Create(project).Error
}

// Delete removes a project row outright. It is only used to roll back a
// project whose folder taxonomy could not be provisioned.
func (pr *projectRepository) Delete(ctx context.Context, id string) error {
	return pr.pool.DB(ctx, false).Unscoped().Delete(&models.Project{}, "id = ?", id).Error
}
