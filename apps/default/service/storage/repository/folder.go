package repository

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"gorm.io/gorm"
)

type FolderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Folder, error)
	CountByProject(ctx context.Context, projectID string) (int64, error)
	Create(ctx context.Context, folder *models.Folder) error
	CreateBatch(ctx context.Context, folders []*models.Folder) error
}

func NewFolderRepository(pool datastore.Pool) FolderRepository {
	return &folderRepository{pool: pool}
}

type folderRepository struct {
	pool datastore.Pool
}

func (fr *folderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	folder := &models.Folder{}
	err := fr.pool.DB(ctx, true).First(folder, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (fr *folderRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Folder, error) {
	var folders []*models.Folder
	err := fr.pool.DB(ctx, true).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").Order("id ASC").
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (fr *folderRepository) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := fr.pool.DB(ctx, true).Model(&models.Folder{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

func (fr *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	return fr.pool.DB(ctx, false).Create(folder).Error
}

// CreateBatch inserts all folders or none of them.
func (fr *folderRepository) CreateBatch(ctx context.Context, folders []*models.Folder) error {
	if len(folders) == 0 {
		return nil
	}
	return fr.pool.DB(ctx, false).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&folders).Error
	})
}
