package repository

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
)

type FileAuditRepository interface {
	ListByFile(ctx context.Context, fileID string) ([]*models.FileAudit, error)
	Save(ctx context.Context, audit *models.FileAudit) error
}

func NewFileAuditRepository(pool datastore.Pool) FileAuditRepository {
	return &fileAuditRepository{pool: pool}
}

type fileAuditRepository struct {
	pool datastore.Pool
}

func (far *fileAuditRepository) ListByFile(ctx context.Context, fileID string) ([]*models.FileAudit, error) {
	audits := make([]*models.FileAudit, 0)
	err := far.pool.DB(ctx, true).
		Where("file_id = ?", fileID).
		Order("created_at ASC").Order("id ASC").
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}

func (far *fileAuditRepository) Save(ctx context.Context, audit *models.FileAudit) error {
	return far.pool.DB(ctx, false).Save(audit).Error
}
