package repository

import (
	"context"
	"errors"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"gorm.io/gorm"
)

// OrphanRepository is the dead letter log of objects that still need deleting.
type OrphanRepository interface {
	Record(ctx context.Context, objectKey, reason string, cause error) error
	List(ctx context.Context, limit int) ([]*models.OrphanedObject, error)
	MarkAttempt(ctx context.Context, orphan *models.OrphanedObject, cause error) error
	DeleteByKey(ctx context.Context, objectKey string) error
}

func NewOrphanRepository(pool datastore.Pool) OrphanRepository {
	return &orphanRepository{pool: pool}
}

type orphanRepository struct {
	pool datastore.Pool
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (or *orphanRepository) Record(ctx context.Context, objectKey, reason string, cause error) error {
	db := or.pool.DB(ctx, false)

	orphan := &models.OrphanedObject{}
	err := db.First(orphan, "object_key = ?", objectKey).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return db.Create(&models.OrphanedObject{
			ObjectKey: objectKey,
			Reason:    reason,
			Attempts:  1,
			LastError: errorText(cause),
		}).Error
	}

	return or.MarkAttempt(ctx, orphan, cause)
}

func (or *orphanRepository) List(ctx context.Context, limit int) ([]*models.OrphanedObject, error) {
	orphans := make([]*models.OrphanedObject, 0)
	tx := or.pool.DB(ctx, true).Order("modified_at ASC").Order("id ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Find(&orphans).Error
	if err != nil {
		return nil, err
	}
	return orphans, nil
}

func (or *orphanRepository) MarkAttempt(ctx context.Context, orphan *models.OrphanedObject, cause error) error {
	orphan.Attempts++
	orphan.LastError = errorText(cause)
	return or.pool.DB(ctx, false).Save(orphan).Error
}

func (or *orphanRepository) DeleteByKey(ctx context.Context, objectKey string) error {
	return or.pool.DB(ctx, false).Unscoped().Delete(&models.OrphanedObject{}, "object_key = ?", objectKey).Error
}
