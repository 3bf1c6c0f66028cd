package repository

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
)

type ShareLinkRepository interface {
	GetByToken(ctx context.Context, token string) (*models.ShareLink, error)
	Create(ctx context.Context, link *models.ShareLink) error
}

func NewShareLinkRepository(pool datastore.Pool) ShareLinkRepository {
	return &shareLinkRepository{pool: pool}
}

type shareLinkRepository struct {
	pool datastore.Pool
}

func (sr *shareLinkRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	link := &models.ShareLink{}
	err := sr.pool.DB(ctx, true).First(link, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (sr *shareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	return sr.pool.DB(ctx, false).Create(link).Error
}
