package repository

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
)

// Migrate creates or updates the tables of every metadata model.
func Migrate(ctx context.Context, pool datastore.Pool) error {
	return pool.DB(ctx, false).AutoMigrate(models.All()...)
}
