package datastore

import (
	"context"

	"gorm.io/gorm"
)

// Pool hands out database handles. Read only handles may point at a replica.
// The frame service satisfies this interface.
type Pool interface {
	DB(ctx context.Context, readOnly bool) *gorm.DB
}

type singlePool struct {
	db *gorm.DB
}

// NewPool wraps a single connection used for both reads and writes.
func NewPool(db *gorm.DB) Pool {
	return &singlePool{db: db}
}

func (p *singlePool) DB(ctx context.Context, _ bool) *gorm.DB {
	return p.db.WithContext(ctx)
}
