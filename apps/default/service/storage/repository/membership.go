package repository

import (
	"context"
	"errors"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"gorm.io/gorm"
)

type MembershipRepository interface {
	OrganizationForUser(ctx context.Context, userID string) (string, error)
	Save(ctx context.Context, member *models.OrganizationMember) error
}

func NewMembershipRepository(pool datastore.Pool) MembershipRepository {
	return &membershipRepository{pool: pool}
}

type membershipRepository struct {
	pool datastore.Pool
}

// OrganizationForUser returns an empty id for users without an organization.
func (mr *membershipRepository) OrganizationForUser(ctx context.Context, userID string) (string, error) {
	member := &models.OrganizationMember{}
	err := mr.pool.DB(ctx, true).First(member, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return member.OrganizationID, nil
}

func (mr *membershipRepository) Save(ctx context.Context, member *models.OrganizationMember) error {
	return mr.pool.DB(ctx, false).Save(member).Error
}
