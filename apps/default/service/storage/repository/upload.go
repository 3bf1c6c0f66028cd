package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"gorm.io/gorm"
)

// ErrUnscopedQuery is returned for listings that carry no namespace predicate.
var ErrUnscopedQuery = errors.New("upload listing requires a namespace")

// UploadFilter narrows an upload listing. Prefixes are OR'd together, every
// other predicate is AND'd.
type UploadFilter struct {
	Namespace     string
	CreatedBy     string
	FolderID      string
	Prefixes      []string
	Statuses      []types.UploadStatus
	ExcludeStatus types.UploadStatus
	Extensions    []string
	OrderBy       types.OrderBy
	Limit         int
	Offset        int
}

type UploadRepository interface {
	GetByID(ctx context.Context, id string) (*models.Upload, error)
	List(ctx context.Context, filter UploadFilter) ([]*models.Upload, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Upload, error)
	Create(ctx context.Context, upload *models.Upload) error
	UpdateIf(ctx context.Context, id string, guard UploadGuard, changes map[string]any) (bool, error)
}

// UploadGuard is the state a conditional update expects the row to still be
// in. Empty fields are not checked.
type UploadGuard struct {
	ObjectKey string
	Statuses  []types.UploadStatus
}

func NewUploadRepository(pool datastore.Pool) UploadRepository {
	return &uploadRepository{pool: pool}
}

type uploadRepository struct {
	pool datastore.Pool
}

// EscapeLike escapes the LIKE wildcards in a literal prefix.
func EscapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func (ur *uploadRepository) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	upload := &models.Upload{}
	err := ur.pool.DB(ctx, true).First(upload, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return upload, nil
}

func (ur *uploadRepository) List(ctx context.Context, filter UploadFilter) ([]*models.Upload, error) {
	if filter.Namespace == "" {
		return nil, ErrUnscopedQuery
	}

	tx := ur.pool.DB(ctx, true).Where("namespace = ?", filter.Namespace)

	if filter.CreatedBy != "" {
		tx = tx.Where("created_by = ?", filter.CreatedBy)
	}

	if filter.FolderID != "" {
		tx = tx.Where("folder_id = ?", filter.FolderID)
	}

	if len(filter.Prefixes) > 0 {
		clauses := make([]string, 0, len(filter.Prefixes))
		args := make([]any, 0, len(filter.Prefixes))
		for _, prefix := range filter.Prefixes {
			clauses = append(clauses, `object_key LIKE ? ESCAPE '\'`)
			args = append(args, EscapeLike(prefix)+"%")
		}
		tx = tx.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	if len(filter.Statuses) > 0 {
		tx = tx.Where("status IN ?", filter.Statuses)
	}

	if filter.ExcludeStatus != "" {
		tx = tx.Where("status <> ?", filter.ExcludeStatus)
	}

	if len(filter.Extensions) > 0 {
		tx = tx.Where("ext IN ?", filter.Extensions)
	}

	switch filter.OrderBy {
	case types.OrderByName:
		tx = tx.Order("name ASC").Order("id ASC")
	default:
		tx = tx.Order("created_at DESC").Order("id DESC")
	}

	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}

	uploads := make([]*models.Upload, 0)
	err := tx.Find(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (ur *uploadRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Upload, error) {
	uploads := make([]*models.Upload, 0)
	tx := ur.pool.DB(ctx, true).
		Where("status = ?", types.UploadStatusPending).
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	err := tx.Find(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (ur *uploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	return ur.pool.DB(ctx, false).Create(upload).Error
}

// UpdateIf writes changes only while the row still matches guard and reports
// whether a row was updated. Concurrent writers that already moved the row on
// leave it untouched.
func (ur *uploadRepository) UpdateIf(ctx context.Context, id string, guard UploadGuard, changes map[string]any) (bool, error) {
	columns := make(map[string]any, len(changes)+2)
	for column, value := range changes {
		columns[column] = value
	}
	columns["modified_at"] = time.Now()
	columns["version"] = gorm.Expr("version + 1")

	tx := ur.pool.DB(ctx, false).Model(&models.Upload{}).Where("id = ?", id)
	if guard.ObjectKey != "" {
		tx = tx.Where("object_key = ?", guard.ObjectKey)
	}
	if len(guard.Statuses) > 0 {
		tx = tx.Where("status IN ?", guard.Statuses)
	}

	result := tx.UpdateColumns(columns)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
