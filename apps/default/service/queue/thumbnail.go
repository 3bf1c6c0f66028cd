package queue

import (
	"context"
	"encoding/json"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/queue/thumbnailer"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ThumbnailQueueHandler generates the preview of an image upload.
// Payload: {"file_id": "..."}.
type ThumbnailQueueHandler struct {
	db       *storage.Database
	provider storage.Provider
	cfg      *config.SlateDropConfig
}

func NewThumbnailQueueHandler(db *storage.Database, provider storage.Provider, cfg *config.SlateDropConfig) ThumbnailQueueHandler {
	return ThumbnailQueueHandler{
		db:       db,
		provider: provider,
		cfg:      cfg,
	}
}

func (tq *ThumbnailQueueHandler) Handle(ctx context.Context, _ map[string]string, payload []byte) error {
	request := map[string]string{}
	err := json.Unmarshal(payload, &request)
	if err != nil {
		util.Log(ctx).WithError(err).Warn("dropping malformed thumbnail request")
		return nil
	}

	fileID := request["file_id"]
	logger := util.Log(ctx).WithField("file_id", fileID)

	upload, err := tq.db.Uploads.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("file no longer exists, skipping thumbnail")
			return nil
		}
		return err
	}

	if upload.Status != types.UploadStatusActive || !upload.IsImage() {
		return nil
	}
	sourceKey := upload.ObjectKey

	previewKey, err := thumbnailer.Generate(ctx, tq.provider, sourceKey, tq.cfg.Thumbnail(), tq.cfg.ThumbnailCrop)
	if err != nil {
		// a moved or deleted file has its own follow up request
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, thumbnailer.ErrUndecodable) {
			logger.WithError(err).Warn("skipping thumbnail")
			return nil
		}
		return err
	}

	attached, err := tq.db.Uploads.UpdateIf(ctx, fileID,
		repository.UploadGuard{ObjectKey: sourceKey, Statuses: []types.UploadStatus{types.UploadStatusActive}},
		map[string]any{"thumbnail_key": previewKey})
	if err != nil {
		return err
	}
	if !attached {
		logger.Debug("file changed while generating thumbnail, discarding")
		deleteErr := tq.provider.Delete(ctx, previewKey)
		if deleteErr != nil && !errors.Is(deleteErr, storage.ErrObjectNotFound) {
			logger.WithError(deleteErr).Warn("could not discard stale thumbnail")
		}
	}
	return nil
}
