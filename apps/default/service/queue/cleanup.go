package queue

import (
	"context"
	"encoding/json"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

// ReasonQueueRetry marks dead letters updated by the cleanup consumer.
const ReasonQueueRetry = "queue_retry"

// CleanupQueueHandler deletes objects whose metadata is already gone.
// Payload: {"object_key": "..."}.
type CleanupQueueHandler struct {
	db       *storage.Database
	provider storage.Provider
}

func NewCleanupQueueHandler(db *storage.Database, provider storage.Provider) CleanupQueueHandler {
	return CleanupQueueHandler{
		db:       db,
		provider: provider,
	}
}

func (cq *CleanupQueueHandler) Handle(ctx context.Context, _ map[string]string, payload []byte) error {
	request := map[string]string{}
	err := json.Unmarshal(payload, &request)
	if err != nil || request["object_key"] == "" {
		util.Log(ctx).WithField("payload", string(payload)).Warn("dropping malformed cleanup request")
		return nil
	}

	key := request["object_key"]
	logger := util.Log(ctx).WithField("object_key", key)

	err = cq.provider.Delete(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		recordErr := cq.db.Orphans.Record(ctx, key, ReasonQueueRetry, err)
		if recordErr != nil {
			logger.WithError(recordErr).Error("could not record orphaned object")
		}
		return err
	}

	err = cq.db.Orphans.DeleteByKey(ctx, key)
	if err != nil {
		return err
	}

	logger.Debug("orphaned object removed")
	return nil
}
