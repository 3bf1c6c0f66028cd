package business

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

const (
	ReasonDeleted          = "deleted"
	ReasonMoveSource       = "move_source"
	ReasonMoveCompensation = "move_compensation"
	ReasonArtifactMetadata = "artifact_metadata"
	ReasonPendingExpired   = "pending_expired"
	ReasonStaleThumbnail   = "stale_thumbnail"
)

// objectReaper performs the best effort object deletes that follow a metadata
// change. The metadata is already authoritative, so a failed delete goes to the
// dead letter log and the cleanup queue instead of back to the caller.
type objectReaper struct {
	provider     storage.Provider
	orphans      repository.OrphanRepository
	publisher    Publisher
	cleanupQueue string
}

// Remove deletes key and reports whether the object is gone.
func (r *objectReaper) Remove(ctx context.Context, key, reason string) bool {
	if key == "" {
		return true
	}

	err := r.provider.Delete(ctx, key)
	if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
		return true
	}

	logger := util.Log(ctx).WithError(err).
		WithField("object_key", key).
		WithField("reason", reason)
	logger.Warn("object delete failed, dead lettering")

	recordErr := r.orphans.Record(ctx, key, reason, err)
	if recordErr != nil {
		logger.WithError(recordErr).Error("could not record orphaned object")
	}

	if r.publisher != nil && r.cleanupQueue != "" {
		pubErr := r.publisher.Publish(ctx, r.cleanupQueue, map[string]string{"object_key": key})
		if pubErr != nil {
			logger.WithError(pubErr).Warn("could not queue object cleanup")
		}
	}
	return false
}
