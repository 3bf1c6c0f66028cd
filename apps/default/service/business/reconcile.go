package business

import (
	"context"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
)

const reconcileBatchSize = 100

type reconciler struct {
	deps   *Dependencies
	audit  *auditor
	reaper *objectReaper
}

func NewReconciler(deps *Dependencies) Reconciler {
	return &reconciler{
		deps:   deps,
		audit:  deps.auditor(),
		reaper: deps.reaper(),
	}
}

// SweepPending soft deletes pending uploads that were never completed within
// the pending TTL and removes whatever the client may have written.
func (r *reconciler) SweepPending(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.deps.Config.PendingUploadTTL)
	swept := 0

	for {
		pending, err := r.deps.DB.Uploads.ListPendingBefore(ctx, cutoff, reconcileBatchSize)
		if err != nil {
			return swept, errors.Wrap(err, "could not list pending uploads")
		}

		for _, upload := range pending {
			expired, updateErr := r.deps.DB.Uploads.UpdateIf(ctx, upload.GetID(),
				repository.UploadGuard{ObjectKey: upload.ObjectKey, Statuses: []types.UploadStatus{types.UploadStatusPending}},
				map[string]any{"status": types.UploadStatusDeleted})
			if updateErr != nil {
				return swept, errors.Wrapf(updateErr, "could not expire upload %s", upload.GetID())
			}
			if !expired {
				// completed since the batch was listed
				continue
			}

			r.reaper.Remove(ctx, upload.ObjectKey, ReasonPendingExpired)
			r.audit.Record(ctx, upload.GetID(), "", AuditActionUploadExpired, upload.ObjectKey)
			swept++
		}

		if len(pending) < reconcileBatchSize {
			return swept, nil
		}
	}
}

// RetryOrphans retries one batch of dead lettered object deletes.
func (r *reconciler) RetryOrphans(ctx context.Context) (int, error) {
	orphans, err := r.deps.DB.Orphans.List(ctx, reconcileBatchSize)
	if err != nil {
		return 0, errors.Wrap(err, "could not list orphaned objects")
	}

	cleared := 0
	for _, orphan := range orphans {
		deleteErr := r.deps.Provider.Delete(ctx, orphan.ObjectKey)
		if deleteErr != nil && !errors.Is(deleteErr, storage.ErrObjectNotFound) {
			markErr := r.deps.DB.Orphans.MarkAttempt(ctx, orphan, deleteErr)
			if markErr != nil {
				return cleared, errors.Wrap(markErr, "could not record delete attempt")
			}
			continue
		}

		err = r.deps.DB.Orphans.DeleteByKey(ctx, orphan.ObjectKey)
		if err != nil {
			return cleared, errors.Wrap(err, "could not clear orphaned object")
		}
		cleared++
	}
	return cleared, nil
}

// Run reconciles on every tick until ctx is done.
func (r *reconciler) Run(ctx context.Context, interval time.Duration) {
	logger := util.Log(ctx).WithField("interval", interval.String())
	if interval <= 0 {
		logger.Info("reconciler disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := r.SweepPending(ctx)
			if err != nil {
				logger.WithError(err).Warn("pending sweep failed")
			}

			cleared, err := r.RetryOrphans(ctx)
			if err != nil {
				logger.WithError(err).Warn("orphan retry failed")
			}

			if swept > 0 || cleared > 0 {
				logger.WithField("expired_uploads", swept).
					WithField("cleared_orphans", cleared).
					Info("reconciliation pass complete")
			}
		}
	}
}
