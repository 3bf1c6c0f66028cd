package business

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/pitabwire/util"
)

const (
	AuditActionArtifactSaved   = "artifact.saved"
	AuditActionUploadReserved  = "upload.reserved"
	AuditActionUploadCompleted = "upload.completed"
	AuditActionUploadExpired   = "upload.expired"
	AuditActionRenamed         = "file.renamed"
	AuditActionMoved           = "file.moved"
	AuditActionDeleted         = "file.deleted"
)

type auditor struct {
	sink AuditSink
}

// Record writes an audit row. Failures are logged and never surfaced.
func (a *auditor) Record(ctx context.Context, fileID, actorID, action, detail string) {
	if a == nil || a.sink == nil {
		return
	}

	err := a.sink.Save(ctx, &models.FileAudit{
		FileID:  fileID,
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
	})
	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("file_id", fileID).
			WithField("action", action).
			Warn("could not record file audit")
	}
}
