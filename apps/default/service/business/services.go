package business

import (
	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
)

// Dependencies are the collaborators shared by every business service.
type Dependencies struct {
	DB        *storage.Database
	Provider  storage.Provider
	Publisher Publisher
	Audit     AuditSink
	Config    *config.SlateDropConfig
}

func (d *Dependencies) auditor() *auditor {
	return &auditor{sink: d.Audit}
}

func (d *Dependencies) reaper() *objectReaper {
	return &objectReaper{
		provider:     d.Provider,
		orphans:      d.DB.Orphans,
		publisher:    d.Publisher,
		cleanupQueue: d.Config.QueueObjectsCleanupName,
	}
}

// Services bundles the business layer for the transport and the workers.
type Services struct {
	Provisioner FolderProvisioner
	Projects    ProjectService
	Artifacts   ArtifactWriter
	Uploads     UploadService
	Files       FileService
	Archives    Archiver
	Reconciler  Reconciler
}

func NewServices(deps *Dependencies) *Services {
	provisioner := NewFolderProvisioner(deps.DB)
	return &Services{
		Provisioner: provisioner,
		Projects:    NewProjectService(deps.DB, provisioner),
		Artifacts:   NewArtifactWriter(deps, provisioner),
		Uploads:     NewUploadService(deps),
		Files:       NewFileService(deps),
		Archives:    NewArchiver(deps),
		Reconciler:  NewReconciler(deps),
	}
}
