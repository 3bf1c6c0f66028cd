package storage

import (
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
)

// Database groups the metadata repositories that share one connection pool.
type Database struct {
	Projects   repository.ProjectRepository
	Folders    repository.FolderRepository
	Uploads    repository.UploadRepository
	Members    repository.MembershipRepository
	ShareLinks repository.ShareLinkRepository
	Orphans    repository.OrphanRepository
	Audits     repository.FileAuditRepository
}

// NewDatabase binds every repository to the given pool.
func NewDatabase(pool datastore.Pool) *Database {
	return &Database{
		Projects:   repository.NewProjectRepository(pool),
		Folders:    repository.NewFolderRepository(pool),
		Uploads:    repository.NewUploadRepository(pool),
		Members:    repository.NewMembershipRepository(pool),
		ShareLinks: repository.NewShareLinkRepository(pool),
		Orphans:    repository.NewOrphanRepository(pool),
		Audits:     repository.NewFileAuditRepository(pool),
	}
}
