package business

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/klauspost/compress/zip"
	"github.com/pitabwire/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const defaultArchiveConcurrency = 4

type archiver struct {
	files *fileService
}

func NewArchiver(deps *Dependencies) Archiver {
	return &archiver{files: NewFileService(deps).(*fileService)}
}

// PrepareFolderArchive fetches the active files of a folder concurrently.
// Files that cannot be fetched are skipped: the archive is best effort.
func (a *archiver) PrepareFolderArchive(ctx context.Context, scope *namespace.Scope, folderID string) (*Archive, error) {
	deps := a.files.deps

	folder, err := loadFolder(ctx, deps.DB, scope, folderID)
	if err != nil {
		return nil, err
	}

	filter, err := a.files.folderFilter(ctx, scope, folder)
	if err != nil {
		return nil, err
	}
	filter.OrderBy = types.OrderByName
	filter.Limit = deps.Config.ArchiveMaxFiles

	uploads, err := deps.DB.Uploads.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "could not list files")
	}

	concurrency := deps.Config.ArchiveFetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultArchiveConcurrency
	}

	logger := util.Log(ctx).WithField("folder_id", folderID)

	// A file that cannot be fetched is skipped and counted; only cancellation
	// fails the archive.
	fetched := make([][]byte, len(uploads))
	group := &errgroup.Group{}
	group.SetLimit(concurrency)
	for i, upload := range uploads {
		group.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			data, fetchErr := a.fetch(ctx, upload.ObjectKey)
			if fetchErr != nil {
				logger.WithError(fetchErr).WithField("file_id", upload.GetID()).
					Warn("skipping file that could not be fetched")
				return nil
			}
			fetched[i] = data
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, errors.Wrap(err, "archive cancelled")
	}

	archive := &Archive{FolderName: folder.Name}
	names := make(map[string]bool)
	for i, upload := range uploads {
		if fetched[i] == nil {
			archive.Skipped++
			continue
		}
		archive.entries = append(archive.entries, archiveEntry{
			name:     uniqueEntryName(names, keys.SanitizeFilename(upload.Name)),
			modified: upload.CreatedAt,
			data:     fetched[i],
		})
	}

	logger.WithField("files", len(archive.entries)).WithField("skipped", archive.Skipped).
		Debug("folder archive prepared")
	return archive, nil
}

func (a *archiver) fetch(ctx context.Context, key string) ([]byte, error) {
	reader, err := a.files.deps.Provider.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer util.CloseAndLogOnError(ctx, reader)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// uniqueEntryName suffixes repeated names as "name (1).ext", "name (2).ext".
func uniqueEntryName(taken map[string]bool, name string) string {
	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
	taken[candidate] = true
	return candidate
}

// Len is the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Filename is the download name of the archive.
func (a *Archive) Filename() string {
	return keys.SanitizeFilename(a.FolderName) + ".zip"
}

// Write streams the archive as a deflate compressed zip.
func (a *Archive) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, entry := range a.entries {
		header := &zip.FileHeader{
			Name:     entry.name,
			Method:   zip.Deflate,
			Modified: entry.modified,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return errors.Wrapf(err, "could not add %s", entry.name)
		}
		_, err = fw.Write(entry.data)
		if err != nil {
			return errors.Wrapf(err, "could not write %s", entry.name)
		}
	}

	return zw.Close()
}
