package business_test

import (
	"context"
	"strings"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/mocks"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/tests"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

func (suite *BusinessTestSuite) TestListFilesViewersAndOrdering() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	drawings := folderNamed(project.Folders, "Drawings")

	suite.uploadFile(ctx, deps, svc, scope, drawings.GetID(), "b-plan.pdf", []byte("pdf"))
	suite.uploadFile(ctx, deps, svc, scope, drawings.GetID(), "a-site.jpg", []byte("jpg"))
	suite.uploadFile(ctx, deps, svc, scope, drawings.GetID(), "c-notes.txt", []byte("txt"))

	testCases := []struct {
		name  string
		opts  *business.ListOptions
		names []string
	}{
		{
			name:  "by name",
			opts:  &business.ListOptions{OrderBy: types.OrderByName},
			names: []string{"a-site.jpg", "b-plan.pdf", "c-notes.txt"},
		},
		{
			name:  "photo viewer",
			opts:  &business.ListOptions{Viewer: "photos", OrderBy: types.OrderByName},
			names: []string{"a-site.jpg"},
		},
		{
			name:  "drawing viewer",
			opts:  &business.ListOptions{Viewer: "drawings", OrderBy: types.OrderByName},
			names: []string{"a-site.jpg", "b-plan.pdf"},
		},
		{
			name:  "paged",
			opts:  &business.ListOptions{OrderBy: types.OrderByName, Limit: 1, Offset: 1},
			names: []string{"b-plan.pdf"},
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			files, err := svc.Files.ListFiles(ctx, scope, drawings.GetID(), tc.opts)
			suite.Require().NoError(err)

			names := make([]string, 0, len(files))
			for _, file := range files {
				names = append(names, file.Name)
			}
			suite.Equal(tc.names, names)
		})
	}
}

func (suite *BusinessTestSuite) TestRecentProjectFiles() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")
	photos := folderNamed(project.Folders, "Photos")

	suite.uploadFile(ctx, deps, svc, scope, docs.GetID(), "first.txt", []byte("1"))
	suite.uploadFile(ctx, deps, svc, scope, photos.GetID(), "second.jpg", []byte("2"))
	_, err := svc.Artifacts.SaveArtifact(ctx, scope, &business.ArtifactRequest{
		ProjectID: project.Project.GetID(),
		Kind:      types.ArtifactCorrespondence,
		Filename:  "third.pdf",
		Data:      []byte("3"),
	})
	suite.Require().NoError(err)

	recent, err := svc.Files.RecentProjectFiles(ctx, scope, project.Project.GetID(), 2)
	suite.Require().NoError(err)
	suite.Require().Len(recent, 2)
	suite.Equal("third.pdf", recent[0].Name)
	suite.Equal("second.jpg", recent[1].Name)

	all, err := svc.Files.RecentProjectFiles(ctx, scope, project.Project.GetID(), 0)
	suite.Require().NoError(err)
	suite.Len(all, 3)
}

func (suite *BusinessTestSuite) TestDownloadURL() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")
	upload := suite.uploadFile(ctx, deps, svc, scope, docs.GetID(), "spec.pdf", []byte("spec"))

	result, err := svc.Files.DownloadURL(ctx, scope, upload.GetID())
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(result.URL, deps.Config.LocalURLSigningBase))

	pending, err := svc.Uploads.RequestUploadSlot(ctx, scope, &business.SlotRequest{Filename: "later.pdf", FolderID: docs.GetID()})
	suite.Require().NoError(err)
	_, err = svc.Files.DownloadURL(ctx, scope, pending.FileID)
	suite.ErrorIs(err, business.ErrNotFound)
}

func (suite *BusinessTestSuite) TestRenameKeepsKey() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")
	upload := suite.uploadFile(ctx, deps, svc, scope, docs.GetID(), "draft.docx", []byte("draft"))

	renamed, err := svc.Files.Rename(ctx, scope, upload.GetID(), "Final Contract.docx")
	suite.Require().NoError(err)
	suite.Equal("Final Contract.docx", renamed.Name)
	suite.Equal(upload.ObjectKey, renamed.ObjectKey)

	_, err = svc.Files.Rename(ctx, scope, upload.GetID(), "")
	suite.ErrorIs(err, business.ErrInvalidInput)

	audits, err := deps.DB.Audits.ListByFile(ctx, upload.GetID())
	suite.Require().NoError(err)
	actions := make([]string, 0, len(audits))
	for _, audit := range audits {
		actions = append(actions, audit.Action)
	}
	suite.Contains(actions, business.AuditActionRenamed)
}

func (suite *BusinessTestSuite) TestMoveConsistency() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	drawings := folderNamed(project.Folders, "Drawings")
	photos := folderNamed(project.Folders, "Photos")

	upload := suite.uploadFile(ctx, deps, svc, scope, drawings.GetID(), "elevation.pdf", []byte("elevation"))
	oldKey := upload.ObjectKey

	moved, err := svc.Files.Move(ctx, scope, upload.GetID(), photos.GetID())
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(moved.ObjectKey, keys.FolderPrefix("org-1", photos.GetID())))
	suite.True(strings.HasSuffix(moved.ObjectKey, "_elevation.pdf"))
	suite.Equal(photos.GetID(), moved.FolderID)
	suite.Equal(photos.FolderPath, moved.FolderPath)

	exists, err := deps.Provider.Exists(ctx, oldKey)
	suite.Require().NoError(err)
	suite.False(exists)

	exists, err = deps.Provider.Exists(ctx, moved.ObjectKey)
	suite.Require().NoError(err)
	suite.True(exists)

	inPhotos, err := svc.Files.ListFiles(ctx, scope, photos.GetID(), nil)
	suite.Require().NoError(err)
	suite.Len(inPhotos, 1)

	inDrawings, err := svc.Files.ListFiles(ctx, scope, drawings.GetID(), nil)
	suite.Require().NoError(err)
	suite.Empty(inDrawings)
}

func (suite *BusinessTestSuite) TestMoveArtifactOutOfSystemFolder() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	budget := folderNamed(project.Folders, "Budget")
	misc := folderNamed(project.Folders, "Misc")

	result, err := svc.Artifacts.SaveArtifact(ctx, scope, &business.ArtifactRequest{
		ProjectID: project.Project.GetID(),
		Kind:      types.ArtifactBudget,
		Filename:  "q3.xlsx",
		Data:      []byte("numbers"),
	})
	suite.Require().NoError(err)

	moved, err := svc.Files.Move(ctx, scope, result.Upload.GetID(), misc.GetID())
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(moved.ObjectKey, keys.FolderPrefix("org-1", misc.GetID())))

	inBudget, err := svc.Files.ListFiles(ctx, scope, budget.GetID(), nil)
	suite.Require().NoError(err)
	suite.Empty(inBudget)
}

func (suite *BusinessTestSuite) TestMoveCopyFailureKeepsMetadata() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	scope := tests.OrgScope("org-1", "user-1")
	base := deps.Business()

	project := suite.createProject(ctx, base, scope, "Tower A")
	drawings := folderNamed(project.Folders, "Drawings")
	photos := folderNamed(project.Folders, "Photos")
	upload := suite.uploadFile(ctx, deps, base, scope, drawings.GetID(), "section.pdf", []byte("section"))

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Copy(gomock.Any(), gomock.Any(), upload.ObjectKey).Return(errors.New("copy refused"))

	svc := deps.WithProvider(provider).Business()
	_, err := svc.Files.Move(ctx, scope, upload.GetID(), photos.GetID())
	suite.ErrorIs(err, business.ErrObjectStoreFailure)

	stored, err := deps.DB.Uploads.GetByID(ctx, upload.GetID())
	suite.Require().NoError(err)
	suite.Equal(upload.ObjectKey, stored.ObjectKey)
	suite.Equal(drawings.GetID(), stored.FolderID)
}

func (suite *BusinessTestSuite) TestMoveDeadLettersSourceDeleteFailure() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	scope := tests.OrgScope("org-1", "user-1")
	base := deps.Business()

	project := suite.createProject(ctx, base, scope, "Tower A")
	drawings := folderNamed(project.Folders, "Drawings")
	photos := folderNamed(project.Folders, "Photos")
	upload := suite.uploadFile(ctx, deps, base, scope, drawings.GetID(), "detail.pdf", []byte("detail"))
	oldKey := upload.ObjectKey

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	gomock.InOrder(
		provider.EXPECT().Copy(gomock.Any(), gomock.Any(), oldKey).Return(nil),
		provider.EXPECT().Delete(gomock.Any(), oldKey).Return(errors.New("delete refused")),
	)

	svc := deps.WithProvider(provider).Business()
	moved, err := svc.Files.Move(ctx, scope, upload.GetID(), photos.GetID())
	suite.Require().NoError(err)
	suite.Equal(photos.GetID(), moved.FolderID)

	orphans, err := deps.DB.Orphans.List(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(orphans, 1)
	suite.Equal(oldKey, orphans[0].ObjectKey)
	suite.Equal(business.ReasonMoveSource, orphans[0].Reason)

	cleanups := deps.Publisher.Messages(deps.Config.QueueObjectsCleanupName)
	suite.Require().Len(cleanups, 1)
	suite.Equal(oldKey, cleanups[0]["object_key"])
}

func (suite *BusinessTestSuite) TestMoveOfFileDeletedMidCopy() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	drawings := folderNamed(project.Folders, "Drawings")
	photos := folderNamed(project.Folders, "Photos")
	upload := suite.uploadFile(ctx, deps, svc, scope, drawings.GetID(), "level-2.pdf", []byte("level 2"))

	var copyKey string
	hooked := &tests.HookedProvider{Provider: deps.Provider}
	hooked.BeforeCopy = func(dstKey, _ string) {
		copyKey = dstKey
		suite.Require().NoError(svc.Files.Delete(ctx, scope, upload.GetID()))
	}

	_, err := deps.WithProvider(hooked).Business().Files.Move(ctx, scope, upload.GetID(), photos.GetID())
	suite.ErrorIs(err, business.ErrConflict)

	stored, err := deps.DB.Uploads.GetByID(ctx, upload.GetID())
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusDeleted, stored.Status)
	suite.Equal(upload.ObjectKey, stored.ObjectKey)

	suite.Require().NotEmpty(copyKey)
	exists, err := deps.Provider.Exists(ctx, copyKey)
	suite.Require().NoError(err)
	suite.False(exists, "the copy of a file deleted mid move is removed")
}

func (suite *BusinessTestSuite) TestSoftDelete() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")
	upload := suite.uploadFile(ctx, deps, svc, scope, docs.GetID(), "old.pdf", []byte("old"))

	suite.Require().NoError(svc.Files.Delete(ctx, scope, upload.GetID()))

	files, err := svc.Files.ListFiles(ctx, scope, docs.GetID(), &business.ListOptions{IncludePending: true})
	suite.Require().NoError(err)
	suite.Empty(files)

	stored, err := deps.DB.Uploads.GetByID(ctx, upload.GetID())
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusDeleted, stored.Status)

	exists, err := deps.Provider.Exists(ctx, upload.ObjectKey)
	suite.Require().NoError(err)
	suite.False(exists)

	suite.NoError(svc.Files.Delete(ctx, scope, upload.GetID()), "second delete is a no-op")

	_, err = svc.Files.DownloadURL(ctx, scope, upload.GetID())
	suite.ErrorIs(err, business.ErrNotFound)

	suite.ErrorIs(svc.Files.Delete(ctx, scope, "missing"), business.ErrNotFound)
}

func (suite *BusinessTestSuite) TestDeleteSwallowsObjectStoreFailure() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	scope := tests.OrgScope("org-1", "user-1")
	base := deps.Business()

	project := suite.createProject(ctx, base, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")
	upload := suite.uploadFile(ctx, deps, base, scope, docs.GetID(), "stuck.pdf", []byte("stuck"))

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Delete(gomock.Any(), upload.ObjectKey).Return(errors.New("store offline"))

	svc := deps.WithProvider(provider).Business()
	suite.Require().NoError(svc.Files.Delete(ctx, scope, upload.GetID()))

	stored, err := deps.DB.Uploads.GetByID(ctx, upload.GetID())
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusDeleted, stored.Status)

	orphans, err := deps.DB.Orphans.List(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(orphans, 1)
	suite.Equal(upload.ObjectKey, orphans[0].ObjectKey)
	suite.Equal(1, orphans[0].Attempts)

	suite.Len(deps.Publisher.Messages(deps.Config.QueueObjectsCleanupName), 1)

	var audit models.FileAudit
	suite.Require().NoError(deps.Pool.DB(ctx, true).
		First(&audit, "file_id = ? AND action = ?", upload.GetID(), business.AuditActionDeleted).Error)
}
