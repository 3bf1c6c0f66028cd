package business_test

import (
	"context"
	"strings"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/mocks"
	"github.com/antinvestor/service-slatedrop/apps/default/service/tests"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

func (suite *BusinessTestSuite) TestSaveArtifact() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")

	testCases := []struct {
		name       string
		kind       types.ArtifactKind
		filename   string
		folderName string
		wantErr    error
	}{
		{name: "daily log", kind: types.ArtifactDailyLog, filename: "log-2024-05-01.pdf", folderName: "Daily Logs"},
		{name: "punch list files under closeout", kind: types.ArtifactPunchList, filename: "punch.pdf", folderName: "Closeout"},
		{name: "rfi", kind: types.ArtifactRFI, filename: "rfi 12.pdf", folderName: "RFIs"},
		{name: "unknown kind", kind: types.ArtifactKind("invoice"), filename: "x.pdf", wantErr: business.ErrInvalidInput},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			result, err := svc.Artifacts.SaveArtifact(ctx, scope, &business.ArtifactRequest{
				ProjectID:   project.Project.GetID(),
				Kind:        tc.kind,
				Filename:    tc.filename,
				ContentType: "application/pdf",
				Data:        []byte("%PDF-1.4 " + tc.name),
			})
			if tc.wantErr != nil {
				suite.ErrorIs(err, tc.wantErr)
				return
			}
			suite.Require().NoError(err)

			suite.Equal(tc.folderName, result.FolderName)
			suite.True(strings.HasPrefix(result.Key, "orgs/org-1/Projects/Tower A/"+tc.folderName+"/"))
			suite.Equal(types.UploadStatusActive, result.Upload.Status)
			suite.Equal(string(tc.kind), result.Upload.ArtifactKind)
			suite.NotEmpty(result.Upload.Checksum)

			exists, err := deps.Provider.Exists(ctx, result.Key)
			suite.Require().NoError(err)
			suite.True(exists)

			folder := folderNamed(project.Folders, tc.folderName)
			files, err := svc.Files.ListFiles(ctx, scope, folder.GetID(), nil)
			suite.Require().NoError(err)
			suite.NotEmpty(files)
		})
	}
}

func (suite *BusinessTestSuite) TestSaveArtifactQueuesThumbnailForImages() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")

	result, err := svc.Artifacts.SaveArtifact(ctx, scope, &business.ArtifactRequest{
		ProjectID:   project.Project.GetID(),
		Kind:        types.ArtifactPhoto,
		Filename:    "slab.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("not really a jpeg"),
	})
	suite.Require().NoError(err)

	messages := deps.Publisher.Messages(deps.Config.QueueThumbnailsGenerateName)
	suite.Require().Len(messages, 1)
	suite.Equal(result.Upload.GetID(), messages[0]["file_id"])
}

func (suite *BusinessTestSuite) TestSaveArtifactRejectsOversizedPayloads() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	deps.Config.MaxArtifactSizeBytes = 4
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")

	_, err := svc.Artifacts.SaveArtifact(ctx, scope, &business.ArtifactRequest{
		ProjectID: project.Project.GetID(),
		Kind:      types.ArtifactBudget,
		Filename:  "budget.xlsx",
		Data:      []byte("too large"),
	})
	suite.ErrorIs(err, business.ErrInvalidInput)
}

func (suite *BusinessTestSuite) TestSaveArtifactObjectFailureLeavesNoRow() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, deps.Business(), scope, "Tower A")

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("bucket unavailable"))

	svc := deps.WithProvider(provider).Business()
	_, err := svc.Artifacts.SaveArtifact(ctx, scope, &business.ArtifactRequest{
		ProjectID: project.Project.GetID(),
		Kind:      types.ArtifactSchedule,
		Filename:  "schedule.pdf",
		Data:      []byte("gantt"),
	})
	suite.ErrorIs(err, business.ErrObjectStoreFailure)

	schedule := folderNamed(project.Folders, "Schedule")
	files, err := svc.Files.ListFiles(ctx, scope, schedule.GetID(), &business.ListOptions{IncludePending: true})
	suite.Require().NoError(err)
	suite.Empty(files)
}
