package business_test

import (
	"context"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/mocks"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/tests"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

func (suite *BusinessTestSuite) TestSweepPending() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")

	done := suite.uploadFile(ctx, deps, svc, scope, docs.GetID(), "done.pdf", []byte("done"))
	abandoned, err := svc.Uploads.RequestUploadSlot(ctx, scope, &business.SlotRequest{Filename: "abandoned.pdf", FolderID: docs.GetID()})
	suite.Require().NoError(err)

	swept, err := svc.Reconciler.SweepPending(ctx)
	suite.Require().NoError(err)
	suite.Zero(swept, "fresh reservations are kept")

	deps.Config.PendingUploadTTL = -time.Hour
	swept, err = svc.Reconciler.SweepPending(ctx)
	suite.Require().NoError(err)
	suite.Equal(1, swept)

	stored, err := deps.DB.Uploads.GetByID(ctx, abandoned.FileID)
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusDeleted, stored.Status)

	kept, err := deps.DB.Uploads.GetByID(ctx, done.GetID())
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusActive, kept.Status)

	_, err = svc.Uploads.CompleteUpload(ctx, scope, abandoned.FileID)
	suite.Error(err)
}

func (suite *BusinessTestSuite) TestSweepSkipsUploadsCompletedMidSweep() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")

	slots := make([]*business.SlotResult, 0, 2)
	for _, name := range []string{"first.pdf", "second.pdf"} {
		slot, err := svc.Uploads.RequestUploadSlot(ctx, scope, &business.SlotRequest{Filename: name, FolderID: docs.GetID()})
		suite.Require().NoError(err)
		suite.Require().NoError(deps.Provider.Put(ctx, slot.Key, []byte(name), "application/pdf"))
		slots = append(slots, slot)
	}

	var completed *models.Upload
	hooked := &tests.HookedProvider{Provider: deps.Provider}
	hooked.BeforeDelete = func(key string) {
		other := slots[1]
		if key == other.Key {
			other = slots[0]
		}
		upload, err := svc.Uploads.CompleteUpload(ctx, scope, other.FileID)
		suite.Require().NoError(err)
		completed = upload
	}

	deps.Config.PendingUploadTTL = -time.Hour
	swept, err := deps.WithProvider(hooked).Business().Reconciler.SweepPending(ctx)
	suite.Require().NoError(err)
	suite.Equal(1, swept)

	suite.Require().NotNil(completed)
	suite.Equal(types.UploadStatusActive, completed.Status)

	stored, err := deps.DB.Uploads.GetByID(ctx, completed.GetID())
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusActive, stored.Status)

	exists, err := deps.Provider.Exists(ctx, completed.ObjectKey)
	suite.Require().NoError(err)
	suite.True(exists, "a completed upload keeps its object")
}

func (suite *BusinessTestSuite) TestRetryOrphans() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)

	suite.Require().NoError(deps.Provider.Put(ctx, "org-1/folder/stale.pdf", []byte("stale"), "application/pdf"))
	suite.Require().NoError(deps.DB.Orphans.Record(ctx, "org-1/folder/stale.pdf", business.ReasonDeleted, errors.New("timeout")))
	suite.Require().NoError(deps.DB.Orphans.Record(ctx, "org-1/folder/gone.pdf", business.ReasonDeleted, errors.New("timeout")))

	cleared, err := deps.Business().Reconciler.RetryOrphans(ctx)
	suite.Require().NoError(err)
	suite.Equal(2, cleared)

	exists, err := deps.Provider.Exists(ctx, "org-1/folder/stale.pdf")
	suite.Require().NoError(err)
	suite.False(exists)

	orphans, err := deps.DB.Orphans.List(ctx, 10)
	suite.Require().NoError(err)
	suite.Empty(orphans)
}

func (suite *BusinessTestSuite) TestRetryOrphansCountsFailedAttempts() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)

	suite.Require().NoError(deps.DB.Orphans.Record(ctx, "org-1/folder/stuck.pdf", business.ReasonMoveSource, errors.New("timeout")))

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().Delete(gomock.Any(), "org-1/folder/stuck.pdf").Return(errors.New("still offline"))

	cleared, err := deps.WithProvider(provider).Business().Reconciler.RetryOrphans(ctx)
	suite.Require().NoError(err)
	suite.Zero(cleared)

	orphans, err := deps.DB.Orphans.List(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(orphans, 1)
	suite.Equal(2, orphans[0].Attempts)
	suite.Equal("still offline", orphans[0].LastError)
}

func (suite *BusinessTestSuite) TestReconcilerStopsWithContext() {
	deps := suite.CreateDependencies(suite.T())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		deps.Business().Reconciler.Run(ctx, 10*time.Millisecond)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		suite.Fail("reconciler did not stop")
	}
}
