package business_test

import (
	"context"
	"strings"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/keys"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/models"
	"github.com/antinvestor/service-slatedrop/apps/default/service/tests"
	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
)

func (suite *BusinessTestSuite) TestUploadSlotLifecycle() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	photos := folderNamed(project.Folders, "Photos")

	slot, err := svc.Uploads.RequestUploadSlot(ctx, scope, &business.SlotRequest{
		Filename:    "site.png",
		ContentType: "image/png",
		Size:        3,
		FolderID:    photos.GetID(),
	})
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(slot.Key, keys.FolderPrefix("org-1", photos.GetID())))
	suite.WithinDuration(time.Now().Add(deps.Config.UploadURLTTL), slot.ExpiresAt, time.Minute)

	pending, err := deps.DB.Uploads.GetByID(ctx, slot.FileID)
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusPending, pending.Status)
	suite.Equal(photos.FolderPath, pending.FolderPath)

	files, err := svc.Files.ListFiles(ctx, scope, photos.GetID(), nil)
	suite.Require().NoError(err)
	suite.Empty(files)

	files, err = svc.Files.ListFiles(ctx, scope, photos.GetID(), &business.ListOptions{IncludePending: true})
	suite.Require().NoError(err)
	suite.Len(files, 1)

	_, err = svc.Uploads.CompleteUpload(ctx, scope, slot.FileID)
	suite.ErrorIs(err, business.ErrInvalidInput, "completion requires the object to exist")

	suite.Require().NoError(deps.Provider.Put(ctx, slot.Key, []byte("png"), "image/png"))

	completed, err := svc.Uploads.CompleteUpload(ctx, scope, slot.FileID)
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusActive, completed.Status)

	again, err := svc.Uploads.CompleteUpload(ctx, scope, slot.FileID)
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusActive, again.Status)

	suite.Len(deps.Publisher.Messages(deps.Config.QueueThumbnailsGenerateName), 1)

	_, err = svc.Uploads.CompleteUpload(ctx, tests.OrgScope("org-2", "user-2"), slot.FileID)
	suite.ErrorIs(err, business.ErrScopeViolation)

	_, err = svc.Uploads.CompleteUpload(ctx, scope, "missing")
	suite.ErrorIs(err, business.ErrNotFound)
}

func (suite *BusinessTestSuite) TestUploadSlotValidation() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")

	testCases := []struct {
		name    string
		scope   bool
		req     *business.SlotRequest
		wantErr error
	}{
		{name: "missing filename", scope: true, req: &business.SlotRequest{FolderID: docs.GetID()}, wantErr: business.ErrInvalidInput},
		{name: "negative size", scope: true, req: &business.SlotRequest{Filename: "a.txt", Size: -1, FolderID: docs.GetID()}, wantErr: business.ErrInvalidInput},
		{name: "missing folder", scope: true, req: &business.SlotRequest{Filename: "a.txt"}, wantErr: business.ErrInvalidInput},
		{name: "unknown folder", scope: true, req: &business.SlotRequest{Filename: "a.txt", FolderID: "nope"}, wantErr: business.ErrNotFound},
		{name: "no principal", scope: false, req: &business.SlotRequest{Filename: "a.txt", FolderID: docs.GetID()}, wantErr: business.ErrUnauthenticated},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			callScope := scope
			if !tc.scope {
				callScope = nil
			}
			_, err := svc.Uploads.RequestUploadSlot(ctx, callScope, tc.req)
			suite.ErrorIs(err, tc.wantErr)
		})
	}
}

func (suite *BusinessTestSuite) TestSharedUpload() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.SoloScope("owner")

	project := suite.createProject(ctx, svc, scope, "Barn")
	submittals := folderNamed(project.Folders, "Submittals")
	schedule := folderNamed(project.Folders, "Schedule")

	link, err := svc.Uploads.CreateShareLink(ctx, scope, submittals.GetID(), 0)
	suite.Require().NoError(err)
	suite.Len(link.Token, 40)
	suite.WithinDuration(time.Now().Add(deps.Config.ShareLinkTTL), link.ExpiresAt, time.Minute)

	slot, err := svc.Uploads.RequestSharedUploadSlot(ctx, link.Token, &business.SlotRequest{
		Filename:    "shop drawing.pdf",
		ContentType: "application/pdf",
		Size:        4,
	})
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(slot.Key, keys.FolderPrefix("owner", submittals.GetID())))

	suite.Require().NoError(deps.Provider.Put(ctx, slot.Key, []byte("%PDF"), "application/pdf"))

	upload, err := svc.Uploads.CompleteSharedUpload(ctx, link.Token, slot.FileID)
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusActive, upload.Status)
	suite.Equal("owner", upload.CreatedBy)

	files, err := svc.Files.ListFiles(ctx, scope, submittals.GetID(), nil)
	suite.Require().NoError(err)
	suite.Len(files, 1)

	_, err = svc.Uploads.RequestSharedUploadSlot(ctx, link.Token, &business.SlotRequest{
		Filename: "sneaky.pdf",
		FolderID: schedule.GetID(),
	})
	suite.ErrorIs(err, business.ErrTokenExpiredOrInvalid)

	other := suite.uploadFile(ctx, deps, svc, scope, schedule.GetID(), "plan.pdf", []byte("plan"))
	_, err = svc.Uploads.CompleteSharedUpload(ctx, link.Token, other.GetID())
	suite.ErrorIs(err, business.ErrTokenExpiredOrInvalid)

	_, err = svc.Uploads.RequestSharedUploadSlot(ctx, "not-a-token", &business.SlotRequest{Filename: "a.pdf"})
	suite.ErrorIs(err, business.ErrTokenExpiredOrInvalid)

	_, err = svc.Uploads.CompleteSharedUpload(ctx, link.Token, "missing")
	suite.ErrorIs(err, business.ErrTokenExpiredOrInvalid)
}

func (suite *BusinessTestSuite) TestExpiredShareLink() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	docs := folderNamed(project.Folders, "Documents")

	link, err := svc.Uploads.CreateShareLink(ctx, scope, docs.GetID(), time.Hour)
	suite.Require().NoError(err)

	slot, err := svc.Uploads.RequestSharedUploadSlot(ctx, link.Token, &business.SlotRequest{Filename: "late.pdf"})
	suite.Require().NoError(err)
	suite.Require().NoError(deps.Provider.Put(ctx, slot.Key, []byte("late"), "application/pdf"))

	expired := &models.ShareLink{}
	suite.Require().NoError(deps.Pool.DB(ctx, false).First(expired, "token = ?", link.Token).Error)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	suite.Require().NoError(deps.Pool.DB(ctx, false).Save(expired).Error)

	_, err = svc.Uploads.CompleteSharedUpload(ctx, link.Token, slot.FileID)
	suite.ErrorIs(err, business.ErrTokenExpiredOrInvalid)

	pending, err := deps.DB.Uploads.GetByID(ctx, slot.FileID)
	suite.Require().NoError(err)
	suite.Equal(types.UploadStatusPending, pending.Status)
}
