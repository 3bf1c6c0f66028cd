package business_test

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/tests"
	"github.com/klauspost/compress/zip"
)

func (suite *BusinessTestSuite) TestFolderArchive() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	photos := folderNamed(project.Folders, "Photos")

	suite.uploadFile(ctx, deps, svc, scope, photos.GetID(), "north.jpg", []byte("north"))
	suite.uploadFile(ctx, deps, svc, scope, photos.GetID(), "site.jpg", []byte("first"))
	suite.uploadFile(ctx, deps, svc, scope, photos.GetID(), "site.jpg", []byte("second"))
	lost := suite.uploadFile(ctx, deps, svc, scope, photos.GetID(), "lost.jpg", []byte("lost"))
	suite.Require().NoError(deps.Provider.Delete(ctx, lost.ObjectKey))

	archive, err := svc.Archives.PrepareFolderArchive(ctx, scope, photos.GetID())
	suite.Require().NoError(err)
	suite.Equal(3, archive.Len())
	suite.Equal(1, archive.Skipped)
	suite.Equal("Photos.zip", archive.Filename())

	buf := &bytes.Buffer{}
	suite.Require().NoError(archive.Write(buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	suite.Require().NoError(err)

	contents := make(map[string]string)
	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		rc, openErr := file.Open()
		suite.Require().NoError(openErr)
		data, readErr := io.ReadAll(rc)
		suite.Require().NoError(readErr)
		suite.Require().NoError(rc.Close())

		names = append(names, file.Name)
		contents[file.Name] = string(data)
	}

	sort.Strings(names)
	suite.Equal([]string{"north.jpg", "site (1).jpg", "site.jpg"}, names)
	suite.Equal("north", contents["north.jpg"])
	suite.ElementsMatch([]string{"first", "second"}, []string{contents["site.jpg"], contents["site (1).jpg"]})
}

func (suite *BusinessTestSuite) TestFolderArchiveCancelled() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()
	scope := tests.OrgScope("org-1", "user-1")

	project := suite.createProject(ctx, svc, scope, "Tower A")
	photos := folderNamed(project.Folders, "Photos")
	suite.uploadFile(ctx, deps, svc, scope, photos.GetID(), "north.jpg", []byte("north"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	archive, err := svc.Archives.PrepareFolderArchive(cancelled, scope, photos.GetID())
	suite.Error(err)
	suite.Nil(archive)
}

func (suite *BusinessTestSuite) TestFolderArchiveScope() {
	t := suite.T()
	ctx := context.Background()
	deps := suite.CreateDependencies(t)
	svc := deps.Business()

	project := suite.createProject(ctx, svc, tests.OrgScope("org-1", "user-1"), "Tower A")
	photos := folderNamed(project.Folders, "Photos")

	_, err := svc.Archives.PrepareFolderArchive(ctx, tests.OrgScope("org-2", "user-2"), photos.GetID())
	suite.ErrorIs(err, business.ErrScopeViolation)

	empty, err := svc.Archives.PrepareFolderArchive(ctx, tests.OrgScope("org-1", "user-3"), photos.GetID())
	suite.Require().NoError(err)
	suite.Zero(empty.Len())

	buf := &bytes.Buffer{}
	suite.Require().NoError(empty.Write(buf))
	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	suite.Require().NoError(err)
	suite.Empty(reader.File)
}
