package tests

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/business"
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/datastore"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/provider"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type BaseTestSuite struct {
	suite.Suite
}

// Dependencies is everything a test needs to drive the business layer
// against a private database and bucket.
type Dependencies struct {
	Pool      datastore.Pool
	DB        *storage.Database
	Provider  storage.Provider
	Publisher *RecordingPublisher
	Config    *config.SlateDropConfig
}

// Business wires the business layer over the test dependencies.
func (d *Dependencies) Business() *business.Services {
	return business.NewServices(d.BusinessDependencies())
}

func (d *Dependencies) BusinessDependencies() *business.Dependencies {
	return &business.Dependencies{
		DB:        d.DB,
		Provider:  d.Provider,
		Publisher: d.Publisher,
		Audit:     d.DB.Audits,
		Config:    d.Config,
	}
}

// WithProvider returns a copy that talks to another object store.
func (d *Dependencies) WithProvider(p storage.Provider) *Dependencies {
	clone := *d
	clone.Provider = p
	return &clone
}

// TestConfig is the service configuration used by tests, rooted in dir.
func TestConfig(dir string) *config.SlateDropConfig {
	return &config.SlateDropConfig{
		StorageProvider:             "LOCAL",
		LocalStorageDirectory:       dir,
		LocalURLSigningBase:         "http://localhost:8080/v1/blobs",
		URLSigningSecret:            "test-signing-secret",
		ObjectStoreTimeout:          5 * time.Second,
		UploadURLTTL:                15 * time.Minute,
		DownloadURLTTL:              5 * time.Minute,
		ShareLinkTTL:                time.Hour,
		PendingUploadTTL:            24 * time.Hour,
		ReconcileInterval:           time.Minute,
		ArchiveMaxFiles:             50,
		ArchiveFetchConcurrency:     4,
		MaxArtifactSizeBytes:        config.DefaultMaxArtifactSizeBytes,
		MaxUploadSizeBytes:          1 << 20,
		QueueThumbnailsGenerateName: "thumbnails_generate",
		QueueObjectsCleanupName:     "objects_cleanup",
		ThumbnailWidth:              64,
		ThumbnailHeight:             64,
	}
}

// OpenDatabase opens a private in memory database with every table migrated.
func OpenDatabase(t *testing.T) datastore.Pool {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	pool := datastore.NewPool(db)
	require.NoError(t, repository.Migrate(context.Background(), pool))
	return pool
}

// CreateDependencies provisions a fresh database and a file backed bucket.
func (bs *BaseTestSuite) CreateDependencies(t *testing.T) *Dependencies {
	cfg := TestConfig(t.TempDir())

	storageProvider, err := provider.GetStorageProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storageProvider.Close()
	})

	pool := OpenDatabase(t)
	return &Dependencies{
		Pool:      pool,
		DB:        storage.NewDatabase(pool),
		Provider:  storageProvider,
		Publisher: &RecordingPublisher{},
		Config:    cfg,
	}
}

// OrgScope is a member of organization orgID.
func OrgScope(orgID, userID string) *namespace.Scope {
	return namespace.NewStaticScope(orgID, userID)
}

// SoloScope is a user without an organization.
func SoloScope(userID string) *namespace.Scope {
	return namespace.NewStaticScope("", userID)
}

// PublishedMessage is a payload captured by RecordingPublisher.
type PublishedMessage struct {
	Queue   string
	Payload any
}

// RecordingPublisher keeps every published message in memory.
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
	Err      error
}

func (rp *RecordingPublisher) Publish(_ context.Context, queue string, payload any) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.Err != nil {
		return rp.Err
	}
	rp.messages = append(rp.messages, PublishedMessage{Queue: queue, Payload: payload})
	return nil
}

// Messages returns the payloads published to queue, in order.
func (rp *RecordingPublisher) Messages(queue string) []map[string]string {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	out := make([]map[string]string, 0)
	for _, msg := range rp.messages {
		if msg.Queue != queue {
			continue
		}
		if payload, ok := msg.Payload.(map[string]string); ok {
			out = append(out, payload)
		}
	}
	return out
}

// HookedProvider runs a one shot callback before selected object store calls
// so a test can slip a second request in while the first is in flight.
type HookedProvider struct {
	storage.Provider

	BeforePut    func(key string)
	BeforeCopy   func(dstKey, srcKey string)
	BeforeDelete func(key string)
}

func (hp *HookedProvider) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if hook := hp.BeforePut; hook != nil {
		hp.BeforePut = nil
		hook(key)
	}
	return hp.Provider.Put(ctx, key, data, contentType)
}

func (hp *HookedProvider) Copy(ctx context.Context, dstKey, srcKey string) error {
	if hook := hp.BeforeCopy; hook != nil {
		hp.BeforeCopy = nil
		hook(dstKey, srcKey)
	}
	return hp.Provider.Copy(ctx, dstKey, srcKey)
}

func (hp *HookedProvider) Delete(ctx context.Context, key string) error {
	if hook := hp.BeforeDelete; hook != nil {
		hp.BeforeDelete = nil
		hook(key)
	}
	return hp.Provider.Delete(ctx, key)
}
