package config

import (
	"time"

	"github.com/pitabwire/frame"
)

// ThumbnailSize bounds the generated preview for image uploads.
type ThumbnailSize struct {
	Width  int
	Height int
}

// DefaultMaxArtifactSizeBytes limits server side artifact uploads to 50MB.
const DefaultMaxArtifactSizeBytes = int64(52428800)

// DefaultMaxUploadSizeBytes limits locally served signed uploads to 5GB.
const DefaultMaxUploadSizeBytes = int64(5368709120)

type SlateDropConfig struct {
	frame.ConfigurationDefault

	StorageProvider       string `envDefault:"LOCAL" env:"STORAGE_PROVIDER"`
	LocalStorageDirectory string `envDefault:"/tmp/slatedrop" env:"LOCAL_STORAGE_DIRECTORY"`
	// Base URL that local signed URLs are rooted at.
	LocalURLSigningBase string `envDefault:"http://localhost:8080/v1/blobs" env:"LOCAL_URL_SIGNING_BASE"`
	URLSigningSecret    string `envDefault:"slatedrop-local-signing-secret" env:"URL_SIGNING_SECRET"`

	StorageBucket             string `envDefault:"slatedrop" env:"STORAGE_BUCKET"`
	ProviderS3Endpoint        string `envDefault:"" env:"S3_ENDPOINT"`
	ProviderS3Region          string `envDefault:"us-east-1" env:"S3_REGION"`
	ProviderS3AccessKeySecret string `envDefault:"" env:"S3_ACCESS_KEY_SECRET"`
	ProviderS3SessionToken    string `envDefault:"" env:"S3_SESSION_TOKEN"`
	ProviderS3AccessKeyID     string `envDefault:"" env:"S3_ACCESS_KEY_ID"`
	// Service account that signs GCS URLs through IAM when the credentials carry no key.
	GCSSigningAccount string `envDefault:"" env:"GCS_SIGNING_ACCOUNT"`

	ObjectStoreTimeout time.Duration `envDefault:"30s" env:"OBJECT_STORE_TIMEOUT"`
	UploadURLTTL       time.Duration `envDefault:"15m" env:"UPLOAD_URL_TTL"`
	DownloadURLTTL     time.Duration `envDefault:"5m" env:"DOWNLOAD_URL_TTL"`
	ShareLinkTTL       time.Duration `envDefault:"168h" env:"SHARE_LINK_TTL"`
	PendingUploadTTL   time.Duration `envDefault:"24h" env:"PENDING_UPLOAD_TTL"`
	ReconcileInterval  time.Duration `envDefault:"10m" env:"RECONCILE_INTERVAL"`

	ArchiveMaxFiles         int   `envDefault:"500" env:"ARCHIVE_MAX_FILES"`
	ArchiveFetchConcurrency int   `envDefault:"8" env:"ARCHIVE_FETCH_CONCURRENCY"`
	MaxArtifactSizeBytes    int64 `envDefault:"52428800" env:"MAX_ARTIFACT_SIZE_BYTES"`
	// Largest body accepted on a locally served signed upload URL.
	MaxUploadSizeBytes int64 `envDefault:"5368709120" env:"MAX_UPLOAD_SIZE_BYTES"`

	QueueThumbnailsGenerateURL  string `envDefault:"mem://thumbnails_generate" env:"QUEUE_THUMBNAILS_GENERATE_URL"`
	QueueThumbnailsGenerateName string `envDefault:"thumbnails_generate" env:"QUEUE_THUMBNAILS_GENERATE_NAME"`
	QueueObjectsCleanupURL      string `envDefault:"mem://objects_cleanup" env:"QUEUE_OBJECTS_CLEANUP_URL"`
	QueueObjectsCleanupName     string `envDefault:"objects_cleanup" env:"QUEUE_OBJECTS_CLEANUP_NAME"`

	ThumbnailWidth  int `envDefault:"320" env:"THUMBNAIL_WIDTH"`
	ThumbnailHeight int `envDefault:"320" env:"THUMBNAIL_HEIGHT"`
	// Fill the bounds and cut the excess instead of fitting inside them.
	ThumbnailCrop bool `envDefault:"false" env:"THUMBNAIL_CROP"`
}

// Thumbnail returns the configured preview bounds.
func (c *SlateDropConfig) Thumbnail() ThumbnailSize {
	return ThumbnailSize{Width: c.ThumbnailWidth, Height: c.ThumbnailHeight}
}
