package provider

import (
	"context"

	"github.com/antinvestor/service-slatedrop/apps/default/config"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/provider/gcs"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/provider/local"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/provider/mem"
	"github.com/antinvestor/service-slatedrop/apps/default/service/storage/provider/s3"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
)

// BucketOpener prepares a backend and opens the bucket it serves.
type BucketOpener interface {
	Name() string
	Setup(ctx context.Context) error
	Init(ctx context.Context) (*blob.Bucket, error)
}

func opener(cfg *config.SlateDropConfig) BucketOpener {
	switch cfg.StorageProvider {
	case "GCS":
		return gcs.NewProvider(cfg.StorageBucket, cfg.GCSSigningAccount)

	case "S3":
		return s3.NewProvider(cfg.StorageBucket,
			cfg.ProviderS3Endpoint, cfg.ProviderS3Region, cfg.ProviderS3AccessKeySecret,
			cfg.ProviderS3SessionToken, cfg.ProviderS3AccessKeyID)

	case "MEM":
		return mem.NewProvider()

	default:
		return local.NewProvider(cfg.LocalStorageDirectory, cfg.LocalURLSigningBase, cfg.URLSigningSecret)
	}
}

func GetStorageProvider(ctx context.Context, cfg *config.SlateDropConfig) (storage.Provider, error) {
	bo := opener(cfg)

	err := bo.Setup(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "setup %s storage", bo.Name())
	}

	bucket, err := bo.Init(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s bucket", bo.Name())
	}

	blobProvider := storage.NewBlobProvider(bo.Name(), bucket, cfg.ObjectStoreTimeout)
	if signing, ok := bo.(interface{ Verifier() storage.SignedURLVerifier }); ok {
		blobProvider.WithVerifier(signing.Verifier())
	}
	return blobProvider, nil
}
