package mem

import (
	"context"

	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

// ProviderMem holds objects in process memory. It cannot sign URLs.
type ProviderMem struct{}

func (provider *ProviderMem) Name() string {
	return "MEM"
}

func (provider *ProviderMem) Setup(_ context.Context) error {
	return nil
}

func (provider *ProviderMem) Init(_ context.Context) (*blob.Bucket, error) {
	return memblob.OpenBucket(nil), nil
}

func NewProvider() *ProviderMem {
	return &ProviderMem{}
}
