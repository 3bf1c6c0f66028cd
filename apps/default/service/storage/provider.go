package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// DefaultTimeout bounds every object store call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// Provider is the object store. It has no notion of folders or listing: all
// prefix filtering happens against the metadata store's copy of each key.
type Provider interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Write(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Copy(ctx context.Context, dstKey, srcKey string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	Close() error
}

// BlobProvider implements Provider over any gocloud bucket.
type BlobProvider struct {
	name     string
	bucket   *blob.Bucket
	timeout  time.Duration
	verifier SignedURLVerifier
}

func NewBlobProvider(name string, bucket *blob.Bucket, timeout time.Duration) *BlobProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BlobProvider{
		name:    name,
		bucket:  bucket,
		timeout: timeout,
	}
}

func (bp *BlobProvider) Name() string {
	return bp.name
}

func translate(err error, op, key string) error {
	if err == nil {
		return nil
	}
	if gcerrors.Code(err) == gcerrors.NotFound {
		return errors.Wrapf(ErrObjectNotFound, "%s %s", op, key)
	}
	return errors.Wrapf(err, "%s %s", op, key)
}

func (bp *BlobProvider) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return bp.Write(ctx, key, bytes.NewReader(data), contentType)
}

// Write streams r into key. Nothing is stored when r fails part way.
func (bp *BlobProvider) Write(ctx context.Context, key string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	w, err := bp.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return translate(err, "put", key)
	}

	_, err = io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return errors.Wrapf(err, "put %s", key)
	}

	return translate(w.Close(), "put", key)
}

// timedReader releases the call's timeout once the caller is done reading.
type timedReader struct {
	*blob.Reader
	cancel context.CancelFunc
}

func (tr *timedReader) Close() error {
	defer tr.cancel()
	return tr.Reader.Close()
}

func (bp *BlobProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)

	r, err := bp.bucket.NewReader(ctx, key, nil)
	if err != nil {
		cancel()
		return nil, translate(err, "open", key)
	}
	return &timedReader{Reader: r, cancel: cancel}, nil
}

func (bp *BlobProvider) Copy(ctx context.Context, dstKey, srcKey string) error {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	return translate(bp.bucket.Copy(ctx, dstKey, srcKey, nil), "copy", srcKey)
}

func (bp *BlobProvider) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	return translate(bp.bucket.Delete(ctx, key), "delete", key)
}

func (bp *BlobProvider) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	exists, err := bp.bucket.Exists(ctx, key)
	return exists, translate(err, "exists", key)
}

func (bp *BlobProvider) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	url, err := bp.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{
		Expiry: ttl,
		Method: http.MethodGet,
	})
	return url, translate(err, "sign get", key)
}

func (bp *BlobProvider) UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	url, err := bp.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{
		Expiry:      ttl,
		Method:      http.MethodPut,
		ContentType: contentType,
	})
	return url, translate(err, "sign put", key)
}

// WithVerifier attaches the verifier for URLs the service has to serve itself.
func (bp *BlobProvider) WithVerifier(verifier SignedURLVerifier) *BlobProvider {
	bp.verifier = verifier
	return bp
}

func (bp *BlobProvider) Verifier() SignedURLVerifier {
	return bp.verifier
}

func (bp *BlobProvider) Close() error {
	return bp.bucket.Close()
}
