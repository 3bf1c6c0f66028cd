package local

import (
	"context"
	"net/url"
	"os"

	"github.com/antinvestor/service-slatedrop/apps/default/service/storage"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

// ProviderLocal keeps objects on the local filesystem. Signed URLs are HMAC
// signed against a configured base URL that this service answers itself.
type ProviderLocal struct {
	directory string
	signBase  string
	secret    string
	signer    *fileblob.URLSignerHMAC
}

func (provider *ProviderLocal) Name() string {
	return "LOCAL"
}

func (provider *ProviderLocal) Setup(_ context.Context) error {
	base, err := url.Parse(provider.signBase)
	if err != nil {
		return errors.Wrap(err, "invalid url signing base")
	}
	if provider.secret == "" {
		return errors.New("local storage needs a url signing secret")
	}
	provider.signer = fileblob.NewURLSignerHMAC(base, []byte(provider.secret))

	return os.MkdirAll(provider.directory, 0755)
}

func (provider *ProviderLocal) Init(_ context.Context) (*blob.Bucket, error) {
	return fileblob.OpenBucket(provider.directory, &fileblob.Options{
		URLSigner: provider.signer,
		CreateDir: true,
	})
}

// Verifier checks the URLs signed for this bucket.
func (provider *ProviderLocal) Verifier() storage.SignedURLVerifier {
	return provider.signer
}

func NewProvider(directory, signBase, secret string) *ProviderLocal {
	return &ProviderLocal{
		directory: directory,
		signBase:  signBase,
		secret:    secret,
	}
}
