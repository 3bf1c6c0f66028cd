package gcs

import (
	"context"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcp"
	"golang.org/x/oauth2/google"
)

// ErrNoSigner is returned when neither a service account key nor a signing
// account is available, since every upload slot needs a signed URL.
var ErrNoSigner = errors.New("gcs signed urls need service account key credentials or GCS_SIGNING_ACCOUNT")

type ProviderGCS struct {
	bucket         string
	signingAccount string
	client         *gcp.HTTPClient
	options        *gcsblob.Options
}

func (provider *ProviderGCS) Name() string {
	return "GCS"
}

func (provider *ProviderGCS) Setup(ctx context.Context) error {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return err
	}

	provider.client, err = gcp.NewHTTPClient(
		gcp.DefaultTransport(),
		gcp.CredentialsTokenSource(creds))
	if err != nil {
		return err
	}

	provider.options, err = signingOptions(ctx, creds.JSON, provider.signingAccount)
	return err
}

func (provider *ProviderGCS) Init(ctx context.Context) (*blob.Bucket, error) {
	return gcsblob.OpenBucket(ctx, provider.client, provider.bucket, provider.options)
}

// signingOptions lets the bucket sign URLs. A service account key signs
// locally; any other credential signs through the IAM credentials API as the
// configured account, which needs roles/iam.serviceAccountTokenCreator.
func signingOptions(ctx context.Context, credentialsJSON []byte, account string) (*gcsblob.Options, error) {
	if options := keyFileOptions(credentialsJSON); options != nil {
		return options, nil
	}
	if account == "" {
		return nil, ErrNoSigner
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "iam credentials client")
	}

	name := "projects/-/serviceAccounts/" + account
	return &gcsblob.Options{
		GoogleAccessID: account,
		MakeSignBytes: func(requestCtx context.Context) gcsblob.SignBytesFunc {
			return func(payload []byte) ([]byte, error) {
				resp, signErr := iamClient.SignBlob(requestCtx, &credentialspb.SignBlobRequest{
					Name:    name,
					Payload: payload,
				})
				if signErr != nil {
					return nil, errors.Wrap(signErr, "sign blob")
				}
				return resp.GetSignedBlob(), nil
			}
		},
	}, nil
}

func keyFileOptions(credentialsJSON []byte) *gcsblob.Options {
	if len(credentialsJSON) == 0 {
		return nil
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON)
	if err != nil || jwtConfig.Email == "" || len(jwtConfig.PrivateKey) == 0 {
		return nil
	}
	return &gcsblob.Options{
		GoogleAccessID: jwtConfig.Email,
		PrivateKey:     jwtConfig.PrivateKey,
	}
}

func NewProvider(bucket, signingAccount string) *ProviderGCS {
	return &ProviderGCS{
		bucket:         bucket,
		signingAccount: signingAccount,
	}
}
