package storage

import (
	"context"
	"net/url"
)

// SignedURLVerifier checks a signed URL and returns the object key it grants
// access to. Backends without an endpoint of their own (LOCAL) sign URLs that
// point back at this service.
type SignedURLVerifier interface {
	KeyFromURL(ctx context.Context, signed *url.URL) (string, error)
}

// VerifierOf returns the verifier of a provider whose signed URLs this
// service must serve, or nil when the object store serves them itself.
func VerifierOf(provider Provider) SignedURLVerifier {
	signing, ok := provider.(interface{ Verifier() SignedURLVerifier })
	if !ok {
		return nil
	}
	return signing.Verifier()
}
