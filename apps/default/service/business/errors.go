package business

import (
	"github.com/antinvestor/service-slatedrop/apps/default/service/namespace"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrScopeViolation        = errors.New("resource is outside the caller's namespace")
	ErrNotFound              = errors.New("not found")
	ErrProvisioningFailed    = errors.New("folder provisioning failed")
	ErrObjectStoreFailure    = errors.New("object store failure")
	ErrTokenExpiredOrInvalid = errors.New("share token expired or invalid")
	ErrInvalidInput          = errors.New("invalid input")
	ErrConflict              = errors.New("file was changed by another request")
	ErrUnauthenticated       = namespace.ErrUnauthenticated
)

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// lookupError converts a metadata lookup failure into the business taxonomy.
func lookupError(err error, what string) error {
	if isRecordNotFound(err) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrapf(err, "could not load %s", what)
}

func invalidInput(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

func objectStoreFailure(err error, op string) error {
	return errors.Wrapf(ErrObjectStoreFailure, "%s: %v", op, err)
}
