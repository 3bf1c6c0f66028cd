package namespace

import (
	"context"
	"errors"

	"github.com/antinvestor/service-slatedrop/apps/default/service/types"
	"github.com/pitabwire/util"
)

// DefaultOrganizationSentinel is the organization id some clients send for
// users that belong to no organization.
const DefaultOrganizationSentinel = "default"

// ErrUnauthenticated is returned when a scope is requested without a principal.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolve maps a principal to its storage namespace.
func Resolve(organizationID, userID string) types.Namespace {
	if organizationID != "" && organizationID != DefaultOrganizationSentinel {
		return types.Namespace(organizationID)
	}
	return types.Namespace(userID)
}

// MembershipLookup resolves the organization a user belongs to.
// An empty organization id with a nil error means the user is solo.
type MembershipLookup interface {
	OrganizationForUser(ctx context.Context, userID string) (string, error)
}

// Scope is the tenant context of a single request. It is built once and then
// passed explicitly to every storage operation.
type Scope struct {
	UserID         string
	OrganizationID string
	Namespace      types.Namespace
}

// NewScope resolves the caller's namespace. A failed membership lookup never
// blocks file access: the user is treated as solo.
func NewScope(ctx context.Context, lookup MembershipLookup, userID string) (*Scope, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	organizationID := ""
	if lookup != nil {
		orgID, err := lookup.OrganizationForUser(ctx, userID)
		if err != nil {
			util.Log(ctx).WithError(err).WithField("user_id", userID).
				Warn("membership lookup failed, treating user as solo")
		} else {
			organizationID = orgID
		}
	}

	return NewStaticScope(organizationID, userID), nil
}

// NewStaticScope builds a scope from an already known membership.
func NewStaticScope(organizationID, userID string) *Scope {
	ns := Resolve(organizationID, userID)
	if organizationID == DefaultOrganizationSentinel {
		organizationID = ""
	}
	return &Scope{
		UserID:         userID,
		OrganizationID: organizationID,
		Namespace:      ns,
	}
}

// IsSolo reports whether the scope belongs to a user without an organization.
func (s *Scope) IsSolo() bool {
	return s.OrganizationID == ""
}

// Owns is the tenant predicate applied to every metadata row.
func (s *Scope) Owns(ns types.Namespace, createdBy string) bool {
	if s == nil || ns != s.Namespace {
		return false
	}
	if s.IsSolo() {
		return createdBy == s.UserID
	}
	return true
}

// CreatorFilter is the creator predicate listings must add, empty for organizations.
func (s *Scope) CreatorFilter() string {
	if s.IsSolo() {
		return s.UserID
	}
	return ""
}

type ctxKey struct{}

// ToContext stores the scope on a request context.
func ToContext(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, scope)
}

// FromContext returns the scope stored by ToContext, or nil.
func FromContext(ctx context.Context) *Scope {
	scope, ok := ctx.Value(ctxKey{}).(*Scope)
	if !ok {
		return nil
	}
	return scope
}
