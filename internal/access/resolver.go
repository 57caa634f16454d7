// Package access derives a caller's access state from the stored
// profile and the configured administrator identity. The resolver is
// read-only: state changes only through admin writes to the profile
// or through wall-clock time passing an expiry, so it is re-evaluated
// on every check instead of being cached.
package access

import (
	"errors"
	"time"

	"github.com/famledger/famledger/internal/common"
	"github.com/famledger/famledger/internal/models"
)

// Status is the resolved access state of a request principal.
type Status string

const (
	// StatusLoading is the initial state before any evaluation has
	// happened. Resolve never returns it; subscribers start here
	// until the first profile snapshot arrives.
	StatusLoading Status = "loading"

	StatusNoAuth   Status = "no-auth"
	StatusAdmin    Status = "admin"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Allowed reports whether the state grants access to owned data.
func (s Status) Allowed() bool {
	return s == StatusAdmin || s == StatusApproved
}

// Identity is the authenticated principal as attested by a verified
// token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Resolver evaluates access states against a configured administrator
// identifier.
type Resolver struct {
	adminID string
	now     func() time.Time
}

// NewResolver creates a resolver. adminIdentifier is matched against
// both the principal's id and email.
func NewResolver(adminIdentifier string) *Resolver {
	return &Resolver{adminID: adminIdentifier, now: time.Now}
}

// Resolve maps (identity, profile) to exactly one state.
//
// A nil profile for an authenticated non-admin identity resolves to
// rejected: profiles are created in the same transaction as the
// account, so a missing one means the account is broken or the lookup
// was denied, and access fails closed rather than self-healing.
func (r *Resolver) Resolve(identity *Identity, profile *models.User) Status {
	if identity == nil {
		return StatusNoAuth
	}
	if r.IsAdmin(identity) {
		return StatusAdmin
	}
	if profile == nil {
		return StatusRejected
	}
	switch profile.Status {
	case models.StatusPending:
		return StatusPending
	case models.StatusApproved:
		if profile.AccessExpiresAt == nil {
			return StatusApproved
		}
		if r.now().Before(*profile.AccessExpiresAt) {
			return StatusApproved
		}
		return StatusExpired
	case models.StatusRejected:
		return StatusRejected
	default:
		// Unknown stored status fails closed.
		return StatusRejected
	}
}

// ProfileSource loads the stored profile backing an identity.
type ProfileSource interface {
	GetUserByID(id string) (models.User, error)
}

// ResolveFresh re-reads the identity's profile and resolves its state,
// so approval, rejection and expiry changes take effect immediately.
// Lookup failures other than a clean miss fail closed to rejected.
func (r *Resolver) ResolveFresh(identity *Identity, profiles ProfileSource) Status {
	if identity == nil {
		return StatusNoAuth
	}
	if r.IsAdmin(identity) {
		return StatusAdmin
	}

	profile, err := profiles.GetUserByID(identity.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return r.Resolve(identity, nil)
		}
		return StatusRejected
	}
	return r.Resolve(identity, &profile)
}

// ResolveUser is Resolve for a principal that is itself the stored
// profile row.
func (r *Resolver) ResolveUser(user *models.User) Status {
	if user == nil {
		return StatusNoAuth
	}
	identity := &Identity{UserID: user.ID, Email: user.Email, Role: user.Role}
	return r.Resolve(identity, user)
}

// IsAdmin reports whether the identity is the configured administrator
// or carries the administrator role.
func (r *Resolver) IsAdmin(identity *Identity) bool {
	if identity == nil {
		return false
	}
	if r.adminID != "" && (identity.UserID == r.adminID || identity.Email == r.adminID) {
		return true
	}
	return identity.Role == "admin"
}
