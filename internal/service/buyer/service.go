// Package buyer decides which identifier owns the current visitor's basket.
package buyer

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the outcome of resolving a request's buyer.
type Identity struct {
	ID string
	// Anonymous is true when ID is a generated guid rather than a user id.
	Anonymous bool
	// Issued is true when ID was just generated and must be written to the
	// basket cookie.
	Issued bool
}

type Service struct {
	cookieTTL time.Duration
	newID     func() string
}

func New() *Service {
	return &Service{
		cookieTTL: 365 * 24 * time.Hour,
		newID:     uuid.NewString,
	}
}

// Resolve returns the authenticated user id when present; otherwise the
// cookie value if it is a guid; otherwise a fresh guid.
func (s *Service) Resolve(userID, cookieValue string) Identity {
	if userID != "" {
		return Identity{ID: userID}
	}
	if IsAnonymousID(cookieValue) {
		return Identity{ID: cookieValue, Anonymous: true}
	}
	return Identity{ID: s.newID(), Anonymous: true, Issued: true}
}

// CookieExpiry returns when a basket cookie written now should expire:
// one year from the start of today.
func (s *Service) CookieExpiry(now time.Time) time.Time {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today.AddDate(1, 0, 0)
}

// IsAnonymousID reports whether v parses as a guid.
func IsAnonymousID(v string) bool {
	if v == "" {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}
