package buyer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	svc := New()
	anon := uuid.NewString()

	t.Run("authenticated user wins", func(t *testing.T) {
		id := svc.Resolve("user-1", anon)
		assert.Equal(t, Identity{ID: "user-1"}, id)
	})

	t.Run("guid cookie reused", func(t *testing.T) {
		id := svc.Resolve("", anon)
		assert.Equal(t, Identity{ID: anon, Anonymous: true}, id)
	})

	t.Run("non-guid cookie replaced", func(t *testing.T) {
		id := svc.Resolve("", "bob@example.com")
		assert.True(t, id.Issued)
		assert.True(t, id.Anonymous)
		assert.True(t, IsAnonymousID(id.ID))
		assert.NotEqual(t, "bob@example.com", id.ID)
	})

	t.Run("missing cookie issues guid", func(t *testing.T) {
		a := svc.Resolve("", "")
		b := svc.Resolve("", "")
		assert.True(t, a.Issued)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestCookieExpiry(t *testing.T) {
	now := time.Date(2024, 2, 29, 15, 30, 0, 0, time.UTC)
	got := New().CookieExpiry(now)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
