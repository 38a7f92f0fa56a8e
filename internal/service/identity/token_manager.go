package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"perfumeshop/internal/domain"
	tokenrepo "perfumeshop/internal/repository/token"
)

const sessionKind = "session"

type tokenManager struct {
	now func() time.Time
}

func (m tokenManager) Issue(ctx context.Context, repo tokenrepo.Repository, userID string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", time.Time{}, err
		}
		err = repo.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			Kind:      sessionKind,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, expiresAt, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", time.Time{}, err
	}
	return "", time.Time{}, errors.New("token collision")
}

// Validate returns the token when it exists and has not expired. Expired
// tokens are deleted.
func (m tokenManager) Validate(ctx context.Context, repo tokenrepo.Repository, token string) (*tokenrepo.Token, bool) {
	meta, err := repo.Get(ctx, token)
	if err != nil {
		return nil, false
	}
	if meta.Kind != sessionKind {
		return nil, false
	}
	if m.now().After(meta.ExpiresAt) {
		_ = repo.Delete(ctx, token)
		return nil, false
	}
	return meta, true
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
