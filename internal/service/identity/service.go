package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"perfumeshop/internal/domain"
	"perfumeshop/internal/repository/uow"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLockedOut is returned while an account is locked after repeated failures.
	ErrLockedOut = errors.New("account locked out")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidEmail = errors.New("invalid email")
	ErrWeakPassword = errors.New("weak password")
)

// Session is an issued sign-in token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	// Persistent sessions survive browser restarts.
	Persistent bool
}

// RegisterInput captures the fields of the registration form.
type RegisterInput struct {
	Email    string
	UserName string
	Password string
	IsAdmin  bool
}

// Options tune session lifetimes and the lockout policy.
type Options struct {
	SessionTTL      time.Duration
	RememberTTL     time.Duration
	MaxFailures     int
	LockoutDuration time.Duration
	PasswordMin     int
}

func DefaultOptions() Options {
	return Options{
		SessionTTL:      12 * time.Hour,
		RememberTTL:     30 * 24 * time.Hour,
		MaxFailures:     5,
		LockoutDuration: 5 * time.Minute,
		PasswordMin:     8,
	}
}

// Service handles registration, password sign-in and session lookup.
type Service struct {
	uow    uow.UnitOfWork
	tokens tokenManager
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func New(u uow.UnitOfWork, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = def.SessionTTL
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = def.RememberTTL
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = def.MaxFailures
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = def.LockoutDuration
	}
	if opts.PasswordMin <= 0 {
		opts.PasswordMin = def.PasswordMin
	}
	s := &Service{uow: u, opts: opts, logger: logger.Named("identity"), now: time.Now}
	s.tokens = tokenManager{now: func() time.Time { return s.now() }}
	return s
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(in.Password, s.opts.PasswordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		userName = email
	}

	var out *domain.User
	err = s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		out, err = repos.Users().Create(ctx, domain.User{
			Email:        email,
			UserName:     userName,
			PasswordHash: string(hashed),
			IsAdmin:      in.IsAdmin,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", out.ID))
	return out, nil
}

// PasswordSignIn checks credentials and issues a session. After
// MaxFailures consecutive failures the account is locked for
// LockoutDuration.
func (s *Service) PasswordSignIn(ctx context.Context, email, password string, remember bool) (*domain.User, *Session, error) {
	var (
		user    *domain.User
		session *Session
		result  error
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		u, err := repos.Users().GetByEmail(ctx, strings.TrimSpace(email))
		if errors.Is(err, domain.ErrNotFound) {
			result = ErrInvalidCredentials
			return nil
		}
		if err != nil {
			return err
		}
		now := s.now()
		if u.LockedOut(now) {
			result = ErrLockedOut
			return nil
		}

		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			var lockUntil *time.Time
			if u.FailedAttempts+1 >= s.opts.MaxFailures {
				t := now.Add(s.opts.LockoutDuration)
				lockUntil = &t
			}
			if _, err := repos.Users().RecordFailure(ctx, u.ID, lockUntil); err != nil {
				return err
			}
			if lockUntil != nil {
				s.logger.Warn("user account locked out", zap.String("user_id", u.ID), zap.Time("until", *lockUntil))
				result = ErrLockedOut
				return nil
			}
			result = ErrInvalidCredentials
			return nil
		}

		if u.FailedAttempts > 0 || u.LockoutEnd != nil {
			if err := repos.Users().ResetFailures(ctx, u.ID); err != nil {
				return err
			}
			u.FailedAttempts = 0
			u.LockoutEnd = nil
		}
		ttl := s.opts.SessionTTL
		if remember {
			ttl = s.opts.RememberTTL
		}
		token, expiresAt, err := s.tokens.Issue(ctx, repos.Tokens(), u.ID, ttl)
		if err != nil {
			return fmt.Errorf("issue session: %w", err)
		}
		user = u
		session = &Session{Token: token, ExpiresAt: expiresAt, Persistent: remember}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if result != nil {
		return nil, nil, result
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, session, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var out *domain.User
	// Validate may delete an expired token, so an invalid token still commits.
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		meta, ok := s.tokens.Validate(ctx, repos.Tokens(), token)
		if !ok {
			return nil
		}
		u, err := repos.Users().GetByID(ctx, meta.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrInvalidToken
	}
	return out, nil
}

// SignOut revokes the session token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		return repos.Tokens().Delete(ctx, token)
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// PurgeExpiredSessions deletes all expired session tokens.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	err := s.uow.Do(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		n, err = repos.Tokens().DeleteExpired(ctx, s.now())
		return err
	})
	return n, err
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("%w: password must be at least %d characters", ErrWeakPassword, min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("%w: password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number", ErrWeakPassword)
	}
	return nil
}
