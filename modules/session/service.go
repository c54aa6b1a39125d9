// Package session provides the storefront session store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotAuthenticated is returned when a token does not resolve to a live session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired is returned for a stored session past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// Authenticator is the part of the shop backend the session store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) error
}

// Grant is a freshly created session and its signed token.
type Grant struct {
	Token   string       `json:"token"`
	Session user.Session `json:"session"`
}

// Service logs users in and out and loads and persists sessions.
type Service struct {
	storage Storage
	tokens  *TokenManager
	auth    Authenticator
	onEnded func(user.Session)
	now     func() time.Time
}

// NewService creates a session service.
func NewService(storage Storage, tokens *TokenManager, auth Authenticator) *Service {
	return &Service{
		storage: storage,
		tokens:  tokens,
		auth:    auth,
		onEnded: func(user.Session) {},
		now:     time.Now,
	}
}

// OnEnded registers a hook run after a session is deleted on logout.
func (s *Service) OnEnded(fn func(user.Session)) {
	if fn != nil {
		s.onEnded = fn
	}
}

// Login exchanges credentials with the backend and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (Grant, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Grant{}, ErrInvalidCredentials
	}

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrForbidden) || errors.Is(err, backend.ErrNotFound) {
			return Grant{}, ErrInvalidCredentials
		}
		return Grant{}, fmt.Errorf("backend login: %w", err)
	}

	account, err := accountFromLogin(res, email)
	if err != nil {
		return Grant{}, err
	}

	now := s.now()
	sess := user.Session{
		ID:           uuid.NewString(),
		User:         account,
		BackendToken: res.Token,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.tokens.Duration()),
	}
	if err := s.persist(ctx, sess); err != nil {
		return Grant{}, err
	}

	token, err := s.tokens.Issue(sess)
	if err != nil {
		return Grant{}, fmt.Errorf("sign session token: %w", err)
	}

	log.Printf("[session] Opened session %s for %s (%s)", sess.ID, account.Email, account.Role)
	return Grant{Token: token, Session: sess}, nil
}

// accountFromLogin builds the account from the login response. Legacy
// backends return only a token, whose claims carry the email and role.
func accountFromLogin(res backend.LoginResult, email string) (user.User, error) {
	if res.User != nil {
		account := *res.User
		if account.Email == "" {
			account.Email = email
		}
		return account, nil
	}

	subject, role, err := decodeBackendToken(res.Token)
	if err != nil {
		return user.User{}, fmt.Errorf("backend token carries no account: %w", err)
	}
	return user.User{
		Name:  subject,
		Email: subject,
		Role:  role,
	}, nil
}

// Register validates the sign-up form, creates the account as a customer and
// logs it in.
func (s *Service) Register(ctx context.Context, form RegistrationForm) (Grant, error) {
	if err := form.Validate(); err != nil {
		return Grant{}, err
	}

	email := strings.TrimSpace(form.Email)
	err := s.auth.Register(ctx, backend.RegisterRequest{
		Name:     form.FullName(),
		Email:    email,
		Password: form.Password,
		Address:  form.Address,
	})
	if err != nil {
		return Grant{}, fmt.Errorf("backend register: %w", err)
	}

	log.Printf("[session] Registered %s", email)
	return s.Login(ctx, email, form.Password)
}

// Resolve verifies the token and loads its session.
func (s *Service) Resolve(ctx context.Context, token string) (user.Session, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return user.Session{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return s.load(ctx, claims.SessionID)
}

// UpdateAddress replaces the session's default shipping address.
func (s *Service) UpdateAddress(ctx context.Context, token string, addr user.Address) (user.Session, error) {
	sess, err := s.Resolve(ctx, token)
	if err != nil {
		return user.Session{}, err
	}
	if !addr.IsComplete() {
		return user.Session{}, &ValidationError{Fields: map[string]string{
			"address": "Por favor completa los datos de envío.",
		}}
	}

	sess.User.DefaultAddress = addr
	if err := s.persist(ctx, sess); err != nil {
		return user.Session{}, err
	}
	return sess, nil
}

// Logout deletes the session behind token. An unknown session is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	sess, err := s.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return nil
		}
		return err
	}

	if err := s.storage.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	log.Printf("[session] Closed session %s for %s", sess.ID, sess.User.Email)
	s.onEnded(sess)
	return nil
}

// load reads a session, normalizing its role through the Role decoder.
func (s *Service) load(ctx context.Context, id string) (user.Session, error) {
	data, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return user.Session{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return user.Session{}, fmt.Errorf("load session: %w", err)
	}

	var sess user.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Printf("[session] Warning: dropping undecodable session %s: %v", id, err)
		_ = s.storage.Delete(ctx, id)
		return user.Session{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, ErrSessionNotFound)
	}

	if sess.Expired(s.now()) {
		_ = s.storage.Delete(ctx, id)
		return user.Session{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, ErrSessionExpired)
	}
	return sess, nil
}

// persist writes a session with its remaining lifetime as TTL.
func (s *Service) persist(ctx context.Context, sess user.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionExpired
	}
	if err := s.storage.Set(ctx, sess.ID, data, ttl); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
