package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// SessionPort is the session store as seen by other modules.
type SessionPort interface {
	Login(ctx context.Context, email, password string) (Grant, error)
	Register(ctx context.Context, form RegistrationForm) (Grant, error)
	Resolve(ctx context.Context, token string) (user.Session, error)
	UpdateAddress(ctx context.Context, token string, addr user.Address) (user.Session, error)
	Logout(ctx context.Context, token string) error
}

// SessionAdapter implements SessionPort over the service container.
type SessionAdapter struct {
	container mono.ServiceContainer
}

var _ SessionPort = (*SessionAdapter)(nil)

// NewSessionAdapter creates a SessionAdapter.
func NewSessionAdapter(container mono.ServiceContainer) *SessionAdapter {
	return &SessionAdapter{container: container}
}

// call invokes a request-reply service with concrete request and response types.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Login opens a session.
func (a *SessionAdapter) Login(ctx context.Context, email, password string) (Grant, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp GrantResponse
	if err := call(ctx, a.container, "session-login", &req, &resp); err != nil {
		return Grant{}, err
	}
	return grantFrom(resp)
}

// Register creates a customer account and opens a session.
func (a *SessionAdapter) Register(ctx context.Context, form RegistrationForm) (Grant, error) {
	req := RegisterRequest{Form: form}
	var resp GrantResponse
	if err := call(ctx, a.container, "session-register", &req, &resp); err != nil {
		return Grant{}, err
	}
	return grantFrom(resp)
}

// Resolve loads the session behind a token.
func (a *SessionAdapter) Resolve(ctx context.Context, token string) (user.Session, error) {
	req := ResolveRequest{Token: token}
	var resp SessionResponse
	if err := call(ctx, a.container, "session-resolve", &req, &resp); err != nil {
		return user.Session{}, err
	}
	return sessionFrom(resp)
}

// UpdateAddress replaces the session's default address.
func (a *SessionAdapter) UpdateAddress(ctx context.Context, token string, addr user.Address) (user.Session, error) {
	req := UpdateAddressRequest{Token: token, Address: addr}
	var resp SessionResponse
	if err := call(ctx, a.container, "session-update-address", &req, &resp); err != nil {
		return user.Session{}, err
	}
	return sessionFrom(resp)
}

// Logout ends the session behind a token.
func (a *SessionAdapter) Logout(ctx context.Context, token string) error {
	req := LogoutRequest{Token: token}
	var resp LogoutResponse
	if err := call(ctx, a.container, "session-logout", &req, &resp); err != nil {
		return err
	}
	return resp.Error.Err()
}

func grantFrom(resp GrantResponse) (Grant, error) {
	if resp.Error != nil {
		return Grant{}, resp.Error.Err()
	}
	if resp.Session == nil {
		return Grant{}, fmt.Errorf("session response has no session")
	}
	return Grant{Token: resp.Token, Session: *resp.Session}, nil
}

func sessionFrom(resp SessionResponse) (user.Session, error) {
	if resp.Error != nil {
		return user.Session{}, resp.Error.Err()
	}
	if resp.Session == nil {
		return user.Session{}, fmt.Errorf("session response has no session")
	}
	return *resp.Session, nil
}
