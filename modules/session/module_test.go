package session

import (
	"context"
	"testing"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/go-monolith/mono"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestModule starts a session module on a real kv-jetstream bucket.
func createTestModule(t *testing.T, auth Authenticator) *Module {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
	)
	require.NoError(t, err)

	plugin, err := kvjetstream.New(kvjetstream.Config{
		Buckets: []kvjetstream.BucketConfig{
			{
				Name:        BucketName,
				Description: "Test sessions",
				TTL:         time.Hour,
				Storage:     kvjetstream.MemoryStorage,
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, app.RegisterPlugin(plugin, "kv"))
	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	module := NewModule(Config{Store: StoreKV, Token: testTokenConfig()})
	module.SetPlugin("kv", plugin)
	module.UseAuthenticator(auth)
	require.NoError(t, module.Start(context.Background()))
	t.Cleanup(func() {
		_ = module.Stop(context.Background())
	})
	return module
}

func TestModule_StartRequiresPlugins(t *testing.T) {
	m := NewModule(Config{Token: testTokenConfig()})
	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")

	m = NewModule(Config{Token: testTokenConfig()})
	m.UseAuthenticator(&mockAuthenticator{})
	err = m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kv")
}

func TestModule_HandlersOverKV(t *testing.T) {
	ctx := context.Background()
	m := createTestModule(t, accountLogin(user.RoleAdmin))

	login, err := m.handleLogin(ctx, LoginRequest{Email: "admin@duoc.cl", Password: "secret"}, nil)
	require.NoError(t, err)
	require.Nil(t, login.Error)
	require.NotNil(t, login.Session)
	assert.NotEmpty(t, login.Token)

	resolved, err := m.handleResolve(ctx, ResolveRequest{Token: login.Token}, nil)
	require.NoError(t, err)
	require.Nil(t, resolved.Error)
	assert.Equal(t, user.RoleAdmin, resolved.Session.User.Role)

	addr := user.Address{Street: "Los Aromos 55", Region: "Biobío", Comuna: "Concepción"}
	updated, err := m.handleUpdateAddress(ctx, UpdateAddressRequest{Token: login.Token, Address: addr}, nil)
	require.NoError(t, err)
	require.Nil(t, updated.Error)
	assert.Equal(t, addr, updated.Session.User.DefaultAddress)

	out, err := m.handleLogout(ctx, LogoutRequest{Token: login.Token}, nil)
	require.NoError(t, err)
	assert.Nil(t, out.Error)

	gone, err := m.handleResolve(ctx, ResolveRequest{Token: login.Token}, nil)
	require.NoError(t, err)
	require.NotNil(t, gone.Error)
	assert.Equal(t, codeUnauthenticated, gone.Error.Code)
	assert.ErrorIs(t, gone.Error.Err(), ErrNotAuthenticated)
}

func TestModule_HandleRegisterValidation(t *testing.T) {
	m := createTestModule(t, &mockAuthenticator{})

	resp, err := m.handleRegister(context.Background(), RegisterRequest{Form: RegistrationForm{}}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "email")
}

func TestModule_Health(t *testing.T) {
	m := NewModule(Config{Store: StoreMemory, Token: testTokenConfig()})
	assert.False(t, m.Health(context.Background()).Healthy)

	m.UseAuthenticator(&mockAuthenticator{})
	require.NoError(t, m.Start(context.Background()))
	health := m.Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, StoreMemory, health.Details["store"])
}
