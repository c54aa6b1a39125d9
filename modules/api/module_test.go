package api

import (
	"context"
	"testing"

	"github.com/000francisca0/Peluchemaniav3/middleware/ratelimit"
	"github.com/000francisca0/Peluchemaniav3/modules/audit"
	"github.com/000francisca0/Peluchemaniav3/modules/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIModule_StartRequiresServices(t *testing.T) {
	m := NewModule(0, Modules{})

	err := m.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session service not set")
	assert.False(t, m.Health(context.Background()).Healthy)
	assert.NoError(t, m.Stop(context.Background()))
}

func TestAPIModule_Defaults(t *testing.T) {
	m := NewModule(-1, Modules{})

	assert.Equal(t, "api", m.Name())
	assert.Equal(t, DefaultPort, m.port)
	assert.Equal(t, []string{"session", "cart"}, m.Dependencies())
}

func TestAPIModule_DependsOnModuleHandles(t *testing.T) {
	m := NewModule(8080, Modules{
		Catalog:   catalog.NewModule(),
		Audit:     audit.NewModule(10),
		RateLimit: ratelimit.New(),
	})

	assert.Equal(t, []string{"session", "cart", "catalog", "audit", "rate-limit"}, m.Dependencies())
}
