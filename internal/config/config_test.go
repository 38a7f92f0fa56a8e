package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "PerfumeShop.Basket", cfg.BasketCookie)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Empty(t, cfg.CORSAllowOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PERFUME_HTTP_ADDR", ":9090")
	t.Setenv("PERFUME_SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("PERFUME_CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PERFUME_CATALOG_CACHE_TTL", "30s")
	t.Setenv("PERFUME_COOKIE_SECURE", "true")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 30*time.Second, cfg.CatalogTTL)
	assert.True(t, cfg.CookieSecure)
}
