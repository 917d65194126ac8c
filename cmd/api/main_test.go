package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hezi777/barber-pro/internal/api/router"
	"github.com/Hezi777/barber-pro/internal/app/bootstrap"
	appconfig "github.com/Hezi777/barber-pro/internal/config"
	"github.com/Hezi777/barber-pro/internal/events"
	"github.com/Hezi777/barber-pro/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, m)

	m.ObserveInbound("whatsapp", "ok")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "barberpro_messaging_inbound_total")
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestRouterConfigWiresInMemoryStack(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CONVERSATION_STORE", "")
	t.Setenv("ENV", "development")

	cfg := appconfig.Load()
	logger := logging.New("error")
	stores, err := bootstrap.BuildStores(cfg, bootstrap.Backends{}, logger)
	require.NoError(t, err)

	metricsHandler, m := setupMetrics()
	done := make(chan struct{})
	defer close(done)

	h := router.New(routerConfig(cfg, stores, events.NewLogPublisher(logger), m, metricsHandler, logger, done))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/whatsapp", strings.NewReader(`{"from":"+972501234567","body":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"ok":true`)
	assert.Contains(t, rr.Body.String(), "Barber Pro")

	seed := httptest.NewRecorder()
	h.ServeHTTP(seed, httptest.NewRequest(http.MethodPost, "/api/dev/seed", nil))
	assert.Equal(t, http.StatusOK, seed.Code)
}

func TestRouterConfigDisablesSeedInProduction(t *testing.T) {
	cfg := &appconfig.Config{Env: "production", ShopName: "Barber Pro", ConversationStore: appconfig.StoreMemory}
	logger := logging.New("error")
	stores, err := bootstrap.BuildStores(cfg, bootstrap.Backends{}, logger)
	require.NoError(t, err)

	metricsHandler, m := setupMetrics()
	done := make(chan struct{})
	defer close(done)

	h := router.New(routerConfig(cfg, stores, events.NewLogPublisher(logger), m, metricsHandler, logger, done))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dev/seed", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
