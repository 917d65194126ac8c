package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SHOP_NAME", "TIMEZONE", "CONVERSATION_STORE", "LOCK_TTL", "WEBHOOK_RATE_LIMIT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.ShopName != "Barber Pro" {
		t.Fatalf("expected default shop name, got %s", cfg.ShopName)
	}
	if cfg.ConversationStore != StoreMemory {
		t.Fatalf("expected memory store by default, got %s", cfg.ConversationStore)
	}
	if cfg.LockTTL != 10*time.Second {
		t.Fatalf("expected default lock ttl, got %s", cfg.LockTTL)
	}
	if cfg.WebhookRateLimit != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %v", cfg.WebhookRateLimit)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %s", cfg.Location())
	}
	if cfg.IsProduction() {
		t.Fatalf("development should not be production")
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "Production")
	t.Setenv("SHOP_NAME", "Fade Factory")
	t.Setenv("TIMEZONE", "Asia/Jerusalem")
	t.Setenv("CONVERSATION_STORE", " Redis ")
	t.Setenv("CONVERSATION_IDLE_TIMEOUT", "45m")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("WEBHOOK_RATE_LIMIT", "2.5")
	t.Setenv("WEBHOOK_RATE_BURST", "7")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.ShopName != "Fade Factory" {
		t.Fatalf("expected shop name override, got %s", cfg.ShopName)
	}
	if cfg.Location().String() != "Asia/Jerusalem" {
		t.Fatalf("expected timezone override, got %s", cfg.Location())
	}
	if cfg.ConversationStore != StoreRedis {
		t.Fatalf("expected normalized store name, got %q", cfg.ConversationStore)
	}
	if cfg.ConversationIdleTimeout != 45*time.Minute {
		t.Fatalf("expected idle timeout override, got %s", cfg.ConversationIdleTimeout)
	}
	if cfg.LockTTL != 3*time.Second {
		t.Fatalf("expected lock ttl override, got %s", cfg.LockTTL)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.WebhookRateLimit != 2.5 || cfg.WebhookRateBurst != 7 {
		t.Fatalf("expected rate limit overrides, got %v/%d", cfg.WebhookRateLimit, cfg.WebhookRateBurst)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("LOCK_TTL", "soon")
	t.Setenv("WEBHOOK_RATE_BURST", "many")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	cfg := Load()
	if cfg.LockTTL != 10*time.Second {
		t.Fatalf("expected default lock ttl for malformed value, got %s", cfg.LockTTL)
	}
	if cfg.WebhookRateBurst != 20 {
		t.Fatalf("expected default burst for malformed value, got %d", cfg.WebhookRateBurst)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback for unknown zone, got %s", cfg.Location())
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://dash.example.com, ,http://localhost:3000 ")
	cfg := Load()
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[0] != "https://dash.example.com" || cfg.CORSAllowedOrigins[1] != "http://localhost:3000" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}
