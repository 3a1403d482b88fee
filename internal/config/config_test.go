package config_test

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/ppnshub/notification-hub/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MONGO_URI", "ENCRYPTION_KEY", "HTTP_PORT", "NOTIFICATIONS_PER_REQUEST",
		"PUSH_RATE_PER_SECOND", "WHITELISTED_USER_AGENTS",
	} {
		os.Unsetenv(k)
	}
}

func validKey() string {
	key := make([]byte, 32)
	return base64.StdEncoding.EncodeToString(key)
}

func TestLoad_MissingMongoURI(t *testing.T) {
	clearEnv(t)
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when MONGO_URI is unset")
	}
}

func TestLoad_MissingEncryptionKey(t *testing.T) {
	clearEnv(t)
	os.Setenv("MONGO_URI", "mongodb://localhost:27017")
	defer os.Unsetenv("MONGO_URI")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when ENCRYPTION_KEY is unset")
	}
}

func TestLoad_EncryptionKeyWrongLength(t *testing.T) {
	clearEnv(t)
	os.Setenv("MONGO_URI", "mongodb://localhost:27017")
	os.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString([]byte("too-short")))
	defer clearEnv(t)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for a key that does not decode to 32 bytes")
	}
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("MONGO_URI", "mongodb://localhost:27017")
	os.Setenv("ENCRYPTION_KEY", validKey())
	os.Setenv("WHITELISTED_USER_AGENTS", "ppns-publisher, ppns-admin")
	defer clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP_PORT=8080, got %s", cfg.HTTPPort)
	}
	if cfg.NumberOfNotificationsToRetrievePerRequest != 100 {
		t.Fatalf("expected default page size 100, got %d", cfg.NumberOfNotificationsToRetrievePerRequest)
	}
	if len(cfg.WhitelistedUserAgents) != 2 || cfg.WhitelistedUserAgents[0] != "ppns-publisher" {
		t.Fatalf("unexpected user agent list: %v", cfg.WhitelistedUserAgents)
	}
}
