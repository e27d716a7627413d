package store

import (
	"context"
	"testing"

	"github.com/erazemk/odpad/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetOrCreateSettingKeepsFirstValue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetOrCreateSetting(ctx, database, "public_url", "http://first")
	if err != nil {
		t.Fatal(err)
	}
	if v != "http://first" {
		t.Fatalf("expected first value, got %q", v)
	}

	v, _ = GetOrCreateSetting(ctx, database, "public_url", "http://second")
	if v != "http://first" {
		t.Errorf("expected stored value to win, got %q", v)
	}
}
