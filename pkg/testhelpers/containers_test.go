//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestEngineDB_Connection(t *testing.T) {
	engineDB := GetEngineDB(t)

	ctx := context.Background()

	var version int
	err := engineDB.DB.QueryRow(ctx, "SELECT version FROM schema_migrations").Scan(&version)
	if err != nil {
		t.Fatalf("failed to read migration version: %v", err)
	}

	if version < 1 {
		t.Errorf("expected at least migration 1 applied, got %d", version)
	}
}

func TestEngineDB_Shared(t *testing.T) {
	first := GetEngineDB(t)
	second := GetEngineDB(t)

	if first != second {
		t.Error("expected GetEngineDB to return the shared instance")
	}
}
