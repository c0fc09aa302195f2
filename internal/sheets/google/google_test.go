package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"footprint/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{ServiceAccountJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_InvalidCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", ServiceAccountJSON: "not-json"})
	if err == nil {
		t.Fatal("expected error with invalid JSON")
	}
	if !strings.Contains(err.Error(), "parse service account credentials") {
		t.Errorf("expected credential parse error, got: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", ServiceAccountFile: missing})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestClient_RequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Activities"}
	ctx := context.Background()

	if err := c.UpsertActivity(ctx, core.Activity{ID: "a"}); err == nil {
		t.Fatal("expected error without service")
	}
	if err := c.DeleteActivity(ctx, "a"); err == nil {
		t.Fatal("expected error without service")
	}
	if err := c.EnsureHeader(ctx); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestRowCacheInvalidation(t *testing.T) {
	c := &Client{cacheValidDuration: defaultRowCacheTTL}
	c.rowIndex = map[string]int{"a": 2}

	c.invalidateRowCache()

	if c.rowIndex != nil || !c.cacheExpiresAt.IsZero() {
		t.Fatal("cache should be cleared")
	}
}
