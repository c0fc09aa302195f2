//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"footprint/internal/core"
)

// Run with: go test -tags=integration ./internal/sheets/google
func TestIntegration_ExportLifecycle(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, Config{
		SpreadsheetID:      spreadsheetID,
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		t.Fatalf("ensure header: %v", err)
	}

	a := core.Activity{
		ID:        "it-" + time.Now().Format("20060102150405"),
		UserID:    "integration",
		ItemName:  "Beef",
		Category:  "Food",
		Kind:      core.Physical,
		Quantity:  1,
		Unit:      "kg",
		Date:      time.Now().UTC(),
		Emissions: 27,
	}
	if err := client.UpsertActivity(ctx, a); err != nil {
		t.Fatalf("insert row: %v", err)
	}
	a.Quantity, a.Emissions = 2, 54
	if err := client.UpsertActivity(ctx, a); err != nil {
		t.Fatalf("update row: %v", err)
	}
	if err := client.DeleteActivity(ctx, a.ID); err != nil {
		t.Fatalf("delete row: %v", err)
	}
}
