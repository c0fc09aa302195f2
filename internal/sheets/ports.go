package sheets

import (
	"context"

	"footprint/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// ActivityExporter mirrors activities into an external sheet, one row
	// per activity keyed by activity id.
	ActivityExporter interface {
		UpsertActivity(ctx context.Context, a core.Activity) error
		DeleteActivity(ctx context.Context, activityID string) error
	}
)
