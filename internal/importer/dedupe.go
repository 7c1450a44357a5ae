package importer

import (
	"context"
	"fmt"

	"github.com/david/event-finder/internal/models"
)

// DuplicateGuard checks whether an event is already imported before any
// network fetch happens, so idempotent retries stay cheap.
type DuplicateGuard struct {
	Store EventStore
}

// Existing returns the already-imported record matching the URL or
// platform id, or nil when the event is new.
func (g *DuplicateGuard) Existing(ctx context.Context, url, platformID string) (*models.Event, error) {
	ev, err := g.Store.FindByURLOrPlatformID(ctx, url, platformID)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup failed: %w", err)
	}
	return ev, nil
}
