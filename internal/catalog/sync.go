package catalog

import (
	"context"
	"fmt"
	"time"

	"cabquote/internal/config"
	"cabquote/internal/storage"
)

type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

// InitialSync pulls every manufacturer and its full price book from the
// upstream service. Returns the number of manufacturers synced.
func (s *SyncService) InitialSync(ctx context.Context) (int, error) {
	manufacturers, err := s.client.ListManufacturers(ctx)
	if err != nil {
		return 0, err
	}

	for _, m := range manufacturers {
		catalog, err := s.client.GetCatalog(ctx, m.ID)
		if err != nil {
			return 0, fmt.Errorf("sync manufacturer %s: %w", m.ID, err)
		}
		m.SKUCount = len(catalog)
		if err := s.db.UpsertManufacturer(m); err != nil {
			return 0, err
		}
		if err := s.db.UpsertCatalogEntries(m.ID, catalog); err != nil {
			return 0, err
		}
		_ = s.db.SetMetadata("catalog.last_sync."+m.ID, time.Now().UTC().Format(time.RFC3339))
	}

	_ = s.db.SetMetadata("catalog.last_initial_sync", time.Now().UTC().Format(time.RFC3339))
	return len(manufacturers), nil
}

// RefreshCatalog re-fetches one manufacturer's price book when it is older
// than the configured refresh window. force skips the staleness check.
func (s *SyncService) RefreshCatalog(ctx context.Context, manufacturerID string, force bool) (int, error) {
	key := "catalog.last_sync." + manufacturerID
	if !force {
		last, err := s.db.GetMetadata(key)
		if err != nil {
			return 0, err
		}
		if last != nil {
			if parsed, err := time.Parse(time.RFC3339, *last); err == nil {
				if time.Since(parsed) < time.Duration(s.cfg.CatalogRefreshHrs)*time.Hour {
					return 0, nil
				}
			}
		}
	}

	catalog, err := s.client.GetCatalog(ctx, manufacturerID)
	if err != nil {
		return 0, err
	}
	if err := s.db.UpsertCatalogEntries(manufacturerID, catalog); err != nil {
		return 0, err
	}
	if err := s.db.SetMetadata(key, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	return len(catalog), nil
}
