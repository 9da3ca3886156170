package cli

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/tarkov-market/internal/logger"
	"github.com/pfrederiksen/tarkov-market/internal/market"
	"github.com/pfrederiksen/tarkov-market/internal/storage"
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
	"github.com/spf13/cobra"
)

// selection holds the item selection flags shared by history-driven commands
type selection struct {
	ids        []string
	categories []string
	minOffers  int
	limit      int
	explicit   bool
}

func addSelectionFlags(cmd *cobra.Command, sel *selection) {
	cmd.Flags().StringSliceVar(&sel.ids, "id", nil, "Item id to fetch history for (repeatable)")
	cmd.Flags().StringSliceVar(&sel.categories, "category", nil, "Only items in this category (repeatable)")
	cmd.Flags().IntVar(&sel.minOffers, "min-offers", 1, "Only items with at least this many flea offers")
	cmd.Flags().IntVar(&sel.limit, "limit", 0, "Maximum number of items (0 = no limit)")
}

// resolve marks the selection explicit when any selection flag was set
func (s *selection) resolve(cmd *cobra.Command) {
	for _, name := range []string{"id", "category", "min-offers", "limit"} {
		if cmd.Flags().Changed(name) {
			s.explicit = true
		}
	}
}

func (s *selection) filter() market.Filter {
	return market.Filter{
		IDs:        s.ids,
		Categories: s.categories,
		MinOffers:  s.minOffers,
		Limit:      s.limit,
	}
}

// usable reports whether a stored snapshot can stand in for a fetch
func (a *app) usable(snap *storage.Snapshot) bool {
	if snap.Empty() {
		return false
	}
	if a.offline {
		return true
	}
	return snap.Lang == a.cfg.API.Lang && snap.Fresh(a.maxAge)
}

// loadItems returns the item catalog, fetching it unless a usable snapshot
// exists. force skips the snapshot unless running offline.
func (a *app) loadItems(ctx context.Context, force bool) ([]tarkov.Item, error) {
	mode := a.cfg.API.GameMode

	snap, err := a.store.Load(storage.KindItems, mode)
	if err != nil {
		return nil, fmt.Errorf("loading items snapshot: %w", err)
	}

	if a.offline && snap.Empty() {
		return nil, fmt.Errorf("no stored items for game mode %s, run 'tarkov-market items' first", mode)
	}
	if (a.offline || !force) && a.usable(snap) {
		logger.Info("Using stored items", logger.Fields{
			"run_id":     snap.RunID,
			"fetched_at": snap.FetchedAt,
			"items":      len(snap.Items),
		})
		return snap.Items, nil
	}

	items, err := a.client.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}

	saved, err := a.store.SaveItems(items, mode, a.cfg.API.Lang)
	if err != nil {
		return nil, fmt.Errorf("saving items snapshot: %w", err)
	}
	logger.Info("Fetched items", logger.Fields{"run_id": saved.RunID, "items": len(items)})

	return items, nil
}

// loadHistories returns the selected item ids and their histories. A stored
// snapshot is reused when usable and the selection was not set explicitly.
// Offline runs always read the snapshot and narrow it by the selection.
func (a *app) loadHistories(ctx context.Context, sel *selection, force bool) ([]string, map[string][]tarkov.HistoricalPrice, error) {
	mode := a.cfg.API.GameMode

	snap, err := a.store.Load(storage.KindHistories, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("loading history snapshot: %w", err)
	}

	if a.offline {
		if snap.Empty() {
			return nil, nil, fmt.Errorf("no stored histories for game mode %s, run 'tarkov-market history' first", mode)
		}
		if !sel.explicit {
			return snap.HistoryIDs(), snap.Histories, nil
		}
		ids, err := a.selectStored(snap, sel)
		if err != nil {
			return nil, nil, err
		}
		return ids, snap.Histories, nil
	}
	if !force && !sel.explicit && a.usable(snap) {
		logger.Info("Using stored histories", logger.Fields{
			"run_id":     snap.RunID,
			"fetched_at": snap.FetchedAt,
			"items":      len(snap.Histories),
		})
		return snap.HistoryIDs(), snap.Histories, nil
	}

	// Explicit ids need no catalog
	catalog := market.NewCatalog(nil)
	if len(sel.ids) == 0 {
		items, err := a.loadItems(ctx, false)
		if err != nil {
			return nil, nil, err
		}
		catalog = market.NewCatalog(items)
	}
	ids := catalog.Select(sel.filter())
	if len(ids) == 0 {
		return nil, nil, fmt.Errorf("no items match the selection")
	}

	logger.Info("Fetching price histories", logger.Fields{
		"items": len(ids),
		"days":  a.cfg.API.HistoryDays,
	})

	histories, err := a.client.HistoricalPricesBatch(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching histories: %w", err)
	}

	saved, err := a.store.SaveHistories(ids, histories, mode, a.cfg.API.Lang)
	if err != nil {
		return nil, nil, fmt.Errorf("saving history snapshot: %w", err)
	}
	logger.Info("Fetched histories", logger.Fields{"run_id": saved.RunID, "items": len(ids)})

	return ids, histories, nil
}

// selectStored applies the selection to the ids of a stored history snapshot,
// keeping fetch order. Category and offer filters read the stored catalog.
func (a *app) selectStored(snap *storage.Snapshot, sel *selection) ([]string, error) {
	var wanted []string
	if len(sel.ids) > 0 {
		wanted = sel.ids
	} else {
		items, err := a.store.Load(storage.KindItems, a.cfg.API.GameMode)
		if err != nil {
			return nil, fmt.Errorf("loading items snapshot: %w", err)
		}
		if items.Empty() {
			return nil, fmt.Errorf("no stored items for game mode %s to filter histories by, run 'tarkov-market items' first", a.cfg.API.GameMode)
		}
		f := sel.filter()
		f.Limit = 0
		wanted = market.NewCatalog(items.Items).Select(f)
	}

	match := make(map[string]bool, len(wanted))
	for _, id := range wanted {
		match[id] = true
	}
	ids := make([]string, 0, len(wanted))
	for _, id := range snap.HistoryIDs() {
		if match[id] {
			ids = append(ids, id)
		}
	}
	if sel.limit > 0 && len(ids) > sel.limit {
		ids = ids[:sel.limit]
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no stored histories match the selection")
	}

	logger.Debug("Selected stored histories", logger.Fields{
		"stored":   len(snap.Histories),
		"selected": len(ids),
	})
	return ids, nil
}

// loadTraders returns trader offers, fetching them unless a usable snapshot exists
func (a *app) loadTraders(ctx context.Context) ([]tarkov.Trader, error) {
	mode := a.cfg.API.GameMode

	snap, err := a.store.Load(storage.KindTraders, mode)
	if err != nil {
		return nil, fmt.Errorf("loading traders snapshot: %w", err)
	}

	if a.offline && snap.Empty() {
		return nil, fmt.Errorf("no stored traders for game mode %s, run 'tarkov-market resell' online first", mode)
	}
	if a.usable(snap) {
		logger.Info("Using stored traders", logger.Fields{
			"run_id":     snap.RunID,
			"fetched_at": snap.FetchedAt,
			"traders":    len(snap.Traders),
		})
		return snap.Traders, nil
	}

	traders, err := a.client.Traders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching traders: %w", err)
	}

	saved, err := a.store.SaveTraders(traders, mode, a.cfg.API.Lang)
	if err != nil {
		return nil, fmt.Errorf("saving traders snapshot: %w", err)
	}
	logger.Info("Fetched traders", logger.Fields{"run_id": saved.RunID, "traders": len(traders)})

	return traders, nil
}

// namesFor returns a catalog for display names. Offline runs without a stored
// catalog fall back to item ids.
func (a *app) namesFor(ctx context.Context) (*market.Catalog, error) {
	items, err := a.loadItems(ctx, false)
	if err != nil {
		if a.offline {
			logger.Warn("No stored items, using ids as names", logger.Fields{"error": err.Error()})
			return market.NewCatalog(nil), nil
		}
		return nil, err
	}
	return market.NewCatalog(items), nil
}

// buildSeries converts histories into series in id order
func buildSeries(ids []string, histories map[string][]tarkov.HistoricalPrice) []market.Series {
	series := make([]market.Series, 0, len(ids))
	for _, id := range ids {
		series = append(series, market.NewSeries(id, histories[id]))
	}
	return series
}
