package tarkov

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/tarkov-market/internal/logger"
)

// Items fetches the full item catalog with current flea and trader prices
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	var data struct {
		Items []Item `json:"items"`
	}
	if err := c.RunQuery(ctx, itemsQuery, c.baseVariables(), &data); err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}
	return data.Items, nil
}

// HistoricalPrices fetches the price history of one item over the configured
// number of days
func (c *Client) HistoricalPrices(ctx context.Context, id string) ([]HistoricalPrice, error) {
	if id == "" {
		return nil, fmt.Errorf("item id is required")
	}

	vars := c.baseVariables()
	vars["id"] = id
	vars["days"] = c.historyDays

	var data struct {
		HistoricalItemPrices []HistoricalPrice `json:"historicalItemPrices"`
	}
	if err := c.RunQuery(ctx, historicalPricesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", id, err)
	}
	return data.HistoricalItemPrices, nil
}

// HistoricalPricesBatch fetches histories one item at a time, pausing between
// requests. Items whose request fails are logged and mapped to an empty history;
// only cancellation stops the batch early, returning what was fetched so far.
func (c *Client) HistoricalPricesBatch(ctx context.Context, ids []string) (map[string][]HistoricalPrice, error) {
	histories := make(map[string][]HistoricalPrice, len(ids))

	progress := c.newProgress(len(ids))
	defer progress.Close()

	failed := 0
	for i, id := range ids {
		if i > 0 && c.delay > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return histories, err
			}
		}

		prices, err := c.HistoricalPrices(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return histories, ctx.Err()
			}
			failed++
			progress.Logf("[error] %s: %v", id, err)
			logger.Error("History request failed", logger.Fields{"item_id": id}, err)
			prices = nil
		}
		histories[id] = prices
		progress.Step()
	}

	logger.Info("Fetched price histories", logger.Fields{
		"items":  len(ids),
		"failed": failed,
		"days":   c.historyDays,
	})

	return histories, nil
}

// Traders fetches every trader with its cash offers
func (c *Client) Traders(ctx context.Context) ([]Trader, error) {
	var data struct {
		Traders []Trader `json:"traders"`
	}
	if err := c.RunQuery(ctx, tradersQuery, c.baseVariables(), &data); err != nil {
		return nil, fmt.Errorf("fetching traders: %w", err)
	}
	return data.Traders, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
