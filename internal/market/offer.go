package market

import (
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
)

// OfferRow is a trader cash offer joined with the item it sells. Trader sell
// prices are dropped; only the flea market sell price is kept.
type OfferRow struct {
	ItemID         string
	Name           string
	BasePrice      *float64
	Low24hPrice    *float64
	Avg24hPrice    *float64
	LastLowPrice   *float64
	LastOfferCount *int
	Category       string
	SellFlea       *float64
	MinTraderLevel int
	Price          *float64
	Currency       string
	PriceRUB       *float64
	BuyLimit       int
	TaskUnlock     string
}

// FlattenOffers turns a trader's cash offers into rows
func FlattenOffers(trader tarkov.Trader) []OfferRow {
	rows := make([]OfferRow, 0, len(trader.CashOffers))
	for _, o := range trader.CashOffers {
		row := OfferRow{
			ItemID:         o.Item.ID,
			Name:           o.Item.Name,
			BasePrice:      o.Item.BasePrice,
			Low24hPrice:    o.Item.Low24hPrice,
			Avg24hPrice:    o.Item.Avg24hPrice,
			LastLowPrice:   o.Item.LastLowPrice,
			LastOfferCount: o.Item.LastOfferCount,
			Category:       o.Item.CategoryName(),
			SellFlea:       pricesBySource(o.Item.SellFor)[FleaMarket],
			MinTraderLevel: o.MinTraderLevel,
			Price:          o.Price,
			Currency:       o.Currency,
			PriceRUB:       o.PriceRUB,
			BuyLimit:       o.BuyLimit,
		}
		if o.TaskUnlock != nil {
			row.TaskUnlock = o.TaskUnlock.Name
		}
		rows = append(rows, row)
	}
	return rows
}
