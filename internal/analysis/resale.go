package analysis

import (
	"sort"

	"github.com/pfrederiksen/tarkov-market/internal/logger"
	"github.com/pfrederiksen/tarkov-market/internal/market"
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
)

// ResaleOptions control how resale profit is estimated
type ResaleOptions struct {
	Rates FeeRates
	// UseAverage sells at the 24h average price instead of the lowest current offer
	UseAverage bool
}

// ResaleRow is a trader offer with the estimated profit of reselling it on the
// flea market. Nil values could not be computed.
type ResaleRow struct {
	market.OfferRow
	Com1           *float64
	ComFull        *float64
	Prof1          *float64
	ProfFull       *float64
	Profit1Perc    *float64
	MinProfitPrice *float64
	TraderName     string
	TraderID       string
}

// TraderReport holds the analyzed offers of one trader
type TraderReport struct {
	TraderID   string
	TraderName string
	Rows       []ResaleRow
}

func (o ResaleOptions) sellPrice(row market.OfferRow) *float64 {
	if o.UseAverage {
		return row.Avg24hPrice
	}
	return row.LastLowPrice
}

// commissions returns the fee for one unit and for the full buy limit
func (o ResaleOptions) commissions(row market.OfferRow) (one, full *float64) {
	if row.Avg24hPrice == nil || row.BasePrice == nil {
		return nil, nil
	}
	sell := o.sellPrice(row)
	if sell == nil {
		return nil, nil
	}

	c1, ok := Commission(*row.BasePrice, *sell, 1, o.Rates)
	if !ok {
		return nil, nil
	}
	cf, _ := Commission(*row.BasePrice, *sell, row.BuyLimit, o.Rates)
	return &c1, &cf
}

// profits returns profit per unit, for the full buy limit, and per unit as a
// percentage of the offer price
func (o ResaleOptions) profits(row market.OfferRow, com1, comFull *float64) (one, full, perc *float64) {
	if row.Avg24hPrice == nil || row.Price == nil || *row.Price == 0 {
		return nil, nil, nil
	}
	sell := o.sellPrice(row)
	if sell == nil || row.PriceRUB == nil || com1 == nil || comFull == nil {
		return nil, nil, nil
	}

	limit := float64(row.BuyLimit)
	p1 := *sell - *com1 - *row.PriceRUB
	pf := *sell*limit - *comFull - *row.PriceRUB*limit
	pp := p1 / *row.Price * 100
	return &p1, &pf, &pp
}

// AnalyzeOffer computes fees and profits for one offer
func AnalyzeOffer(row market.OfferRow, opts ResaleOptions) ResaleRow {
	out := ResaleRow{OfferRow: row}

	out.Com1, out.ComFull = opts.commissions(row)
	out.Prof1, out.ProfFull, out.Profit1Perc = opts.profits(row, out.Com1, out.ComFull)

	if row.Avg24hPrice != nil && row.BasePrice != nil && row.PriceRUB != nil {
		if p, ok := MinProfitablePrice(*row.BasePrice, *row.PriceRUB, opts.Rates); ok {
			out.MinProfitPrice = &p
		}
	}

	out.Com1 = round2Ptr(out.Com1)
	out.ComFull = round2Ptr(out.ComFull)
	out.Prof1 = round2Ptr(out.Prof1)
	out.ProfFull = round2Ptr(out.ProfFull)
	out.Profit1Perc = round2Ptr(out.Profit1Perc)
	out.MinProfitPrice = round2Ptr(out.MinProfitPrice)
	return out
}

// AnalyzeTrader computes every offer of a trader, ordered by category and
// minimum trader level, most profitable first within each group.
func AnalyzeTrader(trader tarkov.Trader, opts ResaleOptions) TraderReport {
	offers := market.FlattenOffers(trader)
	rows := make([]ResaleRow, 0, len(offers))
	for _, o := range offers {
		row := AnalyzeOffer(o, opts)
		row.TraderName = trader.Name
		row.TraderID = trader.ID
		rows = append(rows, row)
	}

	SortResale(rows)

	return TraderReport{
		TraderID:   trader.ID,
		TraderName: trader.Name,
		Rows:       rows,
	}
}

// AnalyzeTraders runs AnalyzeTrader for every trader not rejected by skip
func AnalyzeTraders(traders []tarkov.Trader, opts ResaleOptions, skip func(tarkov.Trader) bool) []TraderReport {
	reports := make([]TraderReport, 0, len(traders))
	for _, tr := range traders {
		if skip != nil && skip(tr) {
			logger.Debug("Skipping trader", logger.Fields{"trader": tr.NormalizedName})
			continue
		}
		reports = append(reports, AnalyzeTrader(tr, opts))
	}
	return reports
}

// SortResale orders rows by category and minimum trader level ascending, then
// by single-unit profit descending with unknown profits last.
func SortResale(rows []ResaleRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.MinTraderLevel != b.MinTraderLevel {
			return a.MinTraderLevel < b.MinTraderLevel
		}
		switch {
		case a.Prof1 == nil:
			return false
		case b.Prof1 == nil:
			return true
		default:
			return *a.Prof1 > *b.Prof1
		}
	})
}

// Best returns up to n rows across reports with the highest single-unit profit
func Best(reports []TraderReport, n int) []ResaleRow {
	all := make([]ResaleRow, 0)
	for _, r := range reports {
		for _, row := range r.Rows {
			if row.Prof1 != nil && *row.Prof1 > 0 {
				all = append(all, row)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return *all[i].Prof1 > *all[j].Prof1
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// ResaleTable renders analyzed offers for export
func ResaleTable(rows []ResaleRow) *market.Table {
	t := market.NewTable(
		"id", "name", "basePrice", "low24hPrice", "avg24hPrice", "lastLowPrice",
		"lastOfferCount", "category", market.SellPrefix+market.FleaMarket,
		"minTraderLevel", "price", "currency", "priceRUB", "buyLimit", "taskUnlock",
		"com_1", "com_full", "prof_1", "prof_full", "profit_1_perc", "min_profit_price",
		"trader_name", "trader_id",
	)
	for _, r := range rows {
		var task interface{}
		if r.TaskUnlock != "" {
			task = r.TaskUnlock
		}
		t.Append(
			r.ItemID, r.Name, market.Float(r.BasePrice), market.Float(r.Low24hPrice),
			market.Float(r.Avg24hPrice), market.Float(r.LastLowPrice), market.Int(r.LastOfferCount),
			r.Category, market.Float(r.SellFlea),
			r.MinTraderLevel, market.Float(r.Price), r.Currency, market.Float(r.PriceRUB),
			r.BuyLimit, task,
			market.Float(r.Com1), market.Float(r.ComFull), market.Float(r.Prof1),
			market.Float(r.ProfFull), market.Float(r.Profit1Perc), market.Float(r.MinProfitPrice),
			r.TraderName, r.TraderID,
		)
	}
	return t
}
