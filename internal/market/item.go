package market

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
)

const (
	BuyPrefix  = "buy_"
	SellPrefix = "sell_"

	// FleaMarket is the source name of flea market prices
	FleaMarket = "flea-market"
)

// ItemRow is an item flattened for tabular output: buyFor/sellFor lists become
// one ruble price per source.
type ItemRow struct {
	ID                   string
	Name                 string
	NormalizedName       string
	ShortName            string
	Width                int
	Height               int
	Avg24hPrice          *float64
	LastLowPrice         *float64
	ChangeLast48h        *float64
	Low24hPrice          *float64
	High24hPrice         *float64
	LastOfferCount       *int
	ChangeLast48hPercent *float64
	Category             string
	Buy                  map[string]*float64
	Sell                 map[string]*float64
	BartersFor           int
	BartersUsing         int
}

// FlattenItem converts an API item to a row. When a source appears more than
// once the last entry wins.
func FlattenItem(item tarkov.Item) ItemRow {
	return ItemRow{
		ID:                   item.ID,
		Name:                 item.Name,
		NormalizedName:       item.NormalizedName,
		ShortName:            item.ShortName,
		Width:                item.Width,
		Height:               item.Height,
		Avg24hPrice:          item.Avg24hPrice,
		LastLowPrice:         item.LastLowPrice,
		ChangeLast48h:        item.ChangeLast48h,
		Low24hPrice:          item.Low24hPrice,
		High24hPrice:         item.High24hPrice,
		LastOfferCount:       item.LastOfferCount,
		ChangeLast48hPercent: item.ChangeLast48hPercent,
		Category:             item.CategoryName(),
		Buy:                  pricesBySource(item.BuyFor),
		Sell:                 pricesBySource(item.SellFor),
		BartersFor:           len(item.BartersFor),
		BartersUsing:         len(item.BartersUsing),
	}
}

func pricesBySource(prices []tarkov.ItemPrice) map[string]*float64 {
	out := make(map[string]*float64, len(prices))
	for _, p := range prices {
		out[p.Source] = p.PriceRUB
	}
	return out
}

var itemColumns = []string{
	"id", "name", "normalizedName", "shortName", "width", "height",
	"avg24hPrice", "lastLowPrice", "changeLast48h", "low24hPrice", "high24hPrice",
	"lastOfferCount", "changeLast48hPercent", "category", "bartersFor", "bartersUsing",
}

// ItemsTable renders rows as a table. Price source columns follow the fixed
// columns, buy_ before sell_, each group sorted by source name.
func ItemsTable(rows []ItemRow) *Table {
	buySources := sourceNames(rows, func(r ItemRow) map[string]*float64 { return r.Buy })
	sellSources := sourceNames(rows, func(r ItemRow) map[string]*float64 { return r.Sell })

	columns := append([]string{}, itemColumns...)
	for _, s := range buySources {
		columns = append(columns, BuyPrefix+s)
	}
	for _, s := range sellSources {
		columns = append(columns, SellPrefix+s)
	}

	t := NewTable(columns...)
	for _, r := range rows {
		cells := []interface{}{
			r.ID, r.Name, r.NormalizedName, r.ShortName, r.Width, r.Height,
			Float(r.Avg24hPrice), Float(r.LastLowPrice), Float(r.ChangeLast48h),
			Float(r.Low24hPrice), Float(r.High24hPrice), Int(r.LastOfferCount),
			Float(r.ChangeLast48hPercent), r.Category, r.BartersFor, r.BartersUsing,
		}
		for _, s := range buySources {
			cells = append(cells, Float(r.Buy[s]))
		}
		for _, s := range sellSources {
			cells = append(cells, Float(r.Sell[s]))
		}
		t.Append(cells...)
	}
	return t
}

func sourceNames(rows []ItemRow, pick func(ItemRow) map[string]*float64) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for s := range pick(r) {
			seen[s] = true
		}
	}
	names := make([]string, 0, len(seen))
	for s := range seen {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// Catalog looks items up by id
type Catalog struct {
	items map[string]*tarkov.Item
	order []string
}

// NewCatalog indexes items, keeping API order
func NewCatalog(items []tarkov.Item) *Catalog {
	c := &Catalog{
		items: make(map[string]*tarkov.Item, len(items)),
		order: make([]string, 0, len(items)),
	}
	for i := range items {
		id := items[i].ID
		if _, dup := c.items[id]; !dup {
			c.order = append(c.order, id)
		}
		c.items[id] = &items[i]
	}
	return c
}

// Get returns the item with the given id
func (c *Catalog) Get(id string) (*tarkov.Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.order)
}

// Name returns the item's display name with double quotes replaced by spaces.
// Unknown ids are returned as-is.
func (c *Catalog) Name(id string) string {
	item, ok := c.items[id]
	if !ok {
		return id
	}
	return strings.ReplaceAll(item.Name, `"`, " ")
}

// Filter selects items for history fetching
type Filter struct {
	IDs        []string
	Categories []string
	MinOffers  int
	Limit      int
}

// Select returns the ids matching f in catalog order. Explicit ids bypass the
// other criteria.
func (c *Catalog) Select(f Filter) []string {
	if len(f.IDs) > 0 {
		return limit(append([]string{}, f.IDs...), f.Limit)
	}

	out := make([]string, 0)
	for _, id := range c.order {
		item := c.items[id]
		if len(f.Categories) > 0 && !containsFold(f.Categories, item.CategoryName()) {
			continue
		}
		offers := 0
		if item.LastOfferCount != nil {
			offers = *item.LastOfferCount
		}
		if offers < f.MinOffers {
			continue
		}
		out = append(out, id)
	}
	return limit(out, f.Limit)
}

func limit(ids []string, n int) []string {
	if n > 0 && len(ids) > n {
		return ids[:n]
	}
	return ids
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// FileName makes an item or trader name safe to use as a file name
func FileName(name string) string {
	r := strings.NewReplacer(`"`, " ", "/", "_", `\`, "_", ":", "_")
	return strings.TrimSpace(r.Replace(name))
}
