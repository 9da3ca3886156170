package analysis

import (
	"math"
	"testing"

	"github.com/pfrederiksen/tarkov-market/internal/market"
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

type names map[string]string

func (n names) Name(id string) string {
	if v, ok := n[id]; ok {
		return v
	}
	return id
}

func series(id string, prices, mins []float64) market.Series {
	history := make([]tarkov.HistoricalPrice, len(prices))
	for i := range prices {
		history[i] = tarkov.HistoricalPrice{
			Price:     f(prices[i]),
			Timestamp: tarkov.Timestamp(1700000000000 + int64(i)*3600000),
		}
		if mins != nil && !math.IsNaN(mins[i]) {
			history[i].PriceMin = f(mins[i])
		}
	}
	return market.NewSeries(id, history)
}

func TestScreenItem(t *testing.T) {
	s := series("gpu", []float64{100, 110, 120, 130}, []float64{90, 100, 80, 70})

	row, ok := ScreenItem("Graphics card", s)
	require.True(t, ok)

	assert.Equal(t, "gpu", row.ID)
	assert.Equal(t, "Graphics card", row.Name)
	assert.Equal(t, 115.0, row.HighAvg7)
	assert.Equal(t, 85.0, row.LowAvg7)
	assert.Equal(t, 125.0, row.Last2HoursHigh)
	assert.Equal(t, 75.0, row.Last2HoursLow)
	assert.Equal(t, 10.0, row.ChangeHigh)
	assert.Equal(t, -10.0, row.ChangeLow)
	assert.Equal(t, 8.7, row.ChangeHighPrc)
	assert.Equal(t, -11.76, row.ChangeLowPrc)
}

func TestScreenItem_SinglePoint(t *testing.T) {
	row, ok := ScreenItem("x", series("x", []float64{50}, []float64{40}))
	require.True(t, ok)
	assert.Equal(t, 0.0, row.ChangeHigh)
	assert.Equal(t, 0.0, row.ChangeLow)
}

func TestScreenItem_MissingMinimums(t *testing.T) {
	row, ok := ScreenItem("x", series("x", []float64{50, 60}, []float64{math.NaN(), 40}))
	require.True(t, ok)
	assert.Equal(t, 40.0, row.LowAvg7)

	row, ok = ScreenItem("x", series("x", []float64{50, 60}, nil))
	require.True(t, ok)
	assert.True(t, math.IsNaN(row.LowAvg7))
	assert.True(t, math.IsNaN(row.ChangeLow))
}

func TestScreen_SkipsEmpty(t *testing.T) {
	rows := Screen(names{"a": "Alpha"}, []market.Series{
		series("a", []float64{1, 2}, []float64{1, 2}),
		series("b", nil, nil),
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0].Name)
}

func TestBuySellLists(t *testing.T) {
	rows := []ScreenRow{
		{ID: "down-small", ChangeLow: -1, ChangeLowPrc: -2},
		{ID: "up-big", ChangeLow: 10, ChangeLowPrc: 20},
		{ID: "flat", ChangeLow: 0, ChangeLowPrc: 0},
		{ID: "down-big", ChangeLow: -5, ChangeLowPrc: -15},
		{ID: "up-small", ChangeLow: 1, ChangeLowPrc: 3},
		{ID: "unknown", ChangeLow: math.NaN(), ChangeLowPrc: math.NaN()},
	}

	ids := func(rs []ScreenRow) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{"down-big", "down-small"}, ids(BuyList(rows)))
	assert.Equal(t, []string{"up-big", "up-small"}, ids(SellList(rows)))
}

func TestScreenTable(t *testing.T) {
	table := ScreenTable([]ScreenRow{{ID: "a", Name: "Alpha", ChangeLowPrc: -3.5}})
	assert.Len(t, table.Columns, 10)
	v, err := table.Cell(0, "change_low_prc")
	require.NoError(t, err)
	assert.Equal(t, -3.5, v)
}

func TestCommission(t *testing.T) {
	tests := []struct {
		name   string
		v0, vr float64
		qty    int
		want   float64
	}{
		{"at base price", 10000, 10000, 1, 600},
		{"at base price, ten units", 10000, 10000, 10, 6000},
		{"ten times below base", 10000, 1000, 1, 1207.5},
		{"ten times above base", 1000, 10000, 1, 1207.5},
		{"zero units", 1000, 1200, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Commission(tt.v0, tt.vr, tt.qty, DefaultFeeRates)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}

	_, ok := Commission(0, 100, 1, DefaultFeeRates)
	assert.False(t, ok)
	_, ok = Commission(100, 0, 1, DefaultFeeRates)
	assert.False(t, ok)
}

func TestCommission_GrowsWithPrice(t *testing.T) {
	prev := 0.0
	for _, vr := range []float64{5000, 11000, 20000, 50000} {
		fee, ok := Commission(11000, vr, 1, DefaultFeeRates)
		require.True(t, ok)
		assert.Greater(t, fee, prev)
		prev = fee
	}
}

func TestMinProfitablePrice(t *testing.T) {
	price, ok := MinProfitablePrice(1000, 500, DefaultFeeRates)
	require.True(t, ok)
	assert.Equal(t, 1000.0, price)

	price, ok = MinProfitablePrice(1000, 1000, DefaultFeeRates)
	require.True(t, ok)
	assert.Equal(t, 1075.0, price)

	_, ok = MinProfitablePrice(1000, 1e9, DefaultFeeRates)
	assert.False(t, ok)

	_, ok = MinProfitablePrice(0, 10, DefaultFeeRates)
	assert.False(t, ok)
}

func rgd5() market.OfferRow {
	return market.OfferRow{
		ItemID:         "rgd5",
		Name:           "RGD-5",
		BasePrice:      f(11000),
		Avg24hPrice:    f(15000),
		LastLowPrice:   f(14500),
		Category:       "Throwable weapon",
		MinTraderLevel: 1,
		Price:          f(9000),
		Currency:       "RUB",
		PriceRUB:       f(9000),
		BuyLimit:       10,
	}
}

func TestAnalyzeOffer(t *testing.T) {
	row := AnalyzeOffer(rgd5(), ResaleOptions{Rates: DefaultFeeRates})

	require.NotNil(t, row.Com1)
	require.NotNil(t, row.ComFull)
	require.NotNil(t, row.Prof1)
	require.NotNil(t, row.ProfFull)
	require.NotNil(t, row.Profit1Perc)
	require.NotNil(t, row.MinProfitPrice)

	com1, _ := Commission(11000, 14500, 1, DefaultFeeRates)
	assert.Equal(t, Round2(com1), *row.Com1)
	assert.InDelta(t, *row.Com1*10, *row.ComFull, 0.1)
	assert.InDelta(t, 14500-com1-9000, *row.Prof1, 0.01)
	assert.InDelta(t, *row.Prof1*10, *row.ProfFull, 0.1)
	assert.InDelta(t, *row.Prof1/9000*100, *row.Profit1Perc, 0.01)
	assert.GreaterOrEqual(t, *row.MinProfitPrice, 11000.0)
}

func TestAnalyzeOffer_AveragePrice(t *testing.T) {
	current := AnalyzeOffer(rgd5(), ResaleOptions{Rates: DefaultFeeRates})
	average := AnalyzeOffer(rgd5(), ResaleOptions{Rates: DefaultFeeRates, UseAverage: true})

	require.NotNil(t, average.Prof1)
	assert.Greater(t, *average.Prof1, *current.Prof1)
}

func TestAnalyzeOffer_Undefined(t *testing.T) {
	t.Run("no average price", func(t *testing.T) {
		o := rgd5()
		o.Avg24hPrice = nil
		row := AnalyzeOffer(o, ResaleOptions{Rates: DefaultFeeRates})
		assert.Nil(t, row.Com1)
		assert.Nil(t, row.Prof1)
		assert.Nil(t, row.MinProfitPrice)
	})

	t.Run("zero offer price", func(t *testing.T) {
		o := rgd5()
		o.Price = f(0)
		row := AnalyzeOffer(o, ResaleOptions{Rates: DefaultFeeRates})
		assert.NotNil(t, row.Com1)
		assert.Nil(t, row.Prof1)
		assert.Nil(t, row.Profit1Perc)
	})

	t.Run("no current offers", func(t *testing.T) {
		o := rgd5()
		o.LastLowPrice = nil
		row := AnalyzeOffer(o, ResaleOptions{Rates: DefaultFeeRates})
		assert.Nil(t, row.Com1)
		assert.Nil(t, row.Prof1)
		assert.NotNil(t, row.MinProfitPrice)
	})
}

func TestSortResale(t *testing.T) {
	rows := []ResaleRow{
		{OfferRow: market.OfferRow{ItemID: "b2", Category: "B", MinTraderLevel: 1}, Prof1: f(5)},
		{OfferRow: market.OfferRow{ItemID: "a-l2", Category: "A", MinTraderLevel: 2}, Prof1: f(100)},
		{OfferRow: market.OfferRow{ItemID: "a-nil", Category: "A", MinTraderLevel: 1}},
		{OfferRow: market.OfferRow{ItemID: "a-low", Category: "A", MinTraderLevel: 1}, Prof1: f(-3)},
		{OfferRow: market.OfferRow{ItemID: "a-high", Category: "A", MinTraderLevel: 1}, Prof1: f(30)},
		{OfferRow: market.OfferRow{ItemID: "b1", Category: "B", MinTraderLevel: 1}, Prof1: f(50)},
	}

	SortResale(rows)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.ItemID
	}
	assert.Equal(t, []string{"a-high", "a-low", "a-nil", "a-l2", "b1", "b2"}, got)
}

func TestAnalyzeTraders(t *testing.T) {
	traders := []tarkov.Trader{
		{
			ID:             "prapor-id",
			Name:           "Prapor",
			NormalizedName: "prapor",
			CashOffers: []tarkov.CashOffer{{
				Item: tarkov.Item{
					ID: "rgd5", Name: "RGD-5", BasePrice: f(11000), Avg24hPrice: f(15000),
					LastLowPrice: f(14500), Category: &tarkov.Category{Name: "Throwable weapon"},
				},
				MinTraderLevel: 1, Price: f(9000), Currency: "RUB", PriceRUB: f(9000), BuyLimit: 10,
			}},
		},
		{ID: "fence-id", Name: "Fence", NormalizedName: "fence"},
	}

	skip := func(tr tarkov.Trader) bool { return tr.NormalizedName == "fence" }
	reports := AnalyzeTraders(traders, ResaleOptions{Rates: DefaultFeeRates}, skip)

	require.Len(t, reports, 1)
	assert.Equal(t, "Prapor", reports[0].TraderName)
	require.Len(t, reports[0].Rows, 1)
	assert.Equal(t, "prapor-id", reports[0].Rows[0].TraderID)

	best := Best(reports, 5)
	require.Len(t, best, 1)
	assert.Equal(t, "rgd5", best[0].ItemID)

	table := ResaleTable(reports[0].Rows)
	assert.Equal(t, 1, table.Len())
	v, err := table.Cell(0, "trader_name")
	require.NoError(t, err)
	assert.Equal(t, "Prapor", v)
	v, _ = table.Cell(0, "taskUnlock")
	assert.Nil(t, v)
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	require.Len(t, got, 4)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, got[1:])

	short := MovingAverage([]float64{1, 2}, 24)
	assert.True(t, math.IsNaN(short[0]) && math.IsNaN(short[1]))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.35, Round2(2.345))
	assert.Equal(t, -1.23, Round2(-1.234))
	assert.Equal(t, 8.7, Round2(8.695652173913))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.True(t, math.IsInf(Round2(math.Inf(-1)), -1))
}
