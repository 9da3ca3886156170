package analysis

import (
	"sort"

	"github.com/pfrederiksen/tarkov-market/internal/logger"
	"github.com/pfrederiksen/tarkov-market/internal/market"
)

// recentPoints is the number of trailing samples compared against the period average
const recentPoints = 2

// Namer resolves item ids to display names
type Namer interface {
	Name(id string) string
}

// ScreenRow compares an item's most recent prices against its period average.
// All values are rounded to two decimals.
type ScreenRow struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	HighAvg7       float64 `json:"high_avg_7"`
	LowAvg7        float64 `json:"low_avg_7"`
	Last2HoursHigh float64 `json:"last_2_hours_high"`
	Last2HoursLow  float64 `json:"last_2_hours_low"`
	ChangeHigh     float64 `json:"change_high"`
	ChangeLow      float64 `json:"change_low"`
	ChangeHighPrc  float64 `json:"change_high_prc"`
	ChangeLowPrc   float64 `json:"change_low_prc"`
}

// ScreenItem computes the trend row of one series. ok is false when the
// series has no points.
func ScreenItem(name string, s market.Series) (ScreenRow, bool) {
	if s.Len() == 0 {
		return ScreenRow{}, false
	}

	highs := s.Highs()
	lows := s.Lows()

	highAvg := mean(highs)
	lowAvg := mean(lows)
	lastHigh := mean(tail(highs, recentPoints))
	lastLow := mean(tail(lows, recentPoints))

	changeHigh := lastHigh - highAvg
	changeLow := lastLow - lowAvg

	return ScreenRow{
		ID:             s.ItemID,
		Name:           name,
		HighAvg7:       Round2(highAvg),
		LowAvg7:        Round2(lowAvg),
		Last2HoursHigh: Round2(lastHigh),
		Last2HoursLow:  Round2(lastLow),
		ChangeHigh:     Round2(changeHigh),
		ChangeLow:      Round2(changeLow),
		ChangeHighPrc:  Round2(changeHigh / highAvg * 100),
		ChangeLowPrc:   Round2(changeLow / lowAvg * 100),
	}, true
}

// Screen computes trend rows for every series that has data, in input order.
func Screen(names Namer, series []market.Series) []ScreenRow {
	rows := make([]ScreenRow, 0, len(series))
	for _, s := range series {
		name := names.Name(s.ItemID)
		row, ok := ScreenItem(name, s)
		if !ok {
			logger.Debug("No price history", logger.Fields{"item_id": s.ItemID, "name": name})
			continue
		}
		rows = append(rows, row)
	}

	logger.Info("Screened items", logger.Fields{
		"items":    len(series),
		"screened": len(rows),
	})
	return rows
}

// BuyList returns items whose recent minimum price is below the period
// average, steepest drop first.
func BuyList(rows []ScreenRow) []ScreenRow {
	out := make([]ScreenRow, 0)
	for _, r := range rows {
		if r.ChangeLow < 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangeLowPrc < out[j].ChangeLowPrc
	})
	return out
}

// SellList returns items whose recent minimum price is above the period
// average, steepest rise first.
func SellList(rows []ScreenRow) []ScreenRow {
	out := make([]ScreenRow, 0)
	for _, r := range rows {
		if r.ChangeLow > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangeLowPrc > out[j].ChangeLowPrc
	})
	return out
}

// ScreenTable renders screener rows for export
func ScreenTable(rows []ScreenRow) *market.Table {
	t := market.NewTable(
		"id", "name", "high_avg_7", "low_avg_7", "last_2_hours_high", "last_2_hours_low",
		"change_high", "change_low", "change_high_prc", "change_low_prc",
	)
	for _, r := range rows {
		t.Append(
			r.ID, r.Name, r.HighAvg7, r.LowAvg7, r.Last2HoursHigh, r.Last2HoursLow,
			r.ChangeHigh, r.ChangeLow, r.ChangeHighPrc, r.ChangeLowPrc,
		)
	}
	return t
}
