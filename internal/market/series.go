package market

import (
	"sort"
	"time"

	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
)

// Point is one history sample in OHLC form. The API only reports an average
// and a minimum price, so Open, High and Close all carry the average and Low
// carries the minimum when one was recorded.
type Point struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   *float64  `json:"low,omitempty"`
	Close float64   `json:"close"`
}

// Series is an item's price history ordered by time
type Series struct {
	ItemID string  `json:"item_id"`
	Points []Point `json:"points"`
}

// NewSeries converts raw history. Samples without a price are dropped.
func NewSeries(itemID string, history []tarkov.HistoricalPrice) Series {
	points := make([]Point, 0, len(history))
	for _, h := range history {
		if h.Price == nil {
			continue
		}
		points = append(points, Point{
			Time:  h.Timestamp.Time(),
			Open:  *h.Price,
			High:  *h.Price,
			Low:   h.PriceMin,
			Close: *h.Price,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	return Series{ItemID: itemID, Points: points}
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s.Points)
}

// Highs returns the high price of every point
func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.High
	}
	return out
}

// Closes returns the close price of every point
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Lows returns the recorded minimum prices, skipping points without one
func (s Series) Lows() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Low != nil {
			out = append(out, *p.Low)
		}
	}
	return out
}

// Times returns the timestamp of every point
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}
