package tarkov

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is the item category as returned by the API
type Category struct {
	Name string `json:"name"`
}

// ItemPrice is a single buyFor/sellFor entry
type ItemPrice struct {
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	PriceRUB *float64 `json:"priceRUB"`
	Source   string   `json:"source"`
}

// Ref is an object reference that only carries an id
type Ref struct {
	ID string `json:"id"`
}

// Item holds the catalog fields of one item
type Item struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	NormalizedName       string      `json:"normalizedName"`
	ShortName            string      `json:"shortName"`
	Width                int         `json:"width"`
	Height               int         `json:"height"`
	BasePrice            *float64    `json:"basePrice,omitempty"`
	Avg24hPrice          *float64    `json:"avg24hPrice"`
	LastLowPrice         *float64    `json:"lastLowPrice"`
	ChangeLast48h        *float64    `json:"changeLast48h"`
	Low24hPrice          *float64    `json:"low24hPrice"`
	High24hPrice         *float64    `json:"high24hPrice"`
	LastOfferCount       *int        `json:"lastOfferCount"`
	ChangeLast48hPercent *float64    `json:"changeLast48hPercent"`
	Category             *Category   `json:"category"`
	BuyFor               []ItemPrice `json:"buyFor"`
	SellFor              []ItemPrice `json:"sellFor"`
	BartersFor           []Ref       `json:"bartersFor"`
	BartersUsing         []Ref       `json:"bartersUsing"`
}

// CategoryName returns the category name or an empty string
func (i *Item) CategoryName() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.Name
}

// HistoricalPrice is one point of an item's price history.
// PriceMin may be missing for points where no minimum was recorded.
type HistoricalPrice struct {
	Price     *float64  `json:"price"`
	PriceMin  *float64  `json:"priceMin"`
	Timestamp Timestamp `json:"timestamp"`
}

// Timestamp is a Unix time in milliseconds. The API sends it as a string,
// older responses and fixtures as a number; both are accepted.
type Timestamp int64

// UnmarshalJSON accepts "1700000000000" and 1700000000000
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*t = 0
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
		}
		ms = int64(f)
	}
	*t = Timestamp(ms)
	return nil
}

// MarshalJSON writes the timestamp the way the API sends it
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(t), 10))
}

// Time converts to local time
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t))
}

// Task is the quest that unlocks a trader offer
type Task struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CashOffer is a trader's ruble/dollar/euro offer for one item
type CashOffer struct {
	Item           Item     `json:"item"`
	MinTraderLevel int      `json:"minTraderLevel"`
	Price          *float64 `json:"price"`
	Currency       string   `json:"currency"`
	PriceRUB       *float64 `json:"priceRUB"`
	BuyLimit       int      `json:"buyLimit"`
	TaskUnlock     *Task    `json:"taskUnlock"`
}

// Trader is a trader with the offers it sells for cash
type Trader struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	NormalizedName string      `json:"normalizedName"`
	CashOffers     []CashOffer `json:"cashOffers"`
}
