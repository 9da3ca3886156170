package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/tarkov-market/internal/analysis"
)

// SortOrder represents the available sorting options for resale offers
type SortOrder string

const (
	SortByProfit  SortOrder = "profit"
	SortByPercent SortOrder = "percent"
	SortByName    SortOrder = "name"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByProfit, SortByPercent, SortByName:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'profit', 'percent' or 'name')", s)
	}
}

// sortOffers sorts resale rows based on the specified sort order
func sortOffers(rows []analysis.ResaleRow, order SortOrder) {
	switch order {
	case SortByProfit:
		sort.SliceStable(rows, func(i, j int) bool {
			return compareByValue(rows[i].Prof1, rows[j].Prof1, rows[i], rows[j])
		})
	case SortByPercent:
		sort.SliceStable(rows, func(i, j int) bool {
			return compareByValue(rows[i].Profit1Perc, rows[j].Profit1Perc, rows[i], rows[j])
		})
	case SortByName:
		sort.SliceStable(rows, func(i, j int) bool {
			if !strings.EqualFold(rows[i].Name, rows[j].Name) {
				return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
			}
			// Same item from several traders, most profitable first
			return compareByValue(rows[i].Prof1, rows[j].Prof1, rows[i], rows[j])
		})
	}
}

// compareByValue orders larger values first with unknown values last.
// Returns true if row i should come before row j.
func compareByValue(a, b *float64, i, j analysis.ResaleRow) bool {
	if a != nil && b != nil && *a != *b {
		return *a > *b
	}

	// If only one value is known, put the known one first
	if a != nil && b == nil {
		return true
	}
	if a == nil && b != nil {
		return false
	}

	// Equal or both unknown, sort by trader then name
	if i.TraderName != j.TraderName {
		return i.TraderName < j.TraderName
	}
	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}
