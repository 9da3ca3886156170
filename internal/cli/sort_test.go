package cli

import (
	"math"
	"testing"

	"github.com/pfrederiksen/tarkov-market/internal/analysis"
	"github.com/pfrederiksen/tarkov-market/internal/market"
)

func nan() float64 { return math.NaN() }

func offer(trader, name string, prof, perc *float64) analysis.ResaleRow {
	return analysis.ResaleRow{
		OfferRow:    market.OfferRow{Name: name},
		TraderName:  trader,
		Prof1:       prof,
		Profit1Perc: perc,
	}
}

func ptr(v float64) *float64 { return &v }

func TestSortOffers(t *testing.T) {
	tests := []struct {
		name  string
		order SortOrder
		want  []string
	}{
		{"by profit", SortByProfit, []string{"Salewa", "GPU", "Bolts", "Nuts"}},
		{"by percent", SortByPercent, []string{"Bolts", "GPU", "Salewa", "Nuts"}},
		{"by name", SortByName, []string{"Bolts", "GPU", "Nuts", "Salewa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []analysis.ResaleRow{
				offer("Mechanic", "GPU", ptr(5000), ptr(10)),
				offer("Prapor", "Nuts", nil, nil),
				offer("Therapist", "Salewa", ptr(9000), ptr(5)),
				offer("Jaeger", "Bolts", ptr(100), ptr(50)),
			}
			sortOffers(rows, tt.order)

			for i, want := range tt.want {
				if rows[i].Name != want {
					t.Errorf("position %d: got %s, want %s", i, rows[i].Name, want)
				}
			}
		})
	}
}

func TestSortOffers_TieBreak(t *testing.T) {
	rows := []analysis.ResaleRow{
		offer("Skier", "GPU", ptr(100), nil),
		offer("Mechanic", "GPU", ptr(100), nil),
	}
	sortOffers(rows, SortByProfit)
	if rows[0].TraderName != "Mechanic" {
		t.Errorf("equal profits should order by trader, got %s first", rows[0].TraderName)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"profit", SortByProfit, false},
		{" Percent ", SortByPercent, false},
		{"NAME", SortByName, false},
		{"date", "", true},
	}

	for _, tt := range tests {
		got, err := parseSortOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSortOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSortOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
