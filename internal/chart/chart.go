// Package chart renders item price histories as PNG line charts.
package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pfrederiksen/tarkov-market/internal/analysis"
	"github.com/pfrederiksen/tarkov-market/internal/logger"
	"github.com/pfrederiksen/tarkov-market/internal/market"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	DPI           = 100
	DefaultWindow = 24

	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

// ErrNoData is returned for a series without points
var ErrNoData = errors.New("no price data")

var (
	priceColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	maColor    = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

// Renderer draws price charts
type Renderer struct {
	// Window is the moving average length in samples
	Window int
}

// New creates a Renderer with the given moving average window
func New(window int) *Renderer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Renderer{Window: window}
}

// Render writes a line chart of the series price with its moving average to path
func (r *Renderer) Render(s market.Series, name, path string) error {
	if s.Len() == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Line Chart for " + name
	p.Y.Label.Text = "Price (RUB)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02 15:04"}
	p.Add(plotter.NewGrid())

	times := s.Times()
	closes := s.Closes()

	price := make(plotter.XYs, len(closes))
	for i := range closes {
		price[i].X = float64(times[i].Unix())
		price[i].Y = closes[i]
	}
	line, err := plotter.NewLine(price)
	if err != nil {
		return fmt.Errorf("building price line: %w", err)
	}
	line.Color = priceColor
	p.Add(line)
	p.Legend.Add("price", line)

	ma := analysis.MovingAverage(closes, r.Window)
	maPoints := make(plotter.XYs, 0, len(ma))
	for i, v := range ma {
		if math.IsNaN(v) {
			continue
		}
		maPoints = append(maPoints, plotter.XY{X: float64(times[i].Unix()), Y: v})
	}
	if len(maPoints) > 0 {
		maLine, err := plotter.NewLine(maPoints)
		if err != nil {
			return fmt.Errorf("building moving average line: %w", err)
		}
		maLine.Color = maColor
		maLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(maLine)
		p.Legend.Add(fmt.Sprintf("MA(%d)", r.Window), maLine)
	}
	p.Legend.Top = true

	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(DPI))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing chart: %w", err)
	}
	return f.Close()
}

// Result describes what RenderAll produced
type Result struct {
	Written []string
	Failed  []string
}

// RenderAll writes one <name>.png per series into dir using up to workers
// goroutines. A failing item is logged and skipped; only setup errors and
// cancellation are returned.
func (r *Renderer) RenderAll(ctx context.Context, names analysis.Namer, series []market.Series, dir string, workers int) (*Result, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating chart directory: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}

	written := make([]string, len(series))
	failed := make([]bool, len(series))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range series {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := series[i]
			name := names.Name(s.ItemID)
			path := filepath.Join(dir, market.FileName(name)+".png")

			if err := r.Render(s, name, path); err != nil {
				logger.Warn("Plotting failed, probably data is missing", logger.Fields{
					"item_id": s.ItemID,
					"name":    name,
					"error":   err.Error(),
				})
				failed[i] = true
				return nil
			}
			written[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Written: make([]string, 0, len(series)), Failed: make([]string, 0)}
	for i := range series {
		switch {
		case failed[i]:
			res.Failed = append(res.Failed, series[i].ItemID)
		case written[i] != "":
			res.Written = append(res.Written, written[i])
		}
	}
	return res, nil
}
