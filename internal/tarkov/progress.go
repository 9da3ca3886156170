package tarkov

import (
	"github.com/injoyai/bar"
)

// Progress reports batch progress to the user
type Progress interface {
	Step()
	Logf(format string, args ...interface{})
	Close()
}

type barProgress struct {
	step  func()
	logf  func(format string, args ...interface{})
	close func()
}

func (p *barProgress) Step()                                   { p.step() }
func (p *barProgress) Logf(format string, args ...interface{}) { p.logf(format, args...) }
func (p *barProgress) Close()                                  { p.close() }

// NewBarProgress draws a terminal progress bar
func NewBarProgress(total int) Progress {
	b := bar.New(
		bar.WithTotal(int64(total)),
		bar.WithPrefix("[history]"),
		bar.WithFlush(),
	)
	return &barProgress{
		step: func() {
			b.Add(1)
			b.Flush()
		},
		logf: func(format string, args ...interface{}) {
			b.Logf(format, args...)
			b.Flush()
		},
		close: func() {
			b.Close()
		},
	}
}

// NopProgress discards progress updates
func NopProgress(int) Progress {
	return nopProgress{}
}

type nopProgress struct{}

func (nopProgress) Step()                       {}
func (nopProgress) Logf(string, ...interface{}) {}
func (nopProgress) Close()                      {}
