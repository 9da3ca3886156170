// Package cli implements the command-line interface for tarkov-market.
//
// The cli package provides the Cobra-based CLI with commands to export the item
// catalog, fetch price histories, screen items for short-term trends, render
// charts, estimate trader resale profit and run the screener on a schedule.
// It coordinates the tarkov, storage, analysis, chart and report packages and
// prints a text or JSON summary of each run.
package cli
