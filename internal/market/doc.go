// Package market shapes tarkov.dev API responses into tabular form.
//
// Items are flattened into one row each with a ruble price per buy and sell
// source, price histories become time-ordered OHLC series, and trader cash
// offers are joined with the items they sell.
package market
