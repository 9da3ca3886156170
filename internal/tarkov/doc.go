// Package tarkov is a thin client for the public tarkov.dev GraphQL API.
//
// It fetches the item catalog with current flea market and trader prices,
// per-item price histories, and trader cash offers. Requests that fail with a
// transport error, 429 or 5xx are retried with exponential backoff; history
// batches are fetched sequentially with a fixed pause between requests.
package tarkov
