// Package storage provides JSON-based persistence for API snapshots.
//
// Each fetch of the item catalog, price histories or trader offers is saved
// as one pretty-printed JSON file per kind and game mode
// (items_regular.json, histories_pve.json, ...), so analysis can be rerun
// offline or reuse recent data. The default storage location is
// ~/.local/share/tarkov-market/.
package storage
