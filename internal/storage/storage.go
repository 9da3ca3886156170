package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
	"github.com/tidwall/pretty"
)

// Kind names the type of data held in a snapshot
type Kind string

const (
	KindItems     Kind = "items"
	KindHistories Kind = "histories"
	KindTraders   Kind = "traders"
)

// Snapshot is one fetch of API data. Only the fields matching its Kind are set.
type Snapshot struct {
	RunID     string                              `json:"run_id"`
	Kind      Kind                                `json:"kind"`
	GameMode  string                              `json:"game_mode"`
	Lang      string                              `json:"lang"`
	FetchedAt time.Time                           `json:"fetched_at"`
	Items     []tarkov.Item                       `json:"items,omitempty"`
	Order     []string                            `json:"order,omitempty"`
	Histories map[string][]tarkov.HistoricalPrice `json:"histories,omitempty"`
	Traders   []tarkov.Trader                     `json:"traders,omitempty"`
}

// NewSnapshot creates an empty snapshot stamped with a fresh run id and the current time
func NewSnapshot(kind Kind, gameMode, lang string) *Snapshot {
	return &Snapshot{
		RunID:     uuid.New().String(),
		Kind:      kind,
		GameMode:  gameMode,
		Lang:      lang,
		FetchedAt: time.Now().UTC(),
	}
}

// Empty reports whether the snapshot holds no data
func (s *Snapshot) Empty() bool {
	return len(s.Items) == 0 && len(s.Histories) == 0 && len(s.Traders) == 0
}

// Fresh reports whether the snapshot was fetched less than maxAge ago
func (s *Snapshot) Fresh(maxAge time.Duration) bool {
	if s.Empty() || s.FetchedAt.IsZero() {
		return false
	}
	return time.Since(s.FetchedAt) < maxAge
}

// HistoryIDs returns history item ids in fetch order
func (s *Snapshot) HistoryIDs() []string {
	if len(s.Order) > 0 {
		return s.Order
	}
	ids := make([]string, 0, len(s.Histories))
	for id := range s.Histories {
		ids = append(ids, id)
	}
	return ids
}

// Storage handles persistence of API snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// getSnapshotPath returns the path to the snapshot file
func (s *Storage) getSnapshotPath(kind Kind, gameMode string) string {
	if gameMode == "" {
		gameMode = "regular"
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.json", kind, strings.ToLower(gameMode)))
}

// Load loads a snapshot from disk. A missing file yields an empty snapshot.
func (s *Storage) Load(kind Kind, gameMode string) (*Snapshot, error) {
	path := s.getSnapshotPath(kind, gameMode)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{Kind: kind, GameMode: gameMode}, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Histories == nil {
		snapshot.Histories = make(map[string][]tarkov.HistoricalPrice)
	}

	return &snapshot, nil
}

// Save writes a snapshot to disk
func (s *Storage) Save(snapshot *Snapshot) error {
	path := s.getSnapshotPath(snapshot.Kind, snapshot.GameMode)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, pretty.Pretty(data), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// SaveItems stores a fetched item catalog
func (s *Storage) SaveItems(items []tarkov.Item, gameMode, lang string) (*Snapshot, error) {
	snap := NewSnapshot(KindItems, gameMode, lang)
	snap.Items = items
	return snap, s.Save(snap)
}

// SaveHistories stores fetched histories, remembering the order of ids
func (s *Storage) SaveHistories(ids []string, histories map[string][]tarkov.HistoricalPrice, gameMode, lang string) (*Snapshot, error) {
	snap := NewSnapshot(KindHistories, gameMode, lang)
	snap.Order = ids
	snap.Histories = histories
	return snap, s.Save(snap)
}

// SaveTraders stores fetched trader offers
func (s *Storage) SaveTraders(traders []tarkov.Trader, gameMode, lang string) (*Snapshot, error) {
	snap := NewSnapshot(KindTraders, gameMode, lang)
	snap.Traders = traders
	return snap, s.Save(snap)
}
