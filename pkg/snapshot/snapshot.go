package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"followsync/pkg/graph"
	"followsync/pkg/logger"
)

// DateLayout names snapshot files
const DateLayout = "2006-01-02"

// ErrNotFound is returned when no snapshot exists
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the state of one account at a point in time
type Snapshot struct {
	Username  string      `json:"username"`
	RunID     string      `json:"run_id,omitempty"`
	TakenAt   time.Time   `json:"taken_at"`
	Followers []string    `json:"followers"`
	Following []string    `json:"following"`
	Metadata  graph.Stats `json:"metadata"`
}

// New creates a snapshot of the two sets
func New(username, runID string, followers, following graph.Set, takenAt time.Time) *Snapshot {
	return &Snapshot{
		Username:  username,
		RunID:     runID,
		TakenAt:   takenAt.UTC(),
		Followers: followers.Sorted(),
		Following: following.Sorted(),
		Metadata:  graph.Summarize(followers, following),
	}
}

// Date returns the file date of the snapshot
func (s *Snapshot) Date() string {
	return s.TakenAt.Format(DateLayout)
}

// Store reads and writes snapshots below a root directory
type Store struct {
	root   string
	csv    bool
	logger logger.Logger
}

// NewStore creates a store rooted at dir. When csv is set, Save also
// writes the CSV exports next to the JSON file.
func NewStore(dir string, csv bool, log logger.Logger) *Store {
	return &Store{root: dir, csv: csv, logger: logger.OrDefault(log)}
}

// Root returns the store directory
func (s *Store) Root() string {
	return s.root
}

func (s *Store) userDir(username string) string {
	return filepath.Join(s.root, username)
}

// Save writes snap atomically, replacing a snapshot of the same day
func (s *Store) Save(snap *Snapshot) (string, error) {
	if snap.Username == "" {
		return "", errors.New("snapshot has no username")
	}

	dir := s.userDir(snap.Username)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(dir, snap.Date()+".json")
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}

	if s.csv {
		if err := exportCSV(dir, snap); err != nil {
			return path, fmt.Errorf("failed to export csv: %w", err)
		}
	}

	s.logger.InfoWithFields("Snapshot saved", map[string]interface{}{
		"username":  snap.Username,
		"path":      path,
		"followers": len(snap.Followers),
		"following": len(snap.Following),
	})
	return path, nil
}

// writeAtomic writes data to a temporary file and renames it over path
func writeAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync snapshot file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// List returns the dates of username's snapshots, oldest first
func (s *Store) List(username string) ([]string, error) {
	entries, err := os.ReadDir(s.userDir(username))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		date := strings.TrimSuffix(name, ".json")
		if _, err := time.Parse(DateLayout, date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Load reads the snapshot of username taken on date
func (s *Store) Load(username, date string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.userDir(username), date+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s on %s", ErrNotFound, username, date)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", date, err)
	}
	return &snap, nil
}

// Latest returns the newest snapshot of username
func (s *Store) Latest(username string) (*Snapshot, error) {
	dates, err := s.List(username)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: no snapshots for %s", ErrNotFound, username)
	}
	return s.Load(username, dates[len(dates)-1])
}

// LatestPair returns the two newest snapshots of username, older first
func (s *Store) LatestPair(username string) (prev, cur *Snapshot, err error) {
	dates, err := s.List(username)
	if err != nil {
		return nil, nil, err
	}
	if len(dates) < 2 {
		return nil, nil, fmt.Errorf("%w: need two snapshots of %s, have %d", ErrNotFound, username, len(dates))
	}
	if prev, err = s.Load(username, dates[len(dates)-2]); err != nil {
		return nil, nil, err
	}
	if cur, err = s.Load(username, dates[len(dates)-1]); err != nil {
		return nil, nil, err
	}
	return prev, cur, nil
}
