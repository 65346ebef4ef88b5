package snapshot

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followsync/pkg/graph"
	"followsync/pkg/logger"
)

var day1 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newSnap(followers, following []string, at time.Time) *Snapshot {
	return New("octo", "run", graph.NewSet(followers...), graph.NewSet(following...), at)
}

func TestNew_Metadata(t *testing.T) {
	snap := newSnap([]string{"b", "a", "c"}, []string{"c", "d"}, day1)

	assert.Equal(t, []string{"a", "b", "c"}, snap.Followers)
	assert.Equal(t, []string{"c", "d"}, snap.Following)
	assert.Equal(t, graph.Stats{Followers: 3, Following: 2, Mutual: 1, FollowersOnly: 2, FollowingOnly: 1}, snap.Metadata)
	assert.Equal(t, "2024-03-01", snap.Date())
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := NewStore(t.TempDir(), false, logger.NewNopLogger())
	snap := newSnap([]string{"a"}, []string{"b"}, day1)

	path, err := store.Save(snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "octo", "2024-03-01.json"), path)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := store.Load("octo", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, snap.Followers, loaded.Followers)
	assert.Equal(t, snap.Following, loaded.Following)
	assert.Equal(t, snap.Metadata, loaded.Metadata)
	assert.True(t, snap.TakenAt.Equal(loaded.TakenAt))
}

func TestStore_SameDayOverwrites(t *testing.T) {
	store := NewStore(t.TempDir(), false, logger.NewNopLogger())

	_, err := store.Save(newSnap([]string{"a"}, nil, day1))
	require.NoError(t, err)
	_, err = store.Save(newSnap([]string{"a", "b"}, nil, day1.Add(time.Hour)))
	require.NoError(t, err)

	dates, err := store.List("octo")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01"}, dates)

	latest, err := store.Latest("octo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, latest.Followers)
}

func TestStore_ListIgnoresOtherFiles(t *testing.T) {
	store := NewStore(t.TempDir(), true, logger.NewNopLogger())

	_, err := store.Save(newSnap(nil, nil, day1.AddDate(0, 0, 1)))
	require.NoError(t, err)
	_, err = store.Save(newSnap(nil, nil, day1))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "octo", "notes.json"), []byte("{}"), 0644))

	dates, err := store.List("octo")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, dates)
}

func TestStore_Missing(t *testing.T) {
	store := NewStore(t.TempDir(), false, logger.NewNopLogger())

	dates, err := store.List("nobody")
	require.NoError(t, err)
	assert.Empty(t, dates)

	_, err = store.Latest("nobody")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.Load("nobody", "2024-01-01")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, _, err = store.LatestPair("nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_CSVExport(t *testing.T) {
	store := NewStore(t.TempDir(), true, logger.NewNopLogger())
	_, err := store.Save(newSnap([]string{"a", "b"}, []string{"c"}, day1))
	require.NoError(t, err)

	dir := filepath.Join(store.Root(), "octo")

	followers := readCSV(t, filepath.Join(dir, "followers_2024-03-01.csv"))
	assert.Equal(t, [][]string{{"username"}, {"a"}, {"b"}}, followers)

	following := readCSV(t, filepath.Join(dir, "following_2024-03-01.csv"))
	assert.Equal(t, [][]string{{"username"}, {"c"}}, following)

	network := readCSV(t, filepath.Join(dir, "network_2024-03-01.csv"))
	assert.Equal(t, [][]string{
		{"source", "target", "relationship"},
		{"octo", "c", "following"},
		{"a", "octo", "following"},
		{"b", "octo", "following"},
	}, network)
}

func TestCompare(t *testing.T) {
	store := NewStore(t.TempDir(), false, logger.NewNopLogger())
	_, err := store.Save(newSnap([]string{"a", "b"}, []string{"b", "x"}, day1))
	require.NoError(t, err)
	_, err = store.Save(newSnap([]string{"b", "c"}, []string{"b", "c"}, day1.AddDate(0, 0, 1)))
	require.NoError(t, err)

	prev, cur, err := store.LatestPair("octo")
	require.NoError(t, err)

	d := Compare(prev, cur)
	assert.Equal(t, "2024-03-01", d.From)
	assert.Equal(t, "2024-03-02", d.To)
	assert.Equal(t, []string{"c"}, d.GainedFollowers)
	assert.Equal(t, []string{"a"}, d.LostFollowers)
	assert.Equal(t, []string{"c"}, d.StartedFollowing)
	assert.Equal(t, []string{"x"}, d.StoppedFollowing)
	assert.False(t, d.Empty())

	assert.True(t, Compare(cur, cur).Empty())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
