package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// exportCSV writes followers_<date>.csv, following_<date>.csv and
// network_<date>.csv into dir
func exportCSV(dir string, snap *Snapshot) error {
	date := snap.Date()

	if err := writeCSV(filepath.Join(dir, fmt.Sprintf("followers_%s.csv", date)), []string{"username"}, column(snap.Followers)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, fmt.Sprintf("following_%s.csv", date)), []string{"username"}, column(snap.Following)); err != nil {
		return err
	}

	edges := make([][]string, 0, len(snap.Followers)+len(snap.Following))
	for _, u := range snap.Following {
		edges = append(edges, []string{snap.Username, u, "following"})
	}
	for _, u := range snap.Followers {
		edges = append(edges, []string{u, snap.Username, "following"})
	}
	return writeCSV(filepath.Join(dir, fmt.Sprintf("network_%s.csv", date)), []string{"source", "target", "relationship"}, edges)
}

func column(values []string) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v}
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
