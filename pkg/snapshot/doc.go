// Package snapshot records the followers and following observed by a run so
// that later runs can report who came and went.
//
// Snapshots are stored one JSON file per day under
//
//	<data dir>/snapshots/<username>/<YYYY-MM-DD>.json
//
// and may be accompanied by CSV exports of the two lists and of the
// relationship edges.
package snapshot
