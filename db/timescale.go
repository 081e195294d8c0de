// Read-only sample source over a TimescaleDB/Postgres table of quota samples.
//
// Ingestion into the database is handled by external code; this source only reads, so all of the
// assembly logic (merge, dedup, sort) can be applied to database-resident data without duplicating
// it elsewhere.  The insertion path does not exist here at all.
//
// Expected schema:
//
//   CREATE TABLE quota_sample (
//     time        timestamptz NOT NULL,
//     filesystem  text        NOT NULL,
//     fileset     text        NOT NULL,
//     name        text        NOT NULL,
//     block_usage bigint      NOT NULL
//   );
//
// Rows are regrouped into one Snapshot per distinct hour-truncated timestamp, mirroring what the
// directory-tree source produces for the same data.

package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	. "scalyze/common"
	"scalyze/quota"
)

type TimescaleSource struct {
	// The connection is not thread-safe; the lock serializes queries.
	lock       sync.Mutex
	connection *pgx.Conn
	groupBy    string
	scale      quota.BlockScale
}

func OpenTimescaleSource(databaseURI, groupBy string, scale quota.BlockScale) (*TimescaleSource, error) {
	connection, err := pgx.Connect(context.Background(), databaseURI)
	if err != nil {
		return nil, fmt.Errorf("Unable to connect to database: %v", err)
	}
	return &TimescaleSource{connection: connection, groupBy: groupBy, scale: scale}, nil
}

func (s *TimescaleSource) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.connection.Close(context.Background())
}

func (s *TimescaleSource) ReadSamples(verbose bool) ([]Sample, int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	rows, err := s.connection.Query(
		context.Background(),
		"SELECT time, filesystem, fileset, name, block_usage FROM quota_sample",
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var soft int
	snapshots := make(map[int64]*quota.Snapshot)
	for rows.Next() {
		var (
			when                      time.Time
			filesystem, fileset, name string
			raw                       int64
		)
		if err := rows.Scan(&when, &filesystem, &fileset, &name, &raw); err != nil {
			if verbose {
				Log.Infof("Dropping database row: %v", err)
			}
			soft++
			continue
		}
		group := fileset
		if s.groupBy == quota.GroupByFilesystem {
			group = filesystem
		}
		t := TruncateToHour(when.Unix())
		snap := snapshots[t]
		if snap == nil {
			snap = &quota.Snapshot{Groups: make(map[string]map[string]*quota.Record)}
			snapshots[t] = snap
		}
		g := snap.Groups[group]
		if g == nil {
			g = make(map[string]*quota.Record)
			snap.Groups[group] = g
		}
		g[name] = &quota.Record{
			Name:       name,
			Group:      group,
			BlockUsage: float64(raw) / float64(s.scale),
			Fields: map[string]string{
				"filesystemName": filesystem,
				"filesetname":    fileset,
			},
		}
	}
	if err := rows.Err(); err != nil {
		return nil, soft, err
	}

	samples := make([]Sample, 0, len(snapshots))
	for t, snap := range snapshots {
		samples = append(samples, Sample{Timestamp: t, Snapshot: snap})
	}
	return samples, soft, nil
}
