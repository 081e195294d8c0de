// Sample source over a date-keyed directory tree of repeated snapshots.
//
// The consumed layout is {root}/{date}/{hour}/{filename}, e.g. usage/2018-01-01/00/mmrepquota-j.txt.
// The tree is produced by cron-driven reporting outside this program; we only read it.  Date and
// hour directory names are used verbatim to synthesize the sample timestamp, hourly granularity.
//
// Neither the date directories nor the hour directories are visited in any particular order -
// correctness never depends on traversal order because the assembler sorts per entity at the end.
// Date directories are parsed by a pool of worker goroutines, one date per task, with the results
// collected on a channel; hours within one date are read sequentially so that the per-date sample
// cap selects the same files every run.

package db

import (
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"

	. "scalyze/common"
	"scalyze/quota"
)

// MT: Constant after initialization; immutable
var NoDirectoryErr = errors.New("Data directory does not exist")

// Maps a (date, hour) directory pair to the snapshot file to read.  Injectable so that alternate
// layouts can be substituted without touching the walk or the merge logic.
type PathResolver func(root, date, hour string) string

type DirTreeOptions struct {
	FileName      string           // snapshot file name per (date, hour), eg "mmrepquota-j.txt"
	GroupBy       string           // quota.GroupByFileset or quota.GroupByFilesystem
	Scale         quota.BlockScale // blockUsage divisor
	SamplesPerDir int              // successfully parsed samples admitted per date; 0 = no cap
	Resolve       PathResolver     // nil for the standard layout
}

type DirTreeStore struct {
	root string
	opts DirTreeOptions
}

func OpenDirTree(root string, opts DirTreeOptions) (*DirTreeStore, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", NoDirectoryErr, root)
	}
	if opts.Resolve == nil {
		opts.Resolve = func(root, date, hour string) string {
			return path.Join(root, date, hour, opts.FileName)
		}
	}
	return &DirTreeStore{root: path.Clean(root), opts: opts}, nil
}

func (s *DirTreeStore) ReadSamples(verbose bool) ([]Sample, int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s", NoDirectoryErr, s.root)
	}
	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}

	type dateResult struct {
		samples []Sample
		soft    int
	}

	// One task per date directory, a bounded number of workers, one collector (us).
	workers := min(runtime.NumCPU(), len(dates))
	requests := make(chan string, len(dates))
	results := make(chan dateResult, len(dates))
	for i := 0; i < workers; i++ {
		go func() {
			for date := range requests {
				var r dateResult
				r.samples, r.soft = s.readDateDir(date, verbose)
				results <- r
			}
		}()
	}
	for _, date := range dates {
		requests <- date
	}
	close(requests)

	var all []Sample
	var soft int
	for range dates {
		r := <-results
		all = append(all, r.samples...)
		soft += r.soft
	}
	return all, soft, nil
}

// Read up to the per-date cap of snapshots from one date directory.  A snapshot that cannot be
// parsed does not count toward the cap; it is skipped with a diagnostic.

func (s *DirTreeStore) readDateDir(date string, verbose bool) (samples []Sample, soft int) {
	dir := path.Join(s.root, date)
	entries, err := os.ReadDir(dir)
	if err != nil {
		Log.Infof("Cannot read %s: %v", dir, err)
		return nil, 1
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		hour := e.Name()
		t, err := SnapshotTime(date, hour)
		if err != nil {
			Log.Infof("Skipping %s: %v", path.Join(dir, hour), err)
			soft++
			continue
		}
		fn := s.opts.Resolve(s.root, date, hour)
		snap, err := quota.ParseSnapshotFile(fn, s.opts.GroupBy, s.opts.Scale)
		if err != nil {
			if verbose {
				Log.Infof("Cannot read %s: %v", fn, err)
			}
			soft++
			continue
		}
		samples = append(samples, Sample{Timestamp: t, Snapshot: snap})
		if s.opts.SamplesPerDir > 0 && len(samples) >= s.opts.SamplesPerDir {
			break
		}
	}
	return
}
