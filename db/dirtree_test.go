package db

import (
	"errors"
	"os"
	"path"
	"testing"

	"scalyze/quota"
)

const reportA = `* mmrepquota -Y -j
mmrepquota::HEADER:version:reserved:reserved:filesystemName:filesetname:name:blockUsage:
mmrepquota::0:1:::gpfs0:fs1:fs1:1000000:
mmrepquota::0:1:::gpfs0:fs2:fs2:2000000:
`

const reportB = `* mmrepquota -Y -j
mmrepquota::HEADER:version:reserved:reserved:filesystemName:filesetname:name:blockUsage:
mmrepquota::0:1:::gpfs0:fs1:fs1:3000000:
`

type treeFile struct {
	dir  string
	data string
}

// Create a temp directory with the {date}/{hour}/{name} layout, one file per entry.
func populateTree(t *testing.T, name string, files ...treeFile) string {
	t.Helper()
	root, err := os.MkdirTemp("", "dirtree_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })
	for _, f := range files {
		if err := os.MkdirAll(path.Join(root, f.dir), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path.Join(root, f.dir, name), []byte(f.data), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func standardOpts(cap int) DirTreeOptions {
	return DirTreeOptions{
		FileName:      "mmrepquota-j.txt",
		GroupBy:       quota.GroupByFileset,
		Scale:         quota.ScaleGB,
		SamplesPerDir: cap,
	}
}

func TestDirTreeWalk(t *testing.T) {
	root := populateTree(t, "mmrepquota-j.txt",
		treeFile{"2018-01-01/0", reportA},
		treeFile{"2018-01-01/12", reportB},
		treeFile{"2018-01-02/00", reportA},
	)
	src, err := OpenDirTree(root, standardOpts(0))
	if err != nil {
		t.Fatal(err)
	}
	samples, soft, err := src.ReadSamples(false)
	if err != nil {
		t.Fatal(err)
	}
	if soft != 0 {
		t.Fatalf("Expected no soft errors, got %d", soft)
	}
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	// Timestamps synthesized from date + zero-padded hour, UTC.
	want := map[int64]bool{
		1514764800: true, // 2018-01-01 00:00:00
		1514808000: true, // 2018-01-01 12:00:00
		1514851200: true, // 2018-01-02 00:00:00
	}
	for _, s := range samples {
		if !want[s.Timestamp] {
			t.Fatalf("Unexpected timestamp %d", s.Timestamp)
		}
		delete(want, s.Timestamp)
	}
}

func TestDirTreePerDirectoryCap(t *testing.T) {
	root := populateTree(t, "mmrepquota-j.txt",
		treeFile{"2018-01-01/00", reportA},
		treeFile{"2018-01-01/01", reportB},
	)
	src, err := OpenDirTree(root, standardOpts(1))
	if err != nil {
		t.Fatal(err)
	}
	samples, _, err := src.ReadSamples(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 {
		t.Fatalf("Expected 1 sample under cap, got %d", len(samples))
	}
	if samples[0].Timestamp != 1514764800 {
		t.Fatalf("Cap did not take the first parsed sample: %d", samples[0].Timestamp)
	}
}

func TestDirTreeCorruptFileSkipped(t *testing.T) {
	root := populateTree(t, "mmrepquota-j.txt",
		treeFile{"2018-01-01/00", reportA},
		treeFile{"2018-01-01/01", "mmrepquota::HEADER:truncated garbage"},
		treeFile{"2018-01-01/02", reportB},
	)
	src, err := OpenDirTree(root, standardOpts(0))
	if err != nil {
		t.Fatal(err)
	}
	samples, soft, err := src.ReadSamples(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if soft != 1 {
		t.Fatalf("Expected 1 soft error, got %d", soft)
	}
	// A corrupt file must not count toward the per-date cap either.
	src, _ = OpenDirTree(root, standardOpts(2))
	samples, _, err = src.ReadSamples(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples under cap 2, got %d", len(samples))
	}
}

func TestDirTreeBadHourDirectory(t *testing.T) {
	root := populateTree(t, "mmrepquota-j.txt",
		treeFile{"2018-01-01/00", reportA},
		treeFile{"2018-01-01/notanhour", reportB},
	)
	src, err := OpenDirTree(root, standardOpts(0))
	if err != nil {
		t.Fatal(err)
	}
	samples, soft, err := src.ReadSamples(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 || soft != 1 {
		t.Fatalf("Expected 1 sample and 1 soft error, got %d and %d", len(samples), soft)
	}
}

func TestDirTreeMissingRoot(t *testing.T) {
	_, err := OpenDirTree("/no/such/directory", standardOpts(0))
	if !errors.Is(err, NoDirectoryErr) {
		t.Fatalf("Expected NoDirectoryErr, got %v", err)
	}
}

func TestDirTreeCustomResolver(t *testing.T) {
	// Alternate layout: the file is named after the hour, directly under the date.
	root, err := os.MkdirTemp("", "dirtree_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })
	if err := os.MkdirAll(path.Join(root, "2018-01-01/07"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path.Join(root, "2018-01-01/07.txt"), []byte(reportA), 0600); err != nil {
		t.Fatal(err)
	}
	opts := standardOpts(0)
	opts.Resolve = func(root, date, hour string) string {
		return path.Join(root, date, hour+".txt")
	}
	src, err := OpenDirTree(root, opts)
	if err != nil {
		t.Fatal(err)
	}
	samples, _, err := src.ReadSamples(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 || samples[0].Timestamp != 1514790000 {
		t.Fatalf("Resolver not honored: %+v", samples)
	}
}
