package policy

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

var listColumns = []ColumnSpec{
	{Name: "KB_ALLOCATED", Kind: Plain},
	{Name: "FILE_SIZE", Kind: Plain},
	{Name: "USER_ID", Kind: Plain},
	{Name: "FILESET_NAME", Kind: Plain},
	{Name: "CREATION_DATE", Kind: DatePaired},
}

const listScan = `3 1 0  1024 * 2048 * 54321 * fs1 * 2020-01-02 08:30:00 *  /gpfs/fs1/b.dat
5 1 0  512 * 512 * 54321 * fs1 * 2020-01-01 12:00:00 *  /gpfs/fs1/file with spaces
7 1 0  0 * 0 * 1000 * fs2 * 2020-01-03 23:59:59 *  /gpfs/fs2/c
`

func TestParseScanDateMerge(t *testing.T) {
	cols := []ColumnSpec{{Name: "CREATION_DATE", Kind: DatePaired}}
	input := "424 100 0 2020-01-01 12:00:00 * /fs/file1\n"
	table, err := ParseScan(strings.NewReader(input), cols, "CREATION_DATE", ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(table.Records))
	}
	r := table.Records[0]
	want := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC).Unix()
	if r.Times["CREATION_DATE"] != want {
		t.Fatalf("Expected %d, got %d", want, r.Times["CREATION_DATE"])
	}
	// No standalone time column survives the merge.
	if _, found := r.Values["CREATION_TIME"]; found {
		t.Fatal("Standalone time column survived")
	}
	if r.Inode != 424 || r.Gen != 100 || r.SnapshotID != 0 {
		t.Fatalf("Bad identity fields: %+v", r)
	}
	if r.Filename != "/fs/file1" {
		t.Fatalf("Bad filename %q", r.Filename)
	}
}

func TestParseScanSorted(t *testing.T) {
	table, err := ParseScan(strings.NewReader(listScan), listColumns, "CREATION_DATE", ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(table.Records))
	}
	if table.Index != "CREATION_DATE" {
		t.Fatalf("Bad index %q", table.Index)
	}
	for i := 1; i < len(table.Records); i++ {
		if table.Records[i-1].Times["CREATION_DATE"] > table.Records[i].Times["CREATION_DATE"] {
			t.Fatalf("Not sorted at %d", i)
		}
	}
	if table.Records[0].Inode != 5 {
		t.Fatalf("Expected inode 5 first, got %d", table.Records[0].Inode)
	}
	if table.Records[0].Values["KB_ALLOCATED"] != "512" {
		t.Fatalf("Bad payload: %+v", table.Records[0].Values)
	}
}

func TestParseScanFilenameWithSpaces(t *testing.T) {
	table, err := ParseScan(strings.NewReader(listScan), listColumns, "CREATION_DATE", ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if table.Records[0].Filename != "/gpfs/fs1/file with spaces" {
		t.Fatalf("Bad filename %q", table.Records[0].Filename)
	}
}

func TestParseScanSeparators(t *testing.T) {
	table, err := ParseScan(strings.NewReader(listScan), listColumns, "CREATION_DATE", ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, found := table.Records[0].Values["sep0"]; found {
		t.Fatal("Separator column not dropped")
	}
	table, err = ParseScan(strings.NewReader(listScan), listColumns, "CREATION_DATE",
		ScanOptions{KeepSeparators: true})
	if err != nil {
		t.Fatal(err)
	}
	if table.Records[0].Values["sep0"] != "*" {
		t.Fatalf("Separator column not kept: %+v", table.Records[0].Values)
	}
}

func TestParseScanMaxRecords(t *testing.T) {
	table, err := ParseScan(strings.NewReader(listScan), listColumns, "CREATION_DATE",
		ScanOptions{MaxRecords: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(table.Records))
	}
}

func TestParseScanSkipsMalformedLines(t *testing.T) {
	input := "3 1 0 1024 * 2048 * 54321 * fs1 * 2020-01-02 08:30:00 * /a\n" +
		"short line\n" +
		"x y z 1024 * 2048 * 54321 * fs1 * 2020-01-02 08:30:00 * /b\n"
	table, err := ParseScan(strings.NewReader(input), listColumns, "CREATION_DATE", ScanOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(table.Records))
	}
	if table.Skipped != 2 {
		t.Fatalf("Expected 2 skipped, got %d", table.Skipped)
	}
}

func TestParseScanBadIndexColumn(t *testing.T) {
	// Not declared at all.
	_, err := ParseScan(strings.NewReader(listScan), listColumns, "MODIFICATION_DATE", ScanOptions{})
	if !errors.Is(err, BadIndexColumnErr) {
		t.Fatalf("Expected BadIndexColumnErr, got %v", err)
	}
	// Declared, but not as a date column.
	_, err = ParseScan(strings.NewReader(listScan), listColumns, "USER_ID", ScanOptions{})
	if !errors.Is(err, BadIndexColumnErr) {
		t.Fatalf("Expected BadIndexColumnErr, got %v", err)
	}
}

func TestParseScanBadDateIsHard(t *testing.T) {
	cols := []ColumnSpec{{Name: "CREATION_DATE", Kind: DatePaired}}
	input := "424 100 0 yesterday noonish * /fs/file1\n"
	_, err := ParseScan(strings.NewReader(input), cols, "CREATION_DATE", ScanOptions{})
	if err == nil {
		t.Fatal("Expected a hard error for an unparseable date/time pair")
	}
}

func TestParseScanFileNotFound(t *testing.T) {
	cols := []ColumnSpec{{Name: "CREATION_DATE", Kind: DatePaired}}
	_, err := ParseScanFile("testdata/no-such-file.list", cols, "CREATION_DATE", ScanOptions{})
	var perr *os.PathError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *os.PathError, got %v", err)
	}
}
