package common

import (
	"testing"
	"time"
)

func TestSnapshotTime(t *testing.T) {
	want := time.Date(2018, 1, 1, 3, 0, 0, 0, time.UTC).Unix()
	for _, hour := range []string{"3", "03"} {
		got, err := SnapshotTime("2018-01-01", hour)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Expected %d, got %d", want, got)
		}
	}
	for _, bad := range [][2]string{
		{"2018-01-01", "24"},
		{"2018-01-01", "x"},
		{"notadate", "00"},
	} {
		if _, err := SnapshotTime(bad[0], bad[1]); err == nil {
			t.Fatalf("Expected error for %v", bad)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	want := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC).Unix()
	for _, s := range []string{"2020-01-01 12:00:00", "2020-01-01 12:00:00.123456"} {
		got, err := ParseDateTime(s)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Expected %d for %q, got %d", want, s, got)
		}
	}
	if _, err := ParseDateTime("not a time"); err == nil {
		t.Fatal("Expected error")
	}
}

func TestTruncateToHour(t *testing.T) {
	in := time.Date(2020, 6, 15, 13, 45, 59, 0, time.UTC).Unix()
	want := time.Date(2020, 6, 15, 13, 0, 0, 0, time.UTC).Unix()
	if got := TruncateToHour(in); got != want {
		t.Fatalf("Expected %d, got %d", want, got)
	}
}
