// The `scalyze policy` verb: parse a policy-scan dump into a date-indexed table and print it.
//
// Columns are declared on the command line as a comma-separated list of NAME or NAME:date items,
// in the order the policy rule's SHOW() clause emits them, eg
//
//   scalyze policy -file scan.txt -columns KB_ALLOCATED,FILE_SIZE,USER_ID,FILESET_NAME,CREATION_DATE:date -index CREATION_DATE

package policy

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	. "scalyze/common"
)

func Policy(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" policy", flag.ContinueOnError)
	filePtr := opts.String("file", "", "Policy scan file (required)")
	columnsPtr := opts.String("columns", "", "Declared payload columns, NAME or NAME:date, comma-separated (required)")
	indexPtr := opts.String("index", "", "Date column to index by (required)")
	maxPtr := opts.Int("max-records", 0, "Stop after this many records, 0 for all")
	keepSepsPtr := opts.Bool("keep-separators", false, "Keep the separator columns")
	fmtPtr := opts.String("fmt", "csv", "Output format: csv or json")
	if err := opts.Parse(args); err != nil {
		return err
	}
	if *filePtr == "" || *columnsPtr == "" || *indexPtr == "" {
		return errors.New("-file, -columns and -index are required")
	}

	cols, err := parseColumnList(*columnsPtr)
	if err != nil {
		return err
	}
	table, err := ParseScanFile(*filePtr, cols, *indexPtr, ScanOptions{
		MaxRecords:     *maxPtr,
		KeepSeparators: *keepSepsPtr,
	})
	if err != nil {
		return err
	}

	switch *fmtPtr {
	case "csv":
		return writeCSV(os.Stdout, table, cols)
	case "json":
		return json.NewEncoder(os.Stdout).Encode(jsonRecords(table, cols))
	default:
		return fmt.Errorf("Unknown output format %s", *fmtPtr)
	}
}

func parseColumnList(s string) ([]ColumnSpec, error) {
	var cols []ColumnSpec
	for _, item := range strings.Split(s, ",") {
		name, kind, hasKind := strings.Cut(item, ":")
		if name == "" {
			return nil, fmt.Errorf("Empty column name in %q", s)
		}
		switch {
		case !hasKind:
			cols = append(cols, ColumnSpec{Name: name, Kind: Plain})
		case kind == "date":
			cols = append(cols, ColumnSpec{Name: name, Kind: DatePaired})
		default:
			return nil, fmt.Errorf("Unknown column kind %q", kind)
		}
	}
	return cols, nil
}

func writeCSV(out *os.File, table *Table, cols []ColumnSpec) error {
	header := []string{"inodeNumber", "genNumber", "snapshotId"}
	for _, c := range cols {
		header = append(header, c.Name)
	}
	header = append(header, "filename")

	w := csv.NewWriter(out)
	w.Write(header)
	for _, r := range table.Records {
		row := []string{
			strconv.FormatInt(r.Inode, 10),
			strconv.FormatInt(r.Gen, 10),
			strconv.FormatInt(r.SnapshotID, 10),
		}
		for _, c := range cols {
			if c.Kind == DatePaired {
				row = append(row, FormatDateTime(r.Times[c.Name]))
			} else {
				row = append(row, r.Values[c.Name])
			}
		}
		row = append(row, r.Filename)
		w.Write(row)
	}
	w.Flush()
	return w.Error()
}

type jsonRecord struct {
	Inode      int64             `json:"inodeNumber"`
	Gen        int64             `json:"genNumber"`
	SnapshotID int64             `json:"snapshotId"`
	Values     map[string]string `json:"values,omitempty"`
	Times      map[string]string `json:"times,omitempty"`
	Filename   string            `json:"filename"`
}

func jsonRecords(table *Table, cols []ColumnSpec) []jsonRecord {
	out := make([]jsonRecord, 0, len(table.Records))
	for _, r := range table.Records {
		times := make(map[string]string, len(r.Times))
		for name, t := range r.Times {
			times[name] = FormatDateTime(t)
		}
		out = append(out, jsonRecord{
			Inode:      r.Inode,
			Gen:        r.Gen,
			SnapshotID: r.SnapshotID,
			Values:     r.Values,
			Times:      times,
			Filename:   r.Filename,
		})
	}
	return out
}
