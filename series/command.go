// The `scalyze series` verb: assemble per-entity usage series from a snapshot directory tree and
// print them.

package series

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	. "scalyze/common"
	"scalyze/db"
	"scalyze/quota"
)

func Series(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" series", flag.ContinueOnError)
	dataDirPtr := opts.String("data-dir", "", "Directory tree of snapshots (required)")
	fileNamePtr := opts.String("file-name", "", "Snapshot file name per (date, hour) (default \"mmrepquota-j.txt\")")
	groupByPtr := opts.String("group-by", "", "Grouping column: filesetname or filesystemName")
	scalePtr := opts.String("scale", "tb", "Unit for blockUsage: gb or tb")
	quantityPtr := opts.String("quantity", QuantityBlockUsage, "Column to assemble")
	samplesPtr := opts.Int("samples-per-dir", 1, "Samples to ingest per date directory, 0 for all")
	fmtPtr := opts.String("fmt", "csv", "Output format: csv or json")
	verbosePtr := opts.Bool("v", false, "Verbose diagnostics")
	if err := opts.Parse(args); err != nil {
		return err
	}

	ApplyDefault(dataDirPtr, DataSourceDataDir)
	ApplyDefault(fileNamePtr, DataSourceFileName)
	ApplyDefault(groupByPtr, DataSourceGroupBy)
	if *dataDirPtr == "" {
		return errors.New("-data-dir is required")
	}
	if *fileNamePtr == "" {
		*fileNamePtr = "mmrepquota-j.txt"
	}
	if *groupByPtr == "" {
		*groupByPtr = quota.GroupByFileset
	}
	scale, err := ParseScale(*scalePtr)
	if err != nil {
		return err
	}

	result, _, err := AssembleTree(*dataDirPtr, db.DirTreeOptions{
		FileName:      *fileNamePtr,
		GroupBy:       *groupByPtr,
		Scale:         scale,
		SamplesPerDir: *samplesPtr,
	}, Options{Quantity: *quantityPtr, Verbose: *verbosePtr})
	if err != nil {
		return err
	}

	switch *fmtPtr {
	case "csv":
		return writeCSV(os.Stdout, result)
	case "json":
		return json.NewEncoder(os.Stdout).Encode(jsonSeries(result))
	default:
		return fmt.Errorf("Unknown output format %s", *fmtPtr)
	}
}

func ParseScale(name string) (quota.BlockScale, error) {
	switch name {
	case "gb":
		return quota.ScaleGB, nil
	case "tb":
		return quota.ScaleTB, nil
	default:
		return 0, fmt.Errorf("Unknown scale %s", name)
	}
}

// Long-form CSV: one row per (entity, timestamp), entities in name order.

func writeCSV(out *os.File, result map[string]Timeseries) error {
	entities := make([]string, 0, len(result))
	for name := range result {
		entities = append(entities, name)
	}
	sort.Strings(entities)

	w := csv.NewWriter(out)
	w.Write([]string{"time", "entity", "value"})
	for _, name := range entities {
		for _, p := range result[name] {
			w.Write([]string{
				FormatDateTime(p.Timestamp),
				name,
				strconv.FormatFloat(p.Value, 'g', -1, 64),
			})
		}
	}
	w.Flush()
	return w.Error()
}

type JSONPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

func jsonSeries(result map[string]Timeseries) map[string][]JSONPoint {
	out := make(map[string][]JSONPoint, len(result))
	for name, ts := range result {
		points := make([]JSONPoint, 0, len(ts))
		for _, p := range ts {
			points = append(points, JSONPoint{Time: FormatDateTime(p.Timestamp), Value: p.Value})
		}
		out[name] = points
	}
	return out
}
