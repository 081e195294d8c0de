// The `scalyze iohist` verb: print an I/O-history dump as a flat table.

package iohist

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

func IoHist(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" iohist", flag.ContinueOnError)
	filePtr := opts.String("file", "", "I/O history file (required)")
	verbosePtr := opts.Bool("verbose-format", false, "Input uses the 12-column verbose format")
	fmtPtr := opts.String("fmt", "csv", "Output format: csv or json")
	if err := opts.Parse(args); err != nil {
		return err
	}
	if *filePtr == "" {
		return errors.New("-file is required")
	}

	records, err := ParseHistFile(*filePtr, *verbosePtr)
	if err != nil {
		return err
	}

	switch *fmtPtr {
	case "csv":
		w := csv.NewWriter(os.Stdout)
		w.Write([]string{"rw", "bufType", "disk:sector", "nSec", "timeMs", "type", "nsdId", "nsdNode"})
		for _, r := range records {
			w.Write([]string{
				r.RW, r.BufType, r.DiskSector,
				strconv.FormatInt(r.NumSectors, 10),
				strconv.FormatFloat(r.TimeMs, 'g', -1, 64),
				r.IoType, r.NsdID, r.NsdNode,
			})
		}
		w.Flush()
		return w.Error()
	case "json":
		return json.NewEncoder(os.Stdout).Encode(records)
	default:
		return fmt.Errorf("Unknown output format %s", *fmtPtr)
	}
}
