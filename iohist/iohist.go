// Reader for I/O-history dumps ("mmdiag --iohist" format): a constant 7-line preamble followed by
// whitespace-delimited rows with a fixed 8-column schema, 12 columns in the verbose variant.  The
// result is a flat table; there is no merge or alignment logic here.

package iohist

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

const preambleLines = 7

type Record struct {
	RW         string
	BufType    string
	DiskSector string // "disk:sector" address, kept verbatim
	NumSectors int64
	TimeMs     float64
	IoType     string
	NsdID      string
	NsdNode    string
	// The verbose variant appends: info1, info2, context, thread.
	Verbose []string
}

func ParseHistFile(filename string, verboseFormat bool) ([]*Record, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseHist(f, verboseFormat)
}

func ParseHist(input io.Reader, verboseFormat bool) ([]*Record, error) {
	columns := 8
	if verboseFormat {
		columns = 12
	}
	records := make([]*Record, 0)
	scanner := bufio.NewScanner(input)
	line := 0
	for scanner.Scan() {
		line++
		if line <= preambleLines {
			continue
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) < columns {
			continue
		}
		nSec, err := strconv.ParseInt(tokens[3], 10, 64)
		if err != nil {
			continue
		}
		timeMs, err := strconv.ParseFloat(tokens[4], 64)
		if err != nil {
			continue
		}
		r := &Record{
			RW:         tokens[0],
			BufType:    tokens[1],
			DiskSector: tokens[2],
			NumSectors: nSec,
			TimeMs:     timeMs,
			IoType:     tokens[5],
			NsdID:      tokens[6],
			NsdNode:    tokens[7],
		}
		if verboseFormat {
			r.Verbose = tokens[8:columns]
		}
		records = append(records, r)
	}
	return records, scanner.Err()
}
