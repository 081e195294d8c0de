// Parser for policy-scan dumps (the output of a list rule applied by the policy engine).
//
// Unlike the snapshot parser this one does not fail soft on structural mismatch: it operates on a
// single authoritative file with no redundancy to fall back on, so configuration mistakes must
// surface.  The soft tier is limited to individual malformed lines (short rows, garbage identity
// fields), which are counted and skipped.

package policy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	. "scalyze/common"
)

// MT: Constant after initialization; immutable
var BadIndexColumnErr = errors.New("Index column is not a declared date column")

type ScanOptions struct {
	// Stop after this many parsed records; 0 for unbounded.
	MaxRecords int
	// Keep the auto-generated separator columns in Values.  They only exist to absorb the literal
	// '*' token between payload fields and are dropped by default.
	KeepSeparators bool
}

type Record struct {
	Inode      int64
	Gen        int64
	SnapshotID int64
	Values     map[string]string // plain payload columns (and separators, if kept)
	Times      map[string]int64  // merged timestamp per DatePaired column
	Filename   string
}

// Records are sorted ascending by Times[Index].
type Table struct {
	Index   string
	Records []*Record
	Skipped int // malformed lines dropped
}

// Opening errors propagate as *os.PathError, distinct from configuration errors.

func ParseScanFile(filename string, cols []ColumnSpec, indexColumn string, opts ScanOptions) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseScan(f, cols, indexColumn, opts)
}

func ParseScan(input io.Reader, cols []ColumnSpec, indexColumn string, opts ScanOptions) (*Table, error) {
	indexed := false
	for _, c := range cols {
		if c.Name == indexColumn && c.Kind == DatePaired {
			indexed = true
		}
	}
	if !indexed {
		return nil, fmt.Errorf("%w: %s", BadIndexColumnErr, indexColumn)
	}
	sch := buildSchema(cols)

	table := &Table{Index: indexColumn, Records: make([]*Record, 0)}
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 65536), 1024*1024)
	for scanner.Scan() {
		if opts.MaxRecords > 0 && len(table.Records) >= opts.MaxRecords {
			break
		}
		tokens := strings.Fields(scanner.Text())
		if len(tokens) < len(sch.fields) {
			table.Skipped++
			continue
		}
		r, err := parseRow(sch, tokens, opts.KeepSeparators)
		if err != nil {
			if errors.Is(err, errBadLine) {
				table.Skipped++
				continue
			}
			// An unparseable date/time pair would corrupt the merge: propagate.
			return nil, err
		}
		table.Records = append(table.Records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if table.Skipped > 0 {
		Log.Infof("Skipped %d malformed policy lines", table.Skipped)
	}

	sort.SliceStable(table.Records, func(i, j int) bool {
		return table.Records[i].Times[indexColumn] < table.Records[j].Times[indexColumn]
	})
	return table, nil
}

var errBadLine = errors.New("malformed line")

func parseRow(sch *schema, tokens []string, keepSeparators bool) (*Record, error) {
	r := &Record{
		Values: make(map[string]string),
		Times:  make(map[string]int64),
	}
	identity := make([]int64, 0, 3)
	pendingDate := make(map[string]string)
	for ix, f := range sch.fields {
		tok := tokens[ix]
		switch f.role {
		case roleIdentity:
			n, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, errBadLine
			}
			identity = append(identity, n)
		case rolePayload:
			r.Values[f.name] = tok
		case roleDate:
			pendingDate[f.name] = tok
		case roleTime:
			t, err := ParseDateTime(pendingDate[f.pairsWith] + " " + tok)
			if err != nil {
				return nil, fmt.Errorf("Bad %s timestamp %q %q: %v", f.pairsWith, pendingDate[f.pairsWith], tok, err)
			}
			r.Times[f.pairsWith] = t
		case roleSeparator:
			if keepSeparators {
				r.Values[f.name] = tok
			}
		case roleFilename:
			// Filenames may contain whitespace; everything left belongs to it.
			r.Filename = strings.Join(tokens[ix:], " ")
		}
	}
	r.Inode, r.Gen, r.SnapshotID = identity[0], identity[1], identity[2]
	return r, nil
}
