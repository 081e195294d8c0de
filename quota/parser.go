// Parser for one quota-report snapshot file ("mmrepquota -Y" format).
//
// The format is colon-delimited with embedded noise that must be stripped before the rows are
// usable:
//
//  - lines starting with '*' are comments/metadata
//  - the first non-comment line is the header, naming the columns; columns may be absent or
//    reordered between files, so the header is authoritative per file
//  - the producer restarts its output stream now and then, repeating the header mid-file; such
//    rows carry the literal label "version" in the version column and must be dropped
//  - a fixed set of administrative columns carries no information and is discarded
//
// The parser fails soft: every structural problem (unopenable file, missing required column, row
// with the wrong number of fields, unparseable usage number) yields nil and an error wrapping
// BadSnapshotErr.  The caller treats that as "no data point for this sample".  The one per-row
// anomaly that does not poison the file is a duplicate entity name within a group: last row wins.

package quota

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const commentMarker = '*'

// Column names (as well as the unnamed column and the whole first column, whatever the tool calls
// itself) that are dropped from every row.
func isAdminColumn(ix int, name string) bool {
	return ix == 0 || name == "" || name == "HEADER" || name == "reserved"
}

func ParseSnapshotFile(filename, groupBy string, scale BlockScale) (*Snapshot, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", BadSnapshotErr, filename, err)
	}
	defer f.Close()
	snap, err := ParseSnapshot(f, groupBy, scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, filename)
	}
	return snap, nil
}

func ParseSnapshot(input io.Reader, groupBy string, scale BlockScale) (*Snapshot, error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 65536), 1024*1024)

	var header []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == commentMarker {
			continue
		}
		header = strings.Split(line, ":")
		break
	}
	if header == nil {
		return nil, fmt.Errorf("%w: no header row", BadSnapshotErr)
	}

	// Column positions we need by name; -1 for absent.
	groupIx, nameIx, usageIx, versionIx := -1, -1, -1, -1
	for ix, h := range header {
		switch h {
		case groupBy:
			groupIx = ix
		case "name":
			nameIx = ix
		case "blockUsage":
			usageIx = ix
		case "version":
			versionIx = ix
		}
	}
	if groupIx == -1 || nameIx == -1 || usageIx == -1 {
		return nil, fmt.Errorf("%w: missing required column", BadSnapshotErr)
	}

	snap := &Snapshot{Groups: make(map[string]map[string]*Record)}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == commentMarker {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("%w: row has %d fields, header has %d",
				BadSnapshotErr, len(fields), len(header))
		}
		// Recurring header row.
		if versionIx != -1 && fields[versionIx] == "version" {
			continue
		}
		raw, err := strconv.ParseInt(fields[usageIx], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad blockUsage %q", BadSnapshotErr, fields[usageIx])
		}
		r := &Record{
			Name:       fields[nameIx],
			Group:      fields[groupIx],
			BlockUsage: float64(raw) / float64(scale),
			Fields:     make(map[string]string),
		}
		for ix, h := range header {
			if isAdminColumn(ix, h) || ix == nameIx || ix == usageIx {
				continue
			}
			r.Fields[h] = fields[ix]
		}
		group := snap.Groups[r.Group]
		if group == nil {
			group = make(map[string]*Record)
			snap.Groups[r.Group] = group
		}
		// Last row wins on a duplicate name, by policy.
		group[r.Name] = r
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", BadSnapshotErr, err)
	}
	return snap, nil
}
