// Data model for quota-report snapshots.
//
// One snapshot file is an instantaneous capture of quota state for all entities known to the
// reporting tool.  Parsing a file yields a Snapshot: rows grouped by the caller-chosen grouping
// column and indexed within the group by the entity name.  Snapshots are plain values, produced
// once and owned by the caller; nothing here retains state across calls.

package quota

import (
	"errors"
)

// The divisor applied to the raw blockUsage integer.  The reporting tools emit KiB and give no
// in-band signal about the intended unit, so the unit is always a caller decision.
type BlockScale float64

const (
	ScaleGB BlockScale = 1e6
	ScaleTB BlockScale = 1e9
)

// Legal groupBy column names.
const (
	GroupByFileset    = "filesetname"
	GroupByFilesystem = "filesystemName"
)

// MT: Constant after initialization; immutable
var BadSnapshotErr = errors.New("Malformed quota snapshot")

// One row of a snapshot.  Fields holds every surviving column other than name and blockUsage,
// passed through as strings.
type Record struct {
	Name       string
	Group      string
	BlockUsage float64
	Fields     map[string]string
}

// Groups maps the grouping key to the records of that group, indexed by entity name.  Within one
// snapshot the entity name is unique per group; a duplicate in the input is a data-quality
// condition resolved by the parser (last row wins).
type Snapshot struct {
	Groups map[string]map[string]*Record
}
