// Data model and merge machinery for assembled per-entity time series.
//
// There are two deliberately distinct duplicate policies in this system and they point in opposite
// directions:
//
//  - within one snapshot file, a duplicate entity name in a group is resolved by the parser as
//    last-row-wins (the producer overwrote itself, trust the later row);
//
//  - across snapshots, a duplicate timestamp for an entity is resolved here as first-wins (a
//    revisited hour or a repeated upstream file must not perturb values already admitted).
//
// Do not unify them.

package series

import (
	"sort"
	"strconv"

	"scalyze/quota"
)

type Point struct {
	Timestamp int64 // Unix seconds, UTC
	Value     float64
}

// Sorted ascending by timestamp once assembly completes; strictly increasing, no duplicates.
type Timeseries []Point

// The accumulator is owned by a single Assemble call and threaded through each processed sample.
// It is not shared across calls and there is no process-wide cache.
type accumulator struct {
	series map[string]Timeseries
	seen   map[string]map[int64]bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		series: make(map[string]Timeseries),
		seen:   make(map[string]map[int64]bool),
	}
}

// Admit one (timestamp, value) observation for an entity.  Cross-file first-wins: a timestamp
// already present for the entity is dropped.  Entities are admitted whenever first observed, the
// entity set is not frozen by the first snapshot.

func (a *accumulator) admit(entity string, timestamp int64, value float64) {
	seen := a.seen[entity]
	if seen == nil {
		seen = make(map[int64]bool)
		a.seen[entity] = seen
	}
	if seen[timestamp] {
		return
	}
	seen[timestamp] = true
	a.series[entity] = append(a.series[entity], Point{Timestamp: timestamp, Value: value})
}

// Sort every series ascending by timestamp.  Admission order is arbitrary (samples may have been
// parsed concurrently), only this final sort establishes the ordering invariant.

func (a *accumulator) finish() map[string]Timeseries {
	for _, ts := range a.series {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Timestamp < ts[j].Timestamp })
	}
	return a.series
}

// The value of the requested quantity for one record.  "blockUsage" is the normalized field; any
// other name selects a passed-through column, parsed as a number.  False if the record does not
// carry the quantity.

func quantityValue(r *quota.Record, quantity string) (float64, bool) {
	if quantity == QuantityBlockUsage {
		return r.BlockUsage, true
	}
	s, found := r.Fields[quantity]
	if !found {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
