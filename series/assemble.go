// Assemble per-entity time series from a source of timestamped snapshots.

package series

import (
	. "scalyze/common"
	"scalyze/db"
)

const QuantityBlockUsage = "blockUsage"

// Sentinel group names: accounting rows emitted by the reporting tool, not real entities.  "root"
// is the implicit top-level fileset (it shares its name with the filesystem's root), "COMMON" is
// the aggregate pseudo-group of some report variants.
var defaultSentinels = []string{"root", "COMMON"}

type Options struct {
	Quantity  string   // default "blockUsage"
	Sentinels []string // nil for the default set
	Verbose   bool
}

// Assemble reads every sample the source can produce and merges them into one series per entity
// name.  An entity's series contains exactly the timestamps of the samples it appeared in, strictly
// increasing.  Returns the number of successfully ingested samples alongside the result; per-sample
// problems never abort the assembly, only a failure of the source itself does.

func Assemble(src db.SampleSource, opts Options) (map[string]Timeseries, int, error) {
	quantity := opts.Quantity
	if quantity == "" {
		quantity = QuantityBlockUsage
	}
	sentinelNames := opts.Sentinels
	if sentinelNames == nil {
		sentinelNames = defaultSentinels
	}
	sentinels := make(map[string]bool, len(sentinelNames))
	for _, s := range sentinelNames {
		sentinels[s] = true
	}

	samples, softErrors, err := src.ReadSamples(opts.Verbose)
	if err != nil {
		return nil, 0, err
	}

	acc := newAccumulator()
	for _, sample := range samples {
		for group, records := range sample.Snapshot.Groups {
			if sentinels[group] {
				continue
			}
			for name, r := range records {
				if sentinels[name] {
					continue
				}
				if v, ok := quantityValue(r, quantity); ok {
					acc.admit(name, sample.Timestamp, v)
				}
			}
		}
	}

	Log.Infof("Read %d samples (%d skipped)", len(samples), softErrors)
	return acc.finish(), len(samples), nil
}

// Convenience over the standard directory-tree layout: equivalent to opening the tree and
// assembling from it.

func AssembleTree(rootDir string, treeOpts db.DirTreeOptions, opts Options) (map[string]Timeseries, int, error) {
	src, err := db.OpenDirTree(rootDir, treeOpts)
	if err != nil {
		return nil, 0, err
	}
	return Assemble(src, opts)
}
