// Sources of timestamped quota snapshots.
//
// A SampleSource hands the assembler every snapshot it can produce, each paired with the Unix UTC
// timestamp of the instant it describes.  Sources are expected to fail soft on individual samples
// (bad file, bad row group) and report those as a soft-error count; a non-nil error means the
// source as a whole is unusable.
//
// Sample order is unspecified.  The assembler sorts per entity at the end, so sources are free to
// produce samples concurrently.

package db

import (
	"scalyze/quota"
)

type Sample struct {
	Timestamp int64 // Unix seconds, UTC
	Snapshot  *quota.Snapshot
}

type SampleSource interface {
	ReadSamples(verbose bool) (samples []Sample, softErrors int, err error)
}

// MultiSource concatenates the samples of several sources.  Duplicate timestamps across sources
// are fine; the assembler's merge policy resolves them.
type MultiSource []SampleSource

func (m MultiSource) ReadSamples(verbose bool) ([]Sample, int, error) {
	var all []Sample
	var soft int
	for _, src := range m {
		samples, s, err := src.ReadSamples(verbose)
		if err != nil {
			return nil, soft, err
		}
		all = append(all, samples...)
		soft += s
	}
	return all, soft, nil
}
