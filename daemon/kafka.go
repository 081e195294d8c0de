// Live ingest of quota-report payloads from Kafka.
//
// Each record value is one complete snapshot file, byte for byte what the reporting tool wrote;
// the record's broker timestamp, truncated to the hour, stands in for the (date, hour) directory
// pair of the file-based layout.  Parsed snapshots are appended to the daemon's in-memory store.
//
// This runs on its own goroutine.  Nothing here is fatal: a broker that is down or a payload that
// does not parse is logged and life goes on.

package daemon

import (
	"bytes"
	"context"

	"github.com/twmb/franz-go/pkg/kgo"

	. "scalyze/common"
	"scalyze/db"
	"scalyze/quota"
)

func runKafka(
	broker, topic, groupBy string,
	scale quota.BlockScale,
	store *db.MemStore,
	verbose bool,
) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumerGroup("scalyze-ingest"),
		kgo.ConsumeTopics(topic),
	)
	if err != nil {
		// The broker could simply be down; this should be retried by whatever restarts us.
		Log.Errorf("Failed to create Kafka client: %v", err)
		return
	}
	defer cl.Close()
	if verbose {
		Log.Infof("Consuming %s from %s", topic, broker)
	}

	ctx := context.Background()
	for {
		fetches := cl.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			// Retriable errors are retried internally when fetching; what surfaces here is worth
			// noticing but not worth dying for.
			Log.Errorf("SOFT ERROR: Failed to fetch: %v", errs)
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			snap, err := quota.ParseSnapshot(bytes.NewReader(record.Value), groupBy, scale)
			if err != nil {
				Log.Errorf("SOFT ERROR: Dropping payload: %v", err)
				continue
			}
			store.Add(TruncateToHour(record.Timestamp.Unix()), snap)
			if verbose {
				Log.Infof("Ingested snapshot, %d held", store.Len())
			}
		}
		if err := cl.CommitUncommittedOffsets(ctx); err != nil {
			Log.Errorf("SOFT ERROR: Commit failed: %v", err)
		}
	}
}
