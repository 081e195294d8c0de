// `scalyze daemon` - HTTP server answering queries over the configured quota-sample sources.
//
// The daemon owns no state beyond its sources: every request re-assembles the series from the
// inputs, which keeps each query a pure function of the data and avoids any cross-request cache to
// invalidate.  Large archives that make this too slow should be fronted by the database source
// instead of the directory tree.
//
// Sources, all optional but at least one required:
//
//   -data-dir      directory tree of snapshots, read per request
//   -database-uri  TimescaleDB with externally ingested samples, read per request
//   -kafka-broker  live ingest of raw report payloads into an in-memory store
//
// Endpoints:
//
//   GET /entities                 names of all assembled entities
//   GET /series/{entity}          the (time, value) series for one entity
//
// Termination is by signal; the daemon logs to syslog under the tag below and tries hard not to
// exit once it is up.

package daemon

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	. "scalyze/common"
	"scalyze/db"
	"scalyze/quota"
	"scalyze/series"
	"scalyze/status"
)

const logTag = "scalyze-daemon"

func Daemon(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" daemon", flag.ContinueOnError)
	portPtr := opts.Int("port", 8088, "Port to listen on")
	dataDirPtr := opts.String("data-dir", "", "Directory tree of snapshots")
	fileNamePtr := opts.String("file-name", "", "Snapshot file name per (date, hour) (default \"mmrepquota-j.txt\")")
	groupByPtr := opts.String("group-by", "", "Grouping column: filesetname or filesystemName")
	scalePtr := opts.String("scale", "tb", "Unit for blockUsage: gb or tb")
	samplesPtr := opts.Int("samples-per-dir", 0, "Samples to ingest per date directory, 0 for all")
	databasePtr := opts.String("database-uri", "", "TimescaleDB with externally ingested samples")
	kafkaBrokerPtr := opts.String("kafka-broker", "", "Kafka broker for live report ingest")
	kafkaTopicPtr := opts.String("kafka-topic", "scale-quota-reports", "Kafka topic carrying report payloads")
	verbosePtr := opts.Bool("v", false, "Verbose diagnostics")
	if err := opts.Parse(args); err != nil {
		return err
	}

	ApplyDefault(dataDirPtr, DataSourceDataDir)
	ApplyDefault(fileNamePtr, DataSourceFileName)
	ApplyDefault(groupByPtr, DataSourceGroupBy)
	ApplyDefault(databasePtr, DataSourceDatabaseURI)
	ApplyDefault(kafkaBrokerPtr, DataSourceKafkaBroker)
	if *fileNamePtr == "" {
		*fileNamePtr = "mmrepquota-j.txt"
	}
	if *groupByPtr == "" {
		*groupByPtr = quota.GroupByFileset
	}
	scale, err := series.ParseScale(*scalePtr)
	if err != nil {
		return err
	}

	var sources db.MultiSource
	if *dataDirPtr != "" {
		src, err := db.OpenDirTree(*dataDirPtr, db.DirTreeOptions{
			FileName:      *fileNamePtr,
			GroupBy:       *groupByPtr,
			Scale:         scale,
			SamplesPerDir: *samplesPtr,
		})
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}
	if *databasePtr != "" {
		src, err := db.OpenTimescaleSource(*databasePtr, *groupByPtr, scale)
		if err != nil {
			return err
		}
		defer src.Close()
		sources = append(sources, src)
	}
	if *kafkaBrokerPtr != "" {
		store := db.NewMemStore()
		go runKafka(*kafkaBrokerPtr, *kafkaTopicPtr, *groupByPtr, scale, store, *verbosePtr)
		sources = append(sources, store)
	}
	if len(sources) == 0 {
		return errors.New("At least one of -data-dir, -database-uri, -kafka-broker is required")
	}

	status.Start(logTag)
	if *verbosePtr {
		Log.LowerLevelTo(status.LogLevelInfo)
	}

	srv := &server{sources: sources, verbose: *verbosePtr}
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("scalyze", ScalyzeVersion))

	huma.Register(api, huma.Operation{
		OperationID: "list-entities",
		Method:      http.MethodGet,
		Path:        "/entities",
		Summary:     "List the entities present in the assembled data",
	}, srv.listEntities)

	huma.Register(api, huma.Operation{
		OperationID: "get-series",
		Method:      http.MethodGet,
		Path:        "/series/{entity}",
		Summary:     "The assembled time series for one entity",
	}, srv.getSeries)

	Log.Infof("%s listening on port %d", logTag, *portPtr)
	return http.ListenAndServe(fmt.Sprintf(":%d", *portPtr), mux)
}

type server struct {
	sources db.MultiSource
	verbose bool
}

func (s *server) assemble(quantity string) (map[string]series.Timeseries, error) {
	result, _, err := series.Assemble(s.sources, series.Options{
		Quantity: quantity,
		Verbose:  s.verbose,
	})
	if err != nil {
		Log.Errorf("Assembly failed: %v", err)
		return nil, huma.Error500InternalServerError("assembly failed")
	}
	return result, nil
}

type entitiesOutput struct {
	Body struct {
		Entities []string `json:"entities"`
	}
}

func (s *server) listEntities(ctx context.Context, input *struct {
	Quantity string `query:"quantity" default:"blockUsage" doc:"Column to assemble"`
}) (*entitiesOutput, error) {
	result, err := s.assemble(input.Quantity)
	if err != nil {
		return nil, err
	}
	out := &entitiesOutput{}
	out.Body.Entities = make([]string, 0, len(result))
	for name := range result {
		out.Body.Entities = append(out.Body.Entities, name)
	}
	sort.Strings(out.Body.Entities)
	return out, nil
}

type seriesOutput struct {
	Body struct {
		Entity string             `json:"entity"`
		Points []series.JSONPoint `json:"points"`
	}
}

func (s *server) getSeries(ctx context.Context, input *struct {
	Entity   string `path:"entity" doc:"Entity (fileset or filesystem) name"`
	Quantity string `query:"quantity" default:"blockUsage" doc:"Column to assemble"`
}) (*seriesOutput, error) {
	result, err := s.assemble(input.Quantity)
	if err != nil {
		return nil, err
	}
	ts, found := result[input.Entity]
	if !found {
		return nil, huma.Error404NotFound(fmt.Sprintf("no data for entity %q", input.Entity))
	}
	out := &seriesOutput{}
	out.Body.Entity = input.Entity
	out.Body.Points = make([]series.JSONPoint, 0, len(ts))
	for _, p := range ts {
		out.Body.Points = append(out.Body.Points, series.JSONPoint{
			Time:  FormatDateTime(p.Timestamp),
			Value: p.Value,
		})
	}
	return out, nil
}
