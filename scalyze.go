// `scalyze` -- analyze the periodic report snapshots of a clustered storage system.
//
// Run `scalyze help` for brief help.

package main

import (
	"fmt"
	"os"

	"scalyze/common"
	"scalyze/daemon"
	"scalyze/iohist"
	"scalyze/policy"
	"scalyze/series"
)

func main() {
	if len(os.Args) < 2 {
		toplevelUsage(1)
	}
	var err error
	switch os.Args[1] {
	case "help":
		toplevelUsage(0)

	case "version":
		fmt.Println(common.ScalyzeVersion)

	case "series":
		err = series.Series(os.Args[0], os.Args[2:])

	case "policy":
		err = policy.Policy(os.Args[0], os.Args[2:])

	case "iohist":
		err = iohist.IoHist(os.Args[0], os.Args[2:])

	case "daemon":
		err = daemon.Daemon(os.Args[0], os.Args[2:])

	default:
		toplevelUsage(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n\n", err)
		toplevelUsage(1)
	}
}

func toplevelUsage(code int) {
	fmt.Fprintf(
		os.Stderr,
		`Usage of %s:
  %s <verb> <option> ...

where <verb> is one of

  help
    Print help
  version
    Print the program version
  series
    Assemble per-entity usage series from a directory tree of quota snapshots
  policy
    Parse a policy-scan dump into a date-indexed table
  iohist
    Parse an I/O-history dump into a flat table
  daemon
    Serve series queries over HTTP, with optional database and Kafka sources

All verbs accept -h to print verb-specific help.
`,
		os.Args[0],
		os.Args[0])
	os.Exit(code)
}
