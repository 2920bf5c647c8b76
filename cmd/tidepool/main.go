// Command tidepool is a small command line client for the Tidepool services.
//
// Usage:
//
//	tidepool [flags] <command> [args]
//
// Commands:
//
//	health <query|ingest>    raw /health body of one service
//	status                   ingest service status
//	namespaces               list namespaces
//	namespace [ns]           describe a namespace
//	namespace-status [ns]    WAL and segment state of a namespace
//	compact [ns]             trigger compaction
//	query                    search (see --vector, --text and friends)
//	upsert <file.json>       write a JSON array of documents
//	delete <id>...           delete documents by id
//
// Results are printed to stdout as indented JSON; logs go to stderr.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "tidepool:", err)
		os.Exit(1)
	}
}
