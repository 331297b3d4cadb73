// inspect dumps the pebble catalog for debugging: documents, rules or the
// raw keyspace.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"playbackd/pkg/catalog"
	"playbackd/pkg/logger"
)

func main() {
	dbPath := flag.String("db", "./.catalog", "pebble catalog path")
	what := flag.String("what", "documents", "what to dump: documents | rules")
	doc := flag.String("doc", "", "document id (required for -what rules)")
	flag.Parse()

	logger.InitWithLevel("error")
	if err := catalog.Open(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "open catalog: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = catalog.Close() }()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch *what {
	case "documents":
		docs, err := catalog.ListDocuments()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list documents: %v\n", err)
			os.Exit(1)
		}
		_ = enc.Encode(docs)
	case "rules":
		if *doc == "" {
			fmt.Fprintln(os.Stderr, "-doc is required with -what rules")
			os.Exit(2)
		}
		rules, err := catalog.ListRules(*doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list rules: %v\n", err)
			os.Exit(1)
		}
		_ = enc.Encode(rules)
	default:
		fmt.Fprintf(os.Stderr, "unknown -what: %s\n", *what)
		os.Exit(2)
	}
}
