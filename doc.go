// Package flowgate is a data-extraction toolkit for commerce platforms.
// It pulls records from the Jubelio REST API (products, orders, contacts,
// categories) and loads them into tabular destinations, handling
// pagination, incremental cursor state and connection validation along
// the way.
//
// # Architecture
//
// Flowgate is organized around a small connector framework:
//
//   - core defines the Source and Destination interfaces, stream
//     descriptors and the record stream that connects them.
//   - base provides the shared connector machinery: retry with
//     exponential backoff, circuit breaking, rate limiting, health
//     checks and state management.
//   - registry wires connector factories to names so pipelines are
//     assembled from configuration alone.
//   - sources/jubelio implements the Jubelio API extraction, including
//     page-based pagination and per-stream incremental cursors.
//   - destinations/csv and destinations/jsonl write the extracted
//     records to files, optionally gzip-compressed.
//
// # Quick Start
//
// Run a sync from a YAML pipeline definition:
//
//	p, err := pipeline.New(pipeline.Config{
//	    SourceName:        "jubelio",
//	    DestinationName:   "jsonl",
//	    SourceConfig:      sourceCfg,
//	    DestinationConfig: destCfg,
//	    StatePath:         "state.json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Incremental state survives between runs: each stream tracks the highest
// last_modified value it has seen and, where the API supports it, asks
// the server to filter on that cursor.
package flowgate
