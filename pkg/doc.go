// Package pkg provides the core libraries for Astra family graphs.
//
// # Overview
//
// Astra reads a GEDCOM genealogy file and produces a star-map style graph:
// one node per related individual, edges for spousal and parent-child links,
// and colors marking a chosen root, its ancestors and one highlighted
// individual. The pkg directory is organized into three areas:
//
//  1. Domain logic ([gedcom], [family], [palette], [layout])
//  2. Orchestration and serialization ([pipeline], [graph])
//  3. Infrastructure ([cache], [session], [errors], [observability], [buildinfo])
//
// # Architecture
//
// The typical data flow:
//
//	GEDCOM upload
//	     ↓
//	[gedcom] package (tokenize lines, resolve INDI/FAM records)
//	     ↓
//	[family] package (long ids, labels, tuples → edges, ancestors, colors)
//	     ↓
//	[layout] package (seed positions, remembered per session)
//	     ↓
//	[graph] package (JSON node-link document)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil, logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{Palette: "Pastel"})
//	if err != nil {
//	    return err
//	}
//	graph.WriteGraph(result.Graph, os.Stdout)
//
// # Main Packages
//
// [gedcom] - Line grammar, record tree and typed accessors for individuals
// and families. Lenient by default; strict mode rejects malformed lines.
//
// [family] - Builds the node/label/edge model, walks ancestors, picks default
// selections and assigns node colors.
//
// [palette] - Built-in and configured color schemes with color validation.
//
// [layout] - Deterministic seed positions and the per-session layout store
// that invalidates positions when the uploaded file changes.
//
// [pipeline] - The [pipeline.Runner] shared by the CLI and the HTTP server.
//
// [cache] - File, memory, Redis and null backends keyed by content hash.
//
// [session] - File and memory session stores tracking the last file per
// session.
//
// # Testing
//
//	go test ./pkg/...                          # All tests
//	ASTRA_TEST_REDIS=localhost:6379 go test ./pkg/cache  # Include Redis
package pkg
