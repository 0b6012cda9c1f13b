// Package core ties the datasets, the search engine, the maps data and the
// census lookup together behind one Service.
//
// HTTP handlers talk to [Service] only. It owns the shared dataset
// slot, records every load and query in the audit store, and leaves
// user-facing wording to [MapError].
//
// # Datasets
//
// A load parses a whole file and swaps it into the holder in one step:
//
//	ds, err := svc.Load(ctx, "stars.csv")
//	out, err := svc.Search(ctx, search.Query{Target: "sol", HasHeader: true, Column: search.ByName("name")})
//
// Readers never see a half-loaded table. Searching before the first load
// fails with [dataset.ErrNotLoaded].
//
// # Maintenance
//
// [Service.StartMaintenance] prunes old audit entries and expired census
// cache entries in the background until its context is cancelled.
//
// # Error Handling
//
// Errors keep their technical detail for logs. [MapError] turns them into a
// message, a suggested action and a code:
//
//   - CSV001-CSV009: loading and parsing
//   - SRCH001-SRCH004: search queries and table shape
//   - GEO001-GEO003: map filters
//   - CEN001-CEN004: census lookups
//   - REQ001-REQ002, RATE001: request lifecycle and throttling
package core
