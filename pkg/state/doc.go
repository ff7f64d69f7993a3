// Package state loads and saves per-scope browser settings snapshots and
// merges them with the core layering primitives.
//
//   - Store[T] loads or saves a single snapshot for a single Ref.
//   - Resolver[T] loads the snapshots for several scopes of one project and
//     merges them through opts.Layer[T] and opts.Stack[T].
//   - The root opts package stays persistence-agnostic. Storage lives behind
//     Store implementations such as MemoryStore or redisstore.Store.
//
// Data flow:
//
//	Store -> Resolver -> opts.NewStack(...).Merge(...) -> *opts.Options[T]
//
// Meta.SnapshotID is carried onto opts.Layer[T].SnapshotID so it shows up in
// Options.ResolveWithTrace and in SchemaDocument.Scopes.
//
// Keys produced by Ref.Identifier:
//
//	defaults/<project>
//	browser/<project>
//	instance/<project>/<instance>
package state
