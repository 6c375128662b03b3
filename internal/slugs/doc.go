// Package slugs is the slug lifecycle engine.
//
// A slug is derived from an entity's source text by a Slugifier, made unique within a
// Scope by ResolveUnique, and written together with the entity by Hook.Save. When a save
// changes the slug of an existing entity, the hook records the transition in the slug
// swap ledger so that Redirector can later turn requests for the stale slug into
// redirects to the current one.
//
// The pipeline order is fixed:
//
//	derive -> resolve -> compare with the persisted slug -> persist -> ledger
//
// Storage is reached only through the Store, Ledger and LedgerReader interfaces, and
// routing only through Reverser, so the package is independent of the database and the
// HTTP framework.
package slugs
