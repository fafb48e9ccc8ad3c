// Package store provides Postgres (and, for tests, SQLite) persistence for
// the ranking pipeline's entities.
//
// # Store Boundary Conventions
//
// The PersistenceGateway is a pure I/O adapter. It fetches and persists
// data — nothing more.
//
// ## What the gateway DOES:
//   - Map database rows to domain types and vice versa
//   - Execute SQL queries and handle database errors
//   - Return sentinel errors (domain.ErrNotFound and friends) for expected
//     conditions
//   - Run the bulk tier write inside one transaction
//
// ## What the gateway must NOT do:
//   - Decide whether a candidate score beats a stored one
//   - Run the Scorer, PrEvaluator, or RankAggregator
//   - Enforce business rules or invariants beyond data integrity
//
// ## The key test:
//
// Can the gateway be swapped for a different backing store without
// changing any domain logic? If it contains if/else on domain state or
// calls domain functions to make decisions, it is doing too much — that
// belongs in the orchestrator.
package store
