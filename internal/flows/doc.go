// Package flows holds the orchestration behind Engine operations.
//
// Each Run function takes a typed dependency struct and returns a result that
// classifies failures with a kind enum; the engine maps kinds to its public
// errors and metrics. Account flows are generic over the record type so this
// package never imports goAccount.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAccount (import cycle).
//   - Log, or own the stores it is handed.
package flows
