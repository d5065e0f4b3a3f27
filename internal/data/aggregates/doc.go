// Package aggregates implements the domain aggregate contracts.
//
// Aggregates compose table repos from internal/data/repos and own the
// transaction boundary of every invariant-critical write.
package aggregates
