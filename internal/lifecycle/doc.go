// Package lifecycle holds the transition tables for bids and payments and the
// validators that consult them. Every legal move of either entity is listed
// here, together with the side effects the caller must carry out. Nothing in
// this package performs I/O.
package lifecycle
