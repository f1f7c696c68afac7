// Package persist stores short-lived single-use records such as
// authorization codes.
//
// A Store maps keys to opaque byte values with an optional TTL. Pop reads
// and deletes a value in one atomic step, so a record can be consumed at most
// once even when requests race. CodeStore layers authorization code records
// on top of any Store.
package persist
