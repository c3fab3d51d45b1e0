// Package readiness discovers a freshly launched notebook server by polling a
// server-listing command and extracting the access token from its output.
//
// Ownership boundary:
// - bounded retry policy for readiness checks
//
// - status line matching and token extraction
package readiness
