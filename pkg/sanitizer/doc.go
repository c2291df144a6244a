// Package sanitizer normalizes user-supplied trip and booking text before
// validation and storage.
//
// All functions are idempotent. Invalid input yields an empty string rather
// than an error; validation decides whether empty is acceptable.
//
// Normalization includes:
//   - Names and addresses: collapse whitespace, trim leading/trailing spaces
//   - Cities: lowercase, non-letters folded to "_" - "Saint Étienne" becomes "saint_étienne"
//   - Emails: trim and lowercase
package sanitizer
