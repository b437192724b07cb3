// Package sanitizer provides input normalization for customer-facing data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Names and free-text notes: collapse whitespace, trim
package sanitizer
