// Package sanitizer provides input normalization for reservation and catalog data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Free text (descriptions, rejection reasons): collapse whitespace, trim
//   - Keys (event categories, roles, space types): trim and lowercase
//   - Space names: collapse whitespace, trim, case preserved
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
