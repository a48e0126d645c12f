// Package sanitizer normalizes untrusted request input before validation.
//
// Every function is idempotent and never fails: input that cannot be
// normalized is returned trimmed and left for the validator to reject.
package sanitizer
