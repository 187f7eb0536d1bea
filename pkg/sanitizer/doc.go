// Package sanitizer normalizes free-form user input before validation and
// storage.
//
// All functions are idempotent: applying them more than once yields the
// same result. Invalid input is cleaned, never rejected; rejection is the
// validators' job.
package sanitizer
