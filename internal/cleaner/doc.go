// Package cleaner normalizes raw bank statement descriptions into readable
// merchant text.
//
// Cleaning is a pure string transform: processor prefixes and authorization
// boilerplate are stripped, card and reference number runs removed,
// whitespace collapsed, and the result title-cased. A description that
// cleans down to nothing is unprocessable and reported as a fatal item error.
package cleaner
