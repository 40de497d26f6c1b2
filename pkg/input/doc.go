// Package input implements the typed question model: declarative field
// templates that compile, per evaluation context, into materialized fields
// with a JSON-schema fragment and an ordered validator chain, and questions
// that parse a caller's response map into pointer-addressed writes.
package input
