// Package logic implements the value-pointer grammar, the proxy layer that
// tracks lookup paths during evaluation, and the sandboxed expression and
// template environment used by interview documents.
//
// The central idea is that a failed lookup is not a dead end: evaluation
// produces an Undefined value carrying the exact pointer path that was
// missing, which the interview resolver uses to work backward to the
// question that can supply it.
package logic
