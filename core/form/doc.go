// Package form implements the prediction form controller: it owns the form
// values, the last result or error and the in-flight flag, and moves through
// Idle → Submitting → Succeeded|Failed → Submitting ... as the user edits and
// submits. Every phase change is reported as a Transition.
package form
