package main

import "errors"

var (
	// errDiagnostics makes `diag` exit non-zero when an error-severity diagnostic was reported.
	errDiagnostics = errors.New("diagnostics contain errors")
	// errConflict makes `fix` exit non-zero when the merge conflicted; nothing is written.
	errConflict = errors.New("fixes conflict; nothing was written")
)
