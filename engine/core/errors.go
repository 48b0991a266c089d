package core

import (
	"errors"
)

// Sentinel errors shared across the loader/runtime. §7 classifies failures
// into Referential, Structural, Parse, Compilation, Resource and Contract
// kinds; these sentinels let callers use errors.Is to test the kind without
// string matching.
var (
	ErrUnknown = errors.New("unknown")

	// ErrMissingReference is returned when a scene object references a
	// shape/bsdf/medium/entity name that does not exist (§7 Referential).
	ErrMissingReference = errors.New("missing referenced object")

	// ErrStructural flags malformed data: empty vertex/face arrays,
	// non-triangular primitives, mismatched option types (§7 Structural).
	ErrStructural = errors.New("structural error")

	// ErrParse flags a malformed PExpr-dialect expression (§7 Parse).
	ErrParse = errors.New("expression parse error")

	// ErrCompilationFailed is fatal for the variant whose shader source
	// the external compiler rejected (§7 Compilation).
	ErrCompilationFailed = errors.New("shader compilation failed")

	// ErrResource flags file-not-found/permission-denied I/O (§7 Resource).
	ErrResource = errors.New("resource error")

	// ErrContract flags misuse caught by an always-on invariant, such as
	// redeclaring a parameter in the same shading-tree closure (§7 Contract).
	ErrContract = errors.New("contract violation")
)
