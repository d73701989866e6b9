package cli

import "github.com/skill-split/skill-split/internal/diag"

// ExitCode maps a taxonomy Kind to a distinct process exit code, per
// spec.md §6's "distinct codes per error taxonomy recommended but not
// required" note. Errors outside the taxonomy (flag parsing, missing
// args) get the generic code 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, ok := diag.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case diag.KindUnsupportedFormat:
		return 10
	case diag.KindParseError:
		return 11
	case diag.KindRoundTripViolation:
		return 12
	case diag.KindNotFound:
		return 13
	case diag.KindInvariantViolation:
		return 14
	case diag.KindIOFailure:
		return 15
	case diag.KindRemoteFailure:
		return 16
	case diag.KindRollbackFailure:
		return 17
	case diag.KindSecretNotFound:
		return 18
	default:
		return 1
	}
}
