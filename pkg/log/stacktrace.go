package log

import (
	"github.com/cockroachdb/errors"
)

// extractStacktrace returns the first safe detail recorded by
// cockroachdb/errors, which for errors built with WithStack is the stack
// trace of the call site.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
