package cli

import (
	"fmt"

	"github.com/pulse-qa/pulse/internal/output"
)

// Common error codes shared across commands.
const (
	errCodeInvalidWhere    = "INVALID_WHERE"
	errCodeProjectRequired = "PROJECT_REQUIRED"
	errCodeServer          = "SERVER_ERROR"
	errCodeSessionFailed   = "SESSION_FAILED"
)

// outputErrorCommon emits a structured error line in the selected format
// and returns an error carrying the same message for the exit path.
func outputErrorCommon(globals *Globals, code, message, hint string) error {
	switch globals.Format {
	case "text":
		if hint != "" {
			fmt.Fprintf(globals.Stderr, "error: %s (%s)\n", message, hint)
		} else {
			fmt.Fprintf(globals.Stderr, "error: %s\n", message)
		}
	default:
		w := output.NewNDJSONWriter(globals.Stdout)
		if err := w.WriteError(code, message, hint); err != nil {
			fmt.Fprintf(globals.Stderr, "error: %s\n", message)
		}
	}
	return fmt.Errorf("%s", message)
}
