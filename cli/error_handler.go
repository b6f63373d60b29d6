package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/areatrip/errors"
	"github.com/grovetools/areatrip/tui/theme"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose, Out: out}
}

// Handle prints err with a hint for the codes a user can act on, and
// returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	t := theme.DefaultTheme
	fmt.Fprintf(h.Out, "%s %v\n", t.Error.Render("✗"), err)

	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(h.Out, t.Muted.Render(hint))
	}

	if h.Verbose {
		if appErr, ok := errors.As(err); ok {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", appErr.ToJSON())
		}
	}
	return err
}

func hintFor(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		return "Create areatrip.yml in this directory or ~/.config/areatrip/, or pass --config."
	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		return "Fix the configuration file and try again."
	case errors.ErrCodeSessionNotLoaded:
		return "The session is still loading; try again in a moment."
	case errors.ErrCodeNotAuthenticated:
		return "Sign in with 'areatrip session login'."
	case errors.ErrCodeNoAreaSelected:
		return "Select an area first."
	case errors.ErrCodeRemoteWriteFailed:
		appErr, _ := errors.As(err)
		if orphaned, _ := appErr.Details["orphaned"].(bool); orphaned {
			return fmt.Sprintf("The trip was saved without its id. Run 'areatrip trips repair %v' to finish it.", appErr.Details["docId"])
		}
		return "Nothing was saved; try again."
	}
	return ""
}
