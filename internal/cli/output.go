package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/roach88/exprsql/internal/harness"
	"github.com/roach88/exprsql/internal/schema"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // expression rejected, invalid schema, failed scenario
	ExitCommandError = 2 // unusable input: bad flags, missing schema, unreachable database
)

// ExitError carries the process exit code of a failed command. Reported
// is set when the formatter already wrote the error for the user.
type ExitError struct {
	Code     int
	Err      error
	Reported bool
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError with a plain message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Err: errors.New(message)}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf("%s: %w", message, err)}
}

// GetExitCode maps err to a process exit code. Errors that are not
// ExitErrors exit with ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Reported reports whether err was already written to the output.
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// ErrorCode returns the stable code of err: schema load codes (E21x) and
// the compiler codes from harness.ErrorCode.
func ErrorCode(err error) string {
	var loadErr *schema.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return harness.ErrorCode(err)
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // "E211", "UNKNOWN_FIELD", ...
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

var (
	passMarker = color.New(color.FgGreen, color.Bold)
	failMarker = color.New(color.FgRed, color.Bold)
)

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

// Success writes data. In text mode a string is a message and gets the
// pass marker; any other value is printed as is.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return f.Respond(CLIResponse{Status: "ok", Data: data})
	}
	if msg, ok := data.(string); ok {
		f.Check(true, "%s", msg)
		return nil
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a coded error. Details are shown in text mode only with
// --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		return f.Respond(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	f.Check(false, "Error [%s]: %s", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "  details: %v\n", details)
	}
	return nil
}

// Report writes a coded error and returns it as an ExitError with exit.
func (f *OutputFormatter) Report(exit int, code, message string, details any) error {
	if err := f.Error(code, message, details); err != nil {
		return WrapExitError(exit, "write error report", err)
	}
	return &ExitError{Code: exit, Err: fmt.Errorf("%s: %s", code, message), Reported: true}
}

// Fail reports err under the code ErrorCode derives from it.
func (f *OutputFormatter) Fail(exit int, err error) error {
	return f.Report(exit, ErrorCode(err), err.Error(), nil)
}

// Check writes one text line behind a pass or fail marker.
func (f *OutputFormatter) Check(ok bool, format string, args ...any) {
	marker, sign := passMarker, "✓"
	if !ok {
		marker, sign = failMarker, "✗"
	}
	marker.Fprint(f.Writer, sign)
	fmt.Fprintf(f.Writer, " "+format+"\n", args...)
}

// Respond writes a complete JSON envelope, for results that carry both
// data and an error.
func (f *OutputFormatter) Respond(response CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(response)
}

// Table writes rows under header. Columns are separated by " | " and
// trailing padding is trimmed. Styling follows color.NoColor.
func (f *OutputFormatter) Table(header []string, rows [][]string) error {
	data := append(pterm.TableData{header}, rows...)
	table := pterm.DefaultTable.WithHasHeader().WithData(data)
	if color.NoColor {
		plain := pterm.NewStyle()
		table = table.WithStyle(plain).WithHeaderStyle(plain).WithSeparatorStyle(plain)
	}
	out, err := table.Srender()
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	_, err = io.WriteString(f.Writer, strings.Join(lines, "\n")+"\n")
	return err
}

// VerboseLog writes a diagnostic line with --verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, or Writer when unset.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
