package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/meta"
	"github.com/roach88/exprsql/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                     `json:"valid"`
	Entities int                      `json:"entities"`
	Errors   []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema-dir]",
		Short: "Validate entity declarations",
		Long: `Validate the CUE entity declarations of a schema directory.

Checks the declarations against the entity schema, the identifier and
identity rules, and resolves every entity with the configured naming
policy. All errors are reported, not only the first.

Defaults to the configured schema directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.config().SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	res, loadErrors := schema.Load(dir, schema.LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if res == nil && len(loadErrors) > 0 {
		return formatter.Fail(ExitCommandError, loadErrors[0])
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, dir)

	var validationErrors []schema.ValidationError
	for _, err := range loadErrors {
		verr := schema.ValidationError{Entity: "schema", Message: err.Error(), Code: schema.ErrCodeGeneric}
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			verr.Code = loadErr.Code
			verr.Message = loadErr.Message
		}
		validationErrors = append(validationErrors, verr)
	}

	r := meta.NewResolver(meta.WithNaming(opts.config().Naming), meta.WithLogger(logger))
	for _, d := range res.Descriptors {
		formatter.VerboseLog("Validating entity: %s", d.Type)
		if errs := schema.Validate(d); len(errs) > 0 {
			validationErrors = append(validationErrors, errs...)
			continue
		}
		if _, err := r.Resolve(d); err != nil {
			validationErrors = append(validationErrors, schema.ValidationError{
				Entity:  string(d.Type),
				Message: err.Error(),
				Code:    meta.ErrCodeConfiguration,
			})
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(res.Descriptors), validationErrors)
	}
	return outputValidateSuccess(formatter, len(res.Descriptors))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, entities int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Entities: entities})
	}
	return formatter.Success(fmt.Sprintf("%d entities valid", entities))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, entities int, errs []schema.ValidationError) error {
	failed := &ExitError{
		Code:     ExitFailure,
		Err:      fmt.Errorf("validation failed with %d error(s)", len(errs)),
		Reported: true,
	}
	if formatter.Format == "json" {
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Entities: entities, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}

		return failed
	}

	formatter.Check(false, "Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}

	return failed
}
