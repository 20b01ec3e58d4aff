package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exprsql/internal/meta"
)

//go:embed entity_schema.cue
var entitySchema string

// Loader error codes.
const (
	ErrCodeGeneric     = "E210" // Generic/unknown error
	ErrCodeNotFound    = "E211" // Path not found
	ErrCodeNoFiles     = "E212" // No CUE files found
	ErrCodeLoadFailed  = "E213" // CUE load failed
	ErrCodeBuildFailed = "E214" // CUE build or schema check failed
	ErrCodeEntity      = "E215" // Malformed entity declaration
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Result contains the descriptors loaded from a schema directory.
type Result struct {
	Descriptors []*meta.Descriptor
	FileCount   int
}

// Register resolves every descriptor with r and records it for Lookup.
// Stops at the first descriptor that fails to resolve.
func (res *Result) Register(r *meta.Resolver) error {
	for _, d := range res.Descriptors {
		if _, err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every CUE file of the package in dir and compiles its entities.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func Load(dir string, mode LoadMode) (*Result, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	res, errs := compileValue(ctx, ctx.BuildInstance(inst), mode)
	if res != nil {
		res.FileCount = len(files)
	}
	return res, errs
}

// LoadString compiles entities from CUE source. filename is used in
// error positions.
func LoadString(src, filename string, mode LoadMode) (*Result, []error) {
	ctx := cuecontext.New()
	return compileValue(ctx, ctx.CompileString(src, cue.Filename(filename)), mode)
}

func compileValue(ctx *cue.Context, value cue.Value, mode LoadMode) (*Result, []error) {
	if err := value.Err(); err != nil {
		return nil, []error{buildError(err)}
	}

	value = value.Unify(ctx.CompileString(entitySchema, cue.Filename("entity_schema.cue")))
	if err := value.Validate(); err != nil {
		return nil, []error{buildError(err)}
	}

	result := &Result{}
	var errs []error

	entities := value.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no entity declarations found"}}
	}

	iter, err := entities.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entities: %v", err)}}
	}
	for iter.Next() {
		d, err := CompileEntity(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "entity."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Descriptors = append(result.Descriptors, d)
	}

	if len(result.Descriptors) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no entity declarations found"})
	}

	return result, errs
}

func buildError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
	var ce *CompileError
	if errors.As(formatCUEError(err), &ce) {
		le.Message = ce.Message
		le.Pos = ce.Pos
	}
	return le
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts an entity compile error to a LoadError with
// position info.
func convertCompileError(err error, context string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &LoadError{
			Code:    ErrCodeEntity,
			Message: fmt.Sprintf("%s: %s: %s", context, ce.Field, ce.Message),
			Pos:     ce.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
