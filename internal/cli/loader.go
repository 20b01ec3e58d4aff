package cli

import (
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprsql/internal/meta"
	"github.com/roach88/exprsql/internal/schema"
)

// loadResolver loads the configured schema directory and registers every
// entity with a resolver using the configured naming policy. Load and
// registration failures are reported through formatter and returned as
// command errors.
func loadResolver(opts *RootOptions, formatter *OutputFormatter, logger *slog.Logger) (*meta.Resolver, error) {
	cfg := opts.config()

	res, errs := schema.Load(cfg.SchemaDir, schema.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, formatter.Fail(ExitCommandError, errs[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, cfg.SchemaDir)

	r := meta.NewResolver(meta.WithNaming(cfg.Naming), meta.WithLogger(logger))
	if err := res.Register(r); err != nil {
		return nil, formatter.Fail(ExitCommandError, err)
	}
	return r, nil
}

// parseValues converts key=value flags into typed values. Each value is
// decoded as a YAML scalar, so 3 is an int, 2.5 a float, true a bool and
// anything else a string.
func parseValues(raw map[string]string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := yaml.Unmarshal([]byte(v), &val); err != nil {
			return nil, fmt.Errorf("value of %s: %w", k, err)
		}
		if val == nil && v != "null" && v != "~" {
			val = v
		}
		out[k] = val
	}
	return out, nil
}
