package config

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/meta"
)

// newTestLoader isolates the loader from the OS filesystem and exports
// .env variables through t.Setenv so they are restored after the test.
func newTestLoader(t *testing.T, fs afero.Fs, opts ...Option) *Loader {
	t.Helper()
	for _, k := range []string{"EXPRSQL_DIALECT", "EXPRSQL_DSN", "EXPRSQL_SCHEMA_DIR", "EXPRSQL_NAMING"} {
		unsetenv(t, k)
	}
	l := NewLoader(append([]Option{WithFs(fs), WithSearchPaths("/etc/exprsql")}, opts...)...)
	l.setenv = func(k, v string) error {
		t.Setenv(k, v)
		return nil
	}
	return l
}

// unsetenv removes k for the duration of the test.
func unsetenv(t *testing.T, k string) {
	t.Helper()
	t.Setenv(k, "")
	require.NoError(t, os.Unsetenv(k))
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "", "")
	flags.String("dsn", "", "")
	flags.String("schema-dir", "", "")
	flags.String("naming", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := newTestLoader(t, afero.NewMemMapFs()).Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, "", cfg.DSN)
	assert.Equal(t, "./schema", cfg.SchemaDir)
	assert.Equal(t, meta.NamingLower, cfg.Naming)
	assert.Equal(t, "", cfg.File)
}

func TestLoad_ConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/exprsql/.exprsql.yaml", []byte(`
dialect: postgres
dsn: postgres://localhost/school
schema_dir: /srv/schema
naming: snake
`), 0o644))

	cfg, err := newTestLoader(t, fs).Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "postgres://localhost/school", cfg.DSN)
	assert.Equal(t, "/srv/schema", cfg.SchemaDir)
	assert.Equal(t, meta.NamingSnake, cfg.Naming)
	assert.Equal(t, "/etc/exprsql/.exprsql.yaml", cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/exprsql/.exprsql.yaml", []byte("dialect: postgres\ndsn: from-file\nnaming: asis\n"), 0o644))

	l := newTestLoader(t, fs)
	t.Setenv("EXPRSQL_DSN", "from-env")
	t.Setenv("EXPRSQL_DIALECT", "mysql")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--dialect", "sqlite3"}))

	cfg, err := l.Load(flags)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Dialect, "flag beats env")
	assert.Equal(t, "from-env", cfg.DSN, "env beats file")
	assert.Equal(t, meta.NamingAsIs, cfg.Naming, "file beats default")
}

func TestLoad_UnsetFlagDoesNotOverride(t *testing.T) {
	l := newTestLoader(t, afero.NewMemMapFs())
	t.Setenv("EXPRSQL_DSN", "from-env")

	cfg, err := l.Load(newFlags())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DSN)
	assert.Equal(t, "sqlite", cfg.Dialect)
}

func TestLoad_Dotenv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("EXPRSQL_DSN=file.db\nEXPRSQL_NAMING=snake\nOTHER=ignored\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte("EXPRSQL_NAMING=asis\n"), 0o644))

	l := newTestLoader(t, fs)
	var exported []string
	setenv := l.setenv
	l.setenv = func(k, v string) error {
		exported = append(exported, k)
		return setenv(k, v)
	}

	cfg, err := l.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "file.db", cfg.DSN)
	assert.Equal(t, meta.NamingAsIs, cfg.Naming, ".env.local wins")
	assert.NotContains(t, exported, "OTHER")
}

func TestLoad_DotenvKeepsEnvironment(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("EXPRSQL_DSN=file.db\n"), 0o644))

	l := newTestLoader(t, fs)
	t.Setenv("EXPRSQL_DSN", "env.db")

	cfg, err := l.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DSN)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		opts    []Option
		wantErr string
	}{
		{
			name:    "unknown dialect",
			files:   map[string]string{"/etc/exprsql/.exprsql.yaml": "dialect: oracle\n"},
			wantErr: `unknown dialect "oracle"`,
		},
		{
			name:    "bad naming",
			files:   map[string]string{"/etc/exprsql/.exprsql.yaml": "naming: camel\n"},
			wantErr: `invalid naming policy "camel"`,
		},
		{
			name:    "malformed yaml",
			files:   map[string]string{"/etc/exprsql/.exprsql.yaml": "dialect: [\n"},
			wantErr: "read config",
		},
		{
			name:    "explicit file missing",
			opts:    []Option{WithConfigFile("/nope/config.yaml")},
			wantErr: "read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for name, content := range tt.files {
				require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
			}
			_, err := newTestLoader(t, fs, tt.opts...).Load(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/custom.yaml", []byte("dialect: mysql\n"), 0o644))

	cfg, err := newTestLoader(t, fs, WithConfigFile("/work/custom.yaml")).Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, "/work/custom.yaml", cfg.File)
}
