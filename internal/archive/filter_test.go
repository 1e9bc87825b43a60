package archive_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/gochunk/internal/archive"
)

// Case is a single exclude-pattern test case from a YAML golden file.
type Case struct {
	Pattern     string `yaml:"pattern"`
	Path        string `yaml:"path"`
	Dir         bool   `yaml:"dir,omitempty"`
	Match       bool   `yaml:"match"`
	Description string `yaml:"description,omitempty"`
}

// Group is a named collection of test cases.
type Group struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

func loadGolden(t *testing.T) map[string][]Group {
	t.Helper()

	files, err := filepath.Glob("testdata/*.yml")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no testdata/*.yml files found")

	golden := make(map[string][]Group)

	for _, f := range files {
		data, err := os.ReadFile(f) //nolint:gosec // test helper reads known testdata files
		require.NoError(t, err)

		var groups []Group
		require.NoError(t, yaml.Unmarshal(data, &groups), "parsing %s", f)

		golden[filepath.Base(f)] = groups
	}

	return golden
}

func TestFilterGolden(t *testing.T) {
	t.Parallel()

	for file, groups := range loadGolden(t) {
		for _, group := range groups {
			t.Run(file+"/"+group.Name, func(t *testing.T) {
				t.Parallel()

				for i, tc := range group.Cases {
					desc := tc.Description
					if desc == "" {
						desc = fmt.Sprintf("case_%d", i)
					}

					t.Run(desc, func(t *testing.T) {
						t.Parallel()

						flt, err := archive.NewFilter([]string{tc.Pattern})
						require.NoError(t, err)

						assert.Equal(t, tc.Match, flt.Excluded(tc.Path, tc.Dir),
							"pattern %q path %q dir=%v", tc.Pattern, tc.Path, tc.Dir)
					})
				}
			})
		}
	}
}

func TestFilterInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := archive.NewFilter([]string{"[unclosed"})
	require.Error(t, err)
}

func TestFilterEmpty(t *testing.T) {
	t.Parallel()

	flt, err := archive.NewFilter([]string{"", "  "})
	require.NoError(t, err)
	assert.False(t, flt.Excluded("anything", false))
}

func TestLoadPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "excludes.jsonc")

	content := `// build output
[
  "build/**", /* generated */
  "*.tmp",
]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	patterns, err := archive.LoadPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"build/**", "*.tmp"}, patterns)

	_, err = archive.LoadPatterns(filepath.Join(dir, "missing.jsonc"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.jsonc")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "a list"}`), 0o600))

	_, err = archive.LoadPatterns(bad)
	require.Error(t, err)
}
