package hascoq

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/hascoq/hascoq/parser"
	"github.com/hascoq/hascoq/report"
)

// Golden end-to-end fixtures. Each txtar archive holds one or more .hs
// modules (compiled in order with a shared converter, so later modules
// can import earlier ones) and an "expect" file whose non-empty,
// non-comment lines must all occur in the concatenated output.
func TestGoldenFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			archive, err := txtar.ParseFile(path)
			require.NoError(t, err)

			conv := testConverter(t)
			var out strings.Builder
			var expect []string
			for _, f := range archive.Files {
				if f.Name == "expect" {
					for _, line := range strings.Split(string(f.Data), "\n") {
						line = strings.TrimRight(line, " \t")
						if line == "" || strings.HasPrefix(line, "#") {
							continue
						}
						expect = append(expect, line)
					}
					continue
				}
				rep := report.NewReporter()
				mod, err := parser.ParseModule(f.Name, string(f.Data), rep)
				require.NoError(t, err, f.Name)
				file, _, err := conv.ConvertModule(mod, rep)
				require.NoError(t, err, f.Name)
				require.NoError(t, file.Write(&out))
				out.WriteString("\n")
			}
			require.NotEmpty(t, expect, "fixture has no expect file")
			text := out.String()
			for _, want := range expect {
				assert.Contains(t, text, want)
			}
		})
	}
}
