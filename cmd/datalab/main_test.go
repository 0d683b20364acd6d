package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataio"
)

const people = `name,age,income,city
ann,23,30000,Paris
bob,,42000,Lyon
cid,35,51000,Paris
dee,41,,Nice
bob,,42000,Lyon
eve,29,38000,Paris
fay,52,70000,Lyon
gus,38,55000,Nice
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "people.csv", people)
	rules := writeFile(t, dir, "rules.yaml", "missing_values:\n  policy: drop\nduplicates:\n  policy: drop\n")
	out := filepath.Join(dir, "clean.csv")

	stdout, err := run(t, "clean", data, "--rules", rules, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "missing_values")
	assert.Contains(t, stdout, "rows 8 -> 5")
	assert.Contains(t, stdout, "written: "+out)

	ds, err := dataio.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.NumRows())
}

func TestCleanCommandJSON(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "people.csv", people)
	rules := writeFile(t, dir, "rules.json", `{"duplicates": {"policy": "drop"}}`)

	stdout, err := run(t, "clean", data, "--rules", rules, "--json")
	require.NoError(t, err)

	var got struct {
		Rows   int `json:"rows"`
		Report struct {
			Stages []struct {
				Stage string `json:"stage"`
			} `json:"stages"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 7, got.Rows)
	require.Len(t, got.Report.Stages, 1)
}

func TestCleanCommandRequiresRules(t *testing.T) {
	data := writeFile(t, t.TempDir(), "people.csv", people)
	_, err := run(t, "clean", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules")
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "people.csv", people)
	annotated := filepath.Join(dir, "clusters.csv")
	png := filepath.Join(dir, "clusters.png")

	stdout, err := run(t, "analyze", data,
		"-a", "kmeans", "-f", "age,income", "--n-clusters", "2",
		"--annotate", annotated, "--chart", png)
	require.NoError(t, err)
	assert.Contains(t, stdout, "kmeans")
	assert.Contains(t, stdout, "iterations)")
	assert.FileExists(t, png)

	ds, err := dataio.Load(annotated)
	require.NoError(t, err)
	assert.True(t, ds.HasColumn("cluster"))
}

func TestAnalyzeCommandJSON(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "people.csv", people)

	stdout, err := run(t, "analyze", data, "-a", "linear_regression", "-f", "age", "-t", "income", "--json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "linear_regression", got["algorithm"])
}

func TestAnalyzeCommandFailedFamily(t *testing.T) {
	data := writeFile(t, t.TempDir(), "people.csv", people)

	for _, format := range [][]string{nil, {"--json"}} {
		args := append([]string{"analyze", data, "-a", "kmeans", "-f", "age,income", "--n-clusters", "50"}, format...)
		stdout, err := run(t, args...)
		require.Error(t, err, "format %v", format)
		assert.Contains(t, err.Error(), "kmeans failed")
		if len(format) > 0 {
			var got struct {
				Diagnostics []struct {
					Code string `json:"code"`
				} `json:"diagnostics"`
			}
			require.NoError(t, json.Unmarshal([]byte(stdout), &got))
			require.NotEmpty(t, got.Diagnostics)
			assert.Equal(t, "family_failed", got.Diagnostics[len(got.Diagnostics)-1].Code)
		}
	}
}

func TestAnalyzeCommandErrors(t *testing.T) {
	data := writeFile(t, t.TempDir(), "people.csv", people)

	_, err := run(t, "analyze", data, "-a", "svm", "-f", "age")
	assert.Error(t, err)

	_, err = run(t, "analyze", data, "-a", "linear_regression", "-f", "age")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "people.csv", people)
	out := filepath.Join(dir, "hist.png")

	stdout, err := run(t, "plot", data, "--kind", "histogram", "-x", "age", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, out)
	assert.FileExists(t, out)

	_, err = run(t, "plot", data, "--kind", "radar", "-x", "age")
	assert.Error(t, err)

	_, err = run(t, "plot", data, "--kind", "scatter", "-x", "age", "-o", filepath.Join(dir, "bad.png"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "bad.png"))
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	data := writeFile(t, dir, "people.csv", people)
	rules := writeFile(t, dir, "rules.yaml", "duplicates:\n  policy: drop\n")
	outDir := filepath.Join(dir, "out")

	stdout, err := run(t, "export", data, "--rules", rules, "--format", "excel", "--dir", outDir)
	require.NoError(t, err)
	path := strings.TrimSpace(strings.TrimPrefix(stdout, "written: "))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "cleaned_data_"))
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	ds, err := dataio.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, ds.NumRows())
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datalab.yaml")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	stdout, err := run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "missing_tolerance: 0.1")
	assert.Contains(t, stdout, "export_dir: exports")
}
