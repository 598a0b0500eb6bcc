package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/config"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/baseline"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/exitcode"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/ui"
)

const reportXML = `<?xml version="1.0" encoding="UTF-8"?>
<results version="2">
    <cppcheck version="2.13.0"/>
    <errors>
        <error id="nullPointer" severity="error" msg="Null pointer dereference" verbose="Null pointer dereference: p" cwe="476">
            <location file="src/a.c" line="10" column="5"/>
        </error>
        <error id="unusedVariable" severity="style" msg="Unused variable: tmp" verbose="Unused variable: tmp" cwe="563">
            <location file="src/b.c" line="3" column="9"/>
        </error>
        <error id="missingIncludeSystem" severity="information" msg="Cppcheck cannot find all the include files" verbose="Cppcheck cannot find all the include files."/>
    </errors>
</results>
`

type result struct {
	code   int
	stdout string
	stderr string
}

// workdir switches to an empty temp dir holding cppcheck.xml, so no
// config file from the repository is picked up.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("cppcheck.xml", []byte(reportXML), 0o644))
	return dir
}

func run(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	// Only convert resets the console mode; other commands inherit it.
	ui.SetSilent(false)
	code := Execute(args, CLIConfig{Stdin: stdin, Stdout: &stdout, Stderr: &stderr})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestPositional(t *testing.T) {
	workdir(t)

	res := run(t, nil, "cppcheck.xml", "junit.xml")
	assert.Equal(t, 0, res.code, res.stderr)

	doc := readFile(t, "junit.xml")
	assert.Contains(t, doc, `<testsuite name="Cppcheck errors"`)
	assert.Contains(t, doc, "Null pointer dereference")
	assert.Contains(t, res.stderr, "Issues")
}

func TestPositionalExitCode(t *testing.T) {
	workdir(t)

	res := run(t, nil, "cppcheck.xml", "junit.xml", "1")
	assert.Equal(t, 1, res.code, res.stderr)
	assert.FileExists(t, "junit.xml")
}

func TestPositionalStdin(t *testing.T) {
	workdir(t)

	res := run(t, strings.NewReader(reportXML), "-", "junit.xml", "7")
	assert.Equal(t, 7, res.code, res.stderr)
	assert.Contains(t, readFile(t, "junit.xml"), "nullPointer")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "Usage:"},
		{"bad exit code", []string{"cppcheck.xml", "junit.xml", "abc"}, "not an integer"},
		{"exit code out of range", []string{"cppcheck.xml", "junit.xml", "300"}, "out of range"},
		{"too many arguments", []string{"a", "b", "1", "extra"}, "accepts at most 3 arg"},
		{"unknown flag", []string{"--frobnicate"}, "unknown flag"},
		{"bad group-by", []string{"convert", "-i", "cppcheck.xml", "-o", "junit.xml", "--group-by", "directory"}, "directory"},
		{"convert takes no args", []string{"convert", "cppcheck.xml"}, "unknown command"},
		{"missing config file", []string{"convert", "--config", "nope.yaml", "-i", "cppcheck.xml", "-o", "junit.xml"}, "not found"},
		{"baseline without input", []string{"baseline", "create"}, "--input is required"},
		{"baseline update to stdout", []string{"baseline", "create", "-i", "cppcheck.xml", "--update"}, "--update needs a baseline file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workdir(t)
			res := run(t, nil, tt.args...)
			assert.Equal(t, defaults.ExitUserError, res.code, res.stderr)
			assert.Contains(t, res.stderr, tt.want)
			assert.NoFileExists(t, "junit.xml")
		})
	}
}

func TestConvertFlags(t *testing.T) {
	workdir(t)

	res := run(t, nil, "convert",
		"-i", "cppcheck.xml", "-o", "junit.xml",
		"--group-by", "issue",
		"--suite-name", "static-analysis",
		"--error-exitcode", "5",
		"--sarif", "cppcheck.sarif",
		"--jsonl", "events.jsonl",
		"--metrics-file", "cppcheck.prom",
		"--metrics-labels", "project=core",
	)
	assert.Equal(t, 5, res.code, res.stderr)

	doc := readFile(t, "junit.xml")
	assert.Contains(t, doc, `name="static-analysis"`)
	assert.Contains(t, doc, `classname="cppcheck.nullPointer"`)
	assert.Contains(t, readFile(t, "cppcheck.sarif"), "nullPointer")
	assert.Contains(t, readFile(t, "events.jsonl"), `"type":"complete"`)
	assert.Contains(t, readFile(t, "cppcheck.prom"), `project="core"`)

	for _, name := range []string{"junit.xml", "cppcheck.sarif", "events.jsonl"} {
		assert.Contains(t, res.stderr, name)
	}
}

func TestConfigFile(t *testing.T) {
	workdir(t)
	require.NoError(t, os.WriteFile(defaults.ConfigFile, []byte(`
input: cppcheck.xml
output: from-config.xml
error_exitcode: 4
junit:
  information: fail
`), 0o644))

	res := run(t, nil, "convert")
	assert.Equal(t, 4, res.code, res.stderr)
	assert.Contains(t, readFile(t, "from-config.xml"), "missingIncludeSystem")

	// Flags override the file, positional arguments override both.
	res = run(t, nil, "convert", "--error-exitcode", "0")
	assert.Equal(t, 0, res.code, res.stderr)

	res = run(t, nil, "cppcheck.xml", "positional.xml", "9")
	assert.Equal(t, 9, res.code, res.stderr)
	assert.FileExists(t, "positional.xml")
}

func TestMalformedInput(t *testing.T) {
	workdir(t)
	require.NoError(t, os.WriteFile("broken.xml", []byte(`<results version="2"><errors>`), 0o644))

	res := run(t, nil, "broken.xml", "junit.xml", "1")
	assert.Equal(t, defaults.ExitFailure, res.code)
	assert.NotEmpty(t, res.stderr)
	assert.NoFileExists(t, "junit.xml")
}

func TestBaselineWorkflow(t *testing.T) {
	workdir(t)

	res := run(t, nil, "baseline", "create", "-i", "cppcheck.xml", "-o", "baseline.json")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "3 known issues")

	b, err := baseline.Load("baseline.json")
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())

	// Every issue is known, so nothing fails.
	res = run(t, nil, "convert", "-i", "cppcheck.xml", "-o", "junit.xml",
		"--baseline", "baseline.json", "--error-exitcode", "1")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, readFile(t, "junit.xml"), "<skipped")
}

func TestBaselineUpdate(t *testing.T) {
	workdir(t)

	res := run(t, nil, "baseline", "create", "-i", "cppcheck.xml", "-o", "baseline.json")
	require.Equal(t, 0, res.code, res.stderr)
	before, err := baseline.Load("baseline.json")
	require.NoError(t, err)

	// nullPointer was fixed and a new issue appeared.
	next := strings.Replace(reportXML,
		`<error id="nullPointer" severity="error" msg="Null pointer dereference" verbose="Null pointer dereference: p" cwe="476">
            <location file="src/a.c" line="10" column="5"/>`,
		`<error id="uninitvar" severity="error" msg="Uninitialized variable: n" verbose="Uninitialized variable: n" cwe="457">
            <location file="src/c.c" line="7" column="3"/>`, 1)
	require.NotEqual(t, reportXML, next)
	require.NoError(t, os.WriteFile("next.xml", []byte(next), 0o644))

	res = run(t, nil, "baseline", "create", "-i", "next.xml", "-o", "baseline.json", "--update")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "1 new issue(s), 1 fixed, 2 unchanged")

	after, err := baseline.Load("baseline.json")
	require.NoError(t, err)
	assert.Equal(t, 3, after.Len())
	for _, e := range before.Entries {
		got, ok := after.Get(e.Fingerprint)
		if e.ID == "nullPointer" {
			assert.False(t, ok, "fixed issues are dropped")
			continue
		}
		require.True(t, ok, e.ID)
		assert.True(t, got.FirstSeen.Equal(e.FirstSeen), e.ID)
	}

	// Missing baseline: --update writes a fresh one.
	res = run(t, nil, "baseline", "create", "-i", "next.xml", "-o", "fresh.json", "--update")
	require.Equal(t, 0, res.code, res.stderr)
	fresh, err := baseline.Load("fresh.json")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Len())
}

func TestBaselineCreateStdout(t *testing.T) {
	workdir(t)

	res := run(t, strings.NewReader(reportXML), "baseline", "create", "-i", "-")
	require.Equal(t, 0, res.code, res.stderr)

	b, err := baseline.Parse([]byte(res.stdout))
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
}

func TestJUnitOnStdout(t *testing.T) {
	workdir(t)

	res := run(t, nil, "cppcheck.xml", "-")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `<testsuite name="Cppcheck errors"`)
	assert.Contains(t, res.stdout, "Null pointer dereference")
	assert.NotContains(t, res.stderr, "<testsuite")
}

func TestConvertFailureExitReason(t *testing.T) {
	workdir(t)
	require.NoError(t, os.WriteFile("baseline.json", []byte(`{"entries": []}`), 0o644))

	res := run(t, nil, "convert", "-i", "cppcheck.xml", "-o", "junit.xml", "--baseline", "baseline.json")
	assert.Equal(t, defaults.ExitUserError, res.code)
	assert.Contains(t, res.stderr, exitcode.CodeDescription(exitcode.Usage))
	assert.NoFileExists(t, "junit.xml")
}

func TestHelpListsExitCodes(t *testing.T) {
	res := run(t, nil, "--help")
	assert.Equal(t, 0, res.code)
	for _, code := range []exitcode.Code{exitcode.Success, exitcode.Failure, exitcode.Usage, exitcode.Policy} {
		assert.Contains(t, res.stdout, exitcode.CodeDescription(code))
	}
	assert.Contains(t, res.stdout, "ERROR_EXITCODE")
	assert.Contains(t, res.stdout, "emit a passing testcase when the report has no issues")
}

func TestMissingBaselineWarns(t *testing.T) {
	workdir(t)

	res := run(t, nil, "convert", "-i", "cppcheck.xml", "-o", "junit.xml", "--baseline", "missing.json")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "baseline not found")
}

func TestQuiet(t *testing.T) {
	workdir(t)

	res := run(t, nil, "convert", "-i", "cppcheck.xml", "-o", "junit.xml", "--quiet")
	assert.Equal(t, 0, res.code)
	assert.Empty(t, res.stderr)
	assert.FileExists(t, "junit.xml")
}

func TestTracing(t *testing.T) {
	workdir(t)

	res := run(t, nil, "convert", "-i", "cppcheck.xml", "-o", "junit.xml", "--tracing")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "span finished")
	assert.Contains(t, res.stderr, "cppcheck_junit.convert")
}

func TestConfigInit(t *testing.T) {
	res := run(t, nil, "config", "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "group_by: file")

	cfg, err := config.Parse([]byte(res.stdout))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestVersion(t *testing.T) {
	res := run(t, nil, "version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, defaults.Version)

	res = run(t, nil, "--version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, defaults.Version)
}

func TestOutputFiles(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.WriteFile("junit.xml", []byte("<testsuites/>"), 0o644))

	cfg := config.Default()
	cfg.Output = filepath.Join(dir, "junit.xml")
	cfg.Outputs.SARIF = "missing.sarif"
	cfg.Outputs.Template = "text-summary"

	files := outputFiles(cfg)
	require.Len(t, files, 3)
	assert.Equal(t, int64(len("<testsuites/>")), files[0].Size)
	assert.Equal(t, int64(-1), files[1].Size)
	assert.Equal(t, "template", files[2].Kind)
	assert.Equal(t, defaults.StdStream, files[2].Path)
}
