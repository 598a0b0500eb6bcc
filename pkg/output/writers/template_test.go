package writers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

func TestTemplateWriter_TextSummary(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{BuiltIn: "text-summary"})
	require.NoError(t, err)
	feed(t, w, sampleEvents())
	out := buf.String()

	assert.Contains(t, out, "cppcheck-junit summary")
	assert.Contains(t, out, "Input: cppcheck.xml")
	assert.Contains(t, out, "Cppcheck: 2.13.0")
	assert.Contains(t, out, "Issues: 5 (3 failing, 1 suppressed)")
	assert.Contains(t, out, "  Error: 2")
	assert.Contains(t, out, "  src/a.c: 2 issues, 2 failing")
	assert.Contains(t, out, "Exit code: 1")
}

func TestTemplateWriter_GitHubAnnotations(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{BuiltIn: "github-annotations"})
	require.NoError(t, err)
	feed(t, w, sampleEvents())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// The suppressed issue is not annotated.
	require.Len(t, lines, 4)
	assert.Equal(t, "::error file=src/a.c,line=10,title=nullPointer::(error) Null pointer dereference", lines[0])
	assert.Equal(t, "::warning file=src/b.c,line=3,title=unusedVariable::(style) Unused variable: x", lines[1])
	assert.Equal(t, "::notice title=missingIncludeSystem::(information) Include file not found", lines[3])
}

func TestTemplateWriter_AnnotationEscaping(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{BuiltIn: "github-annotations"})
	require.NoError(t, err)
	is := testIssue(0, "syntaxError", finding.Error, "dir,1/a:b.c", 2, "100% wrong\nreally")
	feed(t, w, []events.Event{issueEvent(is, events.OutcomeFailed)})

	assert.Equal(t,
		"::error file=dir%2C1/a%3Ab.c,line=2,title=syntaxError::(error) 100%25 wrong%0Areally",
		strings.TrimSpace(buf.String()))
}

func TestTemplateWriter_InlineAndFile(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTemplateWriter(&buf, TemplateConfig{
		TemplateString: `{{ range .Issues }}{{ .Issue.ID | upper }};{{ end }}`,
	})
	require.NoError(t, err)
	feed(t, w, sampleEvents())
	assert.Equal(t, "NULLPOINTER;UNUSEDVARIABLE;MEMLEAK;MISSINGINCLUDESYSTEM;KNOWNCONDITIONTRUEFALSE;", buf.String())

	path := filepath.Join(t.TempDir(), "report.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ .Failed }}/{{ .Total }} {{ escapeXML "<a&b>" }}`), 0o644))

	buf.Reset()
	w, err = NewTemplateWriter(&buf, TemplateConfig{TemplatePath: path})
	require.NoError(t, err)
	feed(t, w, sampleEvents())
	assert.Equal(t, "3/5 &lt;a&amp;b&gt;", buf.String())
}

func TestTemplateWriter_Errors(t *testing.T) {
	_, err := NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{BuiltIn: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github-annotations, text-summary")

	_, err = NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{})
	assert.Error(t, err)

	_, err = NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{TemplateString: "{{ .Broken"})
	assert.Error(t, err)
}

func TestTemplateHelpers(t *testing.T) {
	assert.Equal(t, `"a,b"`, tmplEscapeCSV("a,b"))
	assert.Equal(t, `"say ""hi"""`, tmplEscapeCSV(`say "hi"`))
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/476.html", tmplCweLink(476))
	assert.Equal(t, `{"a":1}`, tmplToJSON(map[string]int{"a": 1}))
}
