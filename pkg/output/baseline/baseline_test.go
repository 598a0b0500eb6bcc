package baseline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
)

func testReport() *cppcheck.Report {
	return &cppcheck.Report{
		FormatVersion:   2,
		CppcheckVersion: "2.13.0",
		Issues: []cppcheck.Issue{
			{Index: 0, ID: "nullPointer", Severity: finding.Error, File: "/work/src/b.c", Line: 10, Message: "Null pointer dereference"},
			{Index: 1, ID: "unusedVariable", Severity: finding.Style, File: "/work/src/a.c", Line: 3, Message: "Unused variable: x"},
			{Index: 2, ID: "memleak", Severity: finding.Error, File: "/work/src/a.c", Line: 22, Message: "Memory leak: buf"},
			// Same issue moved by an edit: same fingerprint.
			{Index: 3, ID: "memleak", Severity: finding.Error, File: "/work/src/a.c", Line: 40, Message: "Memory leak: buf"},
		},
	}
}

func TestFingerprint_IgnoresLineAndCheckout(t *testing.T) {
	a := cppcheck.Issue{ID: "nullPointer", File: "/home/ci/build-1/src/a.c", Line: 10, Message: "m"}
	b := cppcheck.Issue{ID: "nullPointer", File: "/tmp/other/src/a.c", Line: 99, Message: "m"}

	assert.Equal(t, Fingerprint(a, "/home/ci/build-1"), Fingerprint(b, "/tmp/other"))
	assert.NotEqual(t, Fingerprint(a, ""), Fingerprint(b, ""))

	c := a
	c.Message = "other"
	assert.NotEqual(t, Fingerprint(a, "/home/ci/build-1"), Fingerprint(c, "/home/ci/build-1"))
}

func TestFromReport(t *testing.T) {
	b := FromReport(testReport(), "/work")

	assert.Equal(t, Version, b.Version)
	assert.Equal(t, "2.13.0", b.CppcheckVersion)
	require.Equal(t, 3, b.Len(), "duplicate fingerprint is stored once")

	// Sorted by file, then ID.
	assert.Equal(t, "src/a.c", b.Entries[0].File)
	assert.Equal(t, "memleak", b.Entries[0].ID)
	assert.Equal(t, "unusedVariable", b.Entries[1].ID)
	assert.Equal(t, "src/b.c", b.Entries[2].File)
	assert.Equal(t, "error", b.Entries[2].Severity)
	for _, e := range b.Entries {
		assert.Len(t, e.Fingerprint, 32)
		assert.Equal(t, b.CreatedAt, e.FirstSeen)
	}

	issue := testReport().Issues[0]
	assert.True(t, b.Contains(Fingerprint(issue, "/work")))
	assert.False(t, b.Contains("0000"))
}

func TestFromReport_Nil(t *testing.T) {
	b := FromReport(nil, "")
	assert.Equal(t, 0, b.Len())
	assert.NotNil(t, b.Entries)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	orig := FromReport(testReport(), "/work")
	require.NoError(t, orig.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entries"`)
	assert.True(t, strings.HasSuffix(string(data), "\n"))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig.Len(), loaded.Len())
	assert.Equal(t, orig.Entries[0].Fingerprint, loaded.Entries[0].Fingerprint)
	assert.True(t, orig.CreatedAt.Equal(loaded.CreatedAt))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrBaselineNotFound)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", "{", "invalid baseline"},
		{"no version", `{"entries": []}`, "missing version"},
		{"future version", `{"version": "9.0", "entries": []}`, "unsupported version"},
		{"entry without fingerprint", `{"version": "1.0", "entries": [{"id": "x"}]}`, "no fingerprint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidBaseline), "error %v should wrap ErrInvalidBaseline", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_EmptyEntries(t *testing.T) {
	b, err := Parse([]byte(`{"version": "1.0"}`))
	require.NoError(t, err)
	assert.NotNil(t, b.Entries)
	assert.Equal(t, 0, b.Len())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	b := New()
	require.NoError(t, b.Write(&buf))

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, b.Tool, parsed.Tool)
}

func TestCompare(t *testing.T) {
	b := New()
	b.Add(Entry{Fingerprint: "aaa", ID: "nullPointer"})
	b.Add(Entry{Fingerprint: "bbb", ID: "memleak"})

	result := b.Compare([]Entry{
		{Fingerprint: "aaa", ID: "nullPointer"},
		{Fingerprint: "ccc", ID: "uninitvar"},
	})

	assert.True(t, result.HasNew)
	require.Len(t, result.New, 1)
	assert.Equal(t, "uninitvar", result.New[0].ID)
	require.Len(t, result.Fixed, 1)
	assert.Equal(t, "memleak", result.Fixed[0].ID)
	require.Len(t, result.Unchanged, 1)
	assert.Equal(t, "1 new issue(s), 1 fixed, 1 unchanged", result.Summary)

	clean := b.Compare([]Entry{{Fingerprint: "aaa"}, {Fingerprint: "bbb"}})
	assert.False(t, clean.HasNew)
	assert.Equal(t, "No new issues, 2 unchanged", clean.Summary)
}

func TestAddRemoveGet(t *testing.T) {
	b := New()
	assert.True(t, b.Add(Entry{Fingerprint: "aaa", ID: "x"}))
	assert.False(t, b.Add(Entry{Fingerprint: "aaa", ID: "y"}))

	e, ok := b.Get("aaa")
	require.True(t, ok)
	assert.Equal(t, "x", e.ID)
	assert.False(t, e.FirstSeen.IsZero())

	assert.True(t, b.Remove("aaa"))
	assert.False(t, b.Remove("aaa"))
	assert.Equal(t, 0, b.Len())
}

func TestMerge(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	b := New()
	b.Add(Entry{Fingerprint: "aaa", FirstSeen: late})

	other := New()
	other.Add(Entry{Fingerprint: "aaa", FirstSeen: early})
	other.Add(Entry{Fingerprint: "bbb", FirstSeen: late})

	b.Merge(other)
	b.Merge(nil)
	b.Merge(b)

	assert.Equal(t, 2, b.Len())
	e, _ := b.Get("aaa")
	assert.Equal(t, early, e.FirstSeen)
}

func TestUpdate(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := FromReport(testReport(), "/work")
	for i := range b.Entries {
		b.Entries[i].FirstSeen = early
	}

	next := testReport()
	next.CppcheckVersion = "2.14.0"
	next.Issues = append(next.Issues[1:], cppcheck.Issue{
		Index: 4, ID: "uninitvar", Severity: finding.Error, File: "/work/src/c.c", Line: 7, Message: "Uninitialized variable: n",
	})

	cmp := b.Update(next, "/work")
	assert.Equal(t, "1 new issue(s), 1 fixed, 2 unchanged", cmp.Summary)
	require.Len(t, cmp.Fixed, 1)
	assert.Equal(t, "nullPointer", cmp.Fixed[0].ID)

	require.Equal(t, 3, b.Len())
	assert.False(t, b.Contains(cmp.Fixed[0].Fingerprint))
	assert.Equal(t, "2.14.0", b.CppcheckVersion)

	ids := make([]string, 0, b.Len())
	for _, e := range b.Entries {
		ids = append(ids, e.ID)
		if e.ID == "uninitvar" {
			assert.True(t, e.FirstSeen.After(early))
		} else {
			assert.Equal(t, early, e.FirstSeen, e.ID)
		}
	}
	assert.Equal(t, []string{"memleak", "unusedVariable", "uninitvar"}, ids)
}

func TestConcurrentAccess(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			b.Add(Entry{Fingerprint: string(rune('a' + i))})
		}(i)
		go func() {
			defer wg.Done()
			_ = b.Contains("a")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, b.Len())
}
