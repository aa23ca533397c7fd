package checker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const misuseSrc = `package sample

import "time"

type user struct {
	Name    string      ` + "`validate:\"notblank,size=2..14\"`" + `
	Age     int         ` + "`validate:\"email\"`" + `
	Tags    []string    ` + "`validate:\"dive,notblank\"`" + `
	Created time.Time   ` + "`validate:\"past\"`" + `
	Weird   string      ` + "`validate:\"nope\"`" + `
	Bad     string      ` + "`validate:\"size=5..2\"`" + `
	secret  string      ` + "`validate:\"notblank\"`" + `
	Count   int         ` + "`validate:\"dive,notblank\"`" + `
	Times   []time.Time ` + "`validate:\"chronological\"`" + `
}
`

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func runChecker(t *testing.T, cfg Config, targets ...string) []Diagnostic {
	t.Helper()
	c := New(cfg, nil, zerolog.Nop())
	diags, err := c.Run(context.Background(), targets)
	require.NoError(t, err)
	return diags
}

func checkNames(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Check
	}
	return out
}

func TestRunReportsMisuse(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "sample.go", misuseSrc)

	diags := runChecker(t, DefaultConfig(), dir)
	assert.Equal(t, []string{
		CheckInapplicableConstraint, // email on int
		CheckUnknownConstraint,      // nope
		CheckMalformedArgument,      // size=5..2
		CheckUnexportedField,        // secret
		CheckDiveNonContainer,       // dive on int
		CheckWrongTarget,            // chronological on a field
	}, checkNames(diags))
	for _, d := range diags {
		assert.Equal(t, SeverityError, d.Severity)
		assert.Greater(t, d.Line, 0)
	}
	assert.True(t, HasErrors(diags))
}

func TestRunCleanFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "clean.go", `package sample

type account struct {
	Name string `+"`validate:\"notblank,size=2..14\" json:\"name\"`"+`
	Tags []string `+"`validate:\"size=..5,dive,notblank\"`"+`
}
`)
	diags := runChecker(t, DefaultConfig(), dir)
	assert.Empty(t, diags)
	assert.False(t, HasErrors(diags))
}

func TestSeverityConfig(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "sample.go", misuseSrc)

	cfg := DefaultConfig()
	cfg.Checks[CheckUnknownConstraint] = SeverityWarning
	cfg.Checks[CheckInapplicableConstraint] = SeverityIgnore

	diags := runChecker(t, cfg, dir)
	assert.NotContains(t, checkNames(diags), CheckInapplicableConstraint)
	for _, d := range diags {
		if d.Check == CheckUnknownConstraint {
			assert.Equal(t, SeverityWarning, d.Severity)
		}
	}
	// the remaining checks still carry error severity
	assert.True(t, HasErrors(diags))
}

func TestSuppressions(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "sample.go", misuseSrc)

	cfg := DefaultConfig()
	cfg.Suppressions = []Suppression{
		{Path: "sample.go", Check: CheckUnexportedField, Reason: "generated"},
		{Path: "*.go", Check: CheckWrongTarget},
	}
	diags := runChecker(t, cfg, dir)
	names := checkNames(diags)
	assert.NotContains(t, names, CheckUnexportedField)
	assert.NotContains(t, names, CheckWrongTarget)
	assert.Contains(t, names, CheckUnknownConstraint)
}

func TestCacheSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	src := "package sample\n\ntype a struct {\n\tN string `validate:\"notblank\"`\n}\n"
	path := writeSource(t, dir, "a.go", src)

	cfg := DefaultConfig()
	cfg.CacheFile = filepath.Join(dir, ".cache.json")

	diags := runChecker(t, cfg, path)
	require.Empty(t, diags)

	fi, err := os.Stat(path)
	require.NoError(t, err)

	// Introduce a violation but keep the fingerprint (size and mtime)
	// identical. The cached entry must short-circuit the re-check.
	mutated := "package sample\n\ntype a struct {\n\tN string `validate:\"notblort\"`\n}\n"
	require.Equal(t, len(src), len(mutated))
	require.NoError(t, os.WriteFile(path, []byte(mutated), 0o644))
	require.NoError(t, os.Chtimes(path, time.Now(), fi.ModTime()))

	diags = runChecker(t, cfg, path)
	assert.Empty(t, diags)

	// A new mtime invalidates the entry and the violation surfaces.
	require.NoError(t, os.Chtimes(path, time.Now(), fi.ModTime().Add(time.Second)))
	diags = runChecker(t, cfg, path)
	require.Len(t, diags, 1)
	assert.Equal(t, CheckUnknownConstraint, diags[0].Check)
}

func TestDirtyFilesAreNotCached(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "bad.go", "package sample\n\ntype b struct {\n\tN string `validate:\"nope\"`\n}\n")

	cfg := DefaultConfig()
	cfg.CacheFile = filepath.Join(dir, ".cache.json")

	require.Len(t, runChecker(t, cfg, path), 1)
	require.Len(t, runChecker(t, cfg, path), 1)
}

func TestCorruptCacheIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, ".cache.json")
	require.NoError(t, os.WriteFile(cachePath, []byte("{not json"), 0o644))

	c := loadCache(cachePath)
	assert.Empty(t, c.Entries)

	path := writeSource(t, dir, "bad.go", "package sample\n\ntype b struct {\n\tN string `validate:\"nope\"`\n}\n")
	cfg := DefaultConfig()
	cfg.CacheFile = cachePath
	assert.Len(t, runChecker(t, cfg, path), 1)
}

func TestCollectFilesSkipsVendorAndTestdata(t *testing.T) {
	dir := t.TempDir()
	bad := "package sample\n\ntype b struct {\n\tN string `validate:\"nope\"`\n}\n"
	for _, sub := range []string{"vendor", "testdata", ".hidden", "_gen"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		writeSource(t, filepath.Join(dir, sub), "bad.go", bad)
	}
	writeSource(t, dir, "ok.go", "package sample\n")

	diags := runChecker(t, DefaultConfig(), dir)
	assert.Empty(t, diags)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	supPath := filepath.Join(dir, "suppressions.yaml")
	require.NoError(t, os.WriteFile(supPath, []byte(
		"- path: '*.pb.go'\n  check: unexported-field\n  reason: generated code\n"), 0o644))

	cfgPath := filepath.Join(dir, "constraintcheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"checks:\n  unknown-constraint: warning\nsuppressions: suppressions.yaml\ncache: .cache.json\n"), 0o644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, SeverityWarning, cfg.severityFor(CheckUnknownConstraint))
	assert.Equal(t, SeverityError, cfg.severityFor(CheckMalformedArgument))
	assert.Equal(t, filepath.Join(dir, ".cache.json"), cfg.CacheFile)
	require.Len(t, cfg.Suppressions, 1)
	assert.True(t, cfg.suppressed("api/user.pb.go", CheckUnexportedField))
	assert.False(t, cfg.suppressed("api/user.pb.go", CheckUnknownConstraint))
}

func TestLoadConfigBadSeverity(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "constraintcheck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("checks:\n  unknown-constraint: loud\n"), 0o644))

	_, err := LoadConfig(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad severity")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	diags := []Diagnostic{
		{File: "a.go", Line: 3, Col: 2, Check: CheckUnknownConstraint, Severity: SeverityError, Message: `N: unknown constraint "nope"`},
	}
	require.NoError(t, WriteText(&buf, diags))
	assert.Equal(t, "a.go:3:2: [error] unknown-constraint: N: unknown constraint \"nope\"\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	diags := []Diagnostic{{File: "a.go", Line: 1, Col: 1, Check: CheckUnknownConstraint, Severity: SeverityWarning, Message: "m"}}
	require.NoError(t, WriteJSON(&buf, diags))
	assert.Contains(t, buf.String(), `"check": "unknown-constraint"`)
	assert.Contains(t, buf.String(), `"severity": "warning"`)
}
