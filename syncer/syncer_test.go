package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/resxsync/config"
	"github.com/minios-linux/resxsync/lockfile"
)

func entry(key, value string) string {
	return "  <data name=\"" + key + "\" xml:space=\"preserve\">\n    <value>" + value + "</value>\n  </data>"
}

func resxDoc(entries ...string) string {
	return "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<root>\n" + strings.Join(entries, "\n") + "\n</root>\n"
}

func setup(t *testing.T, base, target string) config.Paths {
	t.Helper()
	dir := t.TempDir()
	p := config.Resolve(dir, config.DefaultPrefix, "en", "ja")
	if base != "" {
		require.NoError(t, os.WriteFile(p.Base, []byte(base), 0644))
	}
	if target != "" {
		require.NoError(t, os.WriteFile(p.Target, []byte(target), 0644))
	}
	return p
}

func TestRun_MissingKeysWritten(t *testing.T) {
	p := setup(t,
		resxDoc(entry("A", "Alpha"), entry("B", "Bravo"), entry("C", "Charlie")),
		resxDoc(entry("B", "ブラボー")),
	)

	res, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	assert.Equal(t, StateReportWritten, res.State)
	assert.Equal(t, []string{"A", "C"}, res.Missing)
	assert.Equal(t, 3, res.BaseKeys)

	doc, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.Equal(t, entry("A", "Alpha")+"\n"+entry("C", "Charlie"), string(doc))
}

func TestRun_Idempotent(t *testing.T) {
	p := setup(t,
		resxDoc(entry("A", "Alpha"), entry("B", "Bravo")),
		resxDoc(entry("B", "x")),
	)

	first, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	doc1, err := os.ReadFile(p.Output)
	require.NoError(t, err)

	second, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	doc2, err := os.ReadFile(p.Output)
	require.NoError(t, err)

	assert.Equal(t, first.Missing, second.Missing)
	assert.Equal(t, doc1, doc2)
}

func TestRun_InSyncWritesNothing(t *testing.T) {
	p := setup(t,
		resxDoc(entry("A", "Alpha")),
		resxDoc(entry("A", "アルファ"), entry("Extra", "x")),
	)

	res, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	assert.Equal(t, StateInSync, res.State)
	assert.Empty(t, res.Missing)
	assert.NoFileExists(t, p.Output)
}

func TestRun_InSyncKeepsExistingOutput(t *testing.T) {
	p := setup(t, resxDoc(entry("A", "Alpha")), resxDoc(entry("A", "x")))
	require.NoError(t, os.WriteFile(p.Output, []byte("previous"), 0644))

	_, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)

	doc, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(doc))
}

func TestRun_BaseMissingAborts(t *testing.T) {
	p := setup(t, "", "")

	res, err := Run(context.Background(), Options{Paths: p})
	require.ErrorIs(t, err, config.ErrBaseNotFound)
	assert.Equal(t, StateAborted, res.State)
	assert.NoFileExists(t, p.Output)

	s := res.Summary("en")
	assert.Equal(t, p.Base, s.NotFound)
}

func TestRun_TargetMissingAborts(t *testing.T) {
	p := setup(t, resxDoc(entry("A", "Alpha")), "")

	res, err := Run(context.Background(), Options{Paths: p})
	require.ErrorIs(t, err, config.ErrTargetNotFound)
	assert.Equal(t, StateAborted, res.State)
	assert.NoFileExists(t, p.Output)
}

func TestRun_DuplicateKeys(t *testing.T) {
	p := setup(t,
		resxDoc(entry("A", "first"), entry("A", "second")),
		resxDoc(),
	)

	res, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A"}, res.Missing)

	doc, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.Equal(t, entry("A", "first")+"\n"+entry("A", "first"), string(doc))
}

func TestRun_KeyOutsideDataIsListedButNotWritten(t *testing.T) {
	base := resxDoc(`  <resheader name="Orphan">`+"\n    <value>x</value>\n  </resheader>", entry("A", "Alpha"))
	p := setup(t, base, resxDoc())

	res, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	assert.Equal(t, []string{"Orphan", "A"}, res.Missing)

	doc, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.Equal(t, entry("A", "Alpha"), string(doc))

	s := res.Summary("en")
	require.Len(t, s.Missing, 2)
	assert.False(t, s.Missing[0].Found)
	assert.True(t, s.Missing[1].Found)
}

func TestRun_StrictFailsOnUnmatchedKey(t *testing.T) {
	base := resxDoc(`  <resheader name="Orphan">`+"\n  </resheader>", entry("A", "Alpha"))
	p := setup(t, base, resxDoc())

	res, err := Run(context.Background(), Options{Paths: p, Strict: true})
	require.ErrorIs(t, err, ErrBlockNotFound)
	assert.Equal(t, StateReportWritten, res.State)
	assert.FileExists(t, p.Output)
}

func TestRun_CRLFInputWritesConsistentLineEndings(t *testing.T) {
	crlf := func(s string) string { return strings.ReplaceAll(s, "\n", "\r\n") }
	p := setup(t,
		crlf(resxDoc(entry("A", "Alpha"), entry("B", "Bravo"), entry("C", "Charlie"))),
		crlf(resxDoc(entry("B", "ブラボー"))),
	)

	res, err := Run(context.Background(), Options{Paths: p})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, res.Missing)

	doc, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "\r")
	assert.Equal(t, entry("A", "Alpha")+"\n"+entry("C", "Charlie"), string(doc))
}

func TestRun_DryRun(t *testing.T) {
	p := setup(t, resxDoc(entry("A", "Alpha")), resxDoc())

	res, err := Run(context.Background(), Options{Paths: p, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, StateChecked, res.State)
	assert.Equal(t, []string{"A"}, res.Missing)
	assert.NoFileExists(t, p.Output)
}

func TestRun_Values(t *testing.T) {
	p := setup(t, resxDoc(entry("A", "Alpha")), resxDoc())

	res, err := Run(context.Background(), Options{Paths: p, DryRun: true, Values: true})
	require.NoError(t, err)

	s := res.Summary("en")
	require.Len(t, s.Missing, 1)
	assert.Equal(t, "Alpha", s.Missing[0].Value)
}

func TestRun_StaleTracking(t *testing.T) {
	p := setup(t,
		resxDoc(entry("A", "Alpha"), entry("B", "Bravo")),
		resxDoc(entry("A", "x"), entry("B", "y")),
	)
	lf, err := lockfile.Load(filepath.Dir(p.Base))
	require.NoError(t, err)

	res, err := Run(context.Background(), Options{Paths: p, Lock: lf})
	require.NoError(t, err)
	assert.Empty(t, res.Stale, "first run only records a baseline")

	require.NoError(t, os.WriteFile(p.Base, []byte(resxDoc(entry("A", "Alpha!"), entry("B", "Bravo"))), 0644))

	res, err = Run(context.Background(), Options{Paths: p, Lock: lf})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Stale)

	res, err = Run(context.Background(), Options{Paths: p, Lock: lf})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Stale, "stale keys stay stale until accepted")

	n, err := Accept(p, lf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err = Run(context.Background(), Options{Paths: p, Lock: lf})
	require.NoError(t, err)
	assert.Empty(t, res.Stale)
}

func TestRunAll_KeepsOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("Strings.en.resx", resxDoc(entry("A", "Alpha"), entry("B", "Bravo")))
	write("Strings.ja.resx", resxDoc(entry("A", "x")))
	write("Strings.ar.resx", resxDoc(entry("A", "x"), entry("B", "y")))

	var paths []config.Paths
	for _, lang := range []string{"ja", "de", "ar"} {
		paths = append(paths, config.Resolve(dir, config.DefaultPrefix, "en", lang))
	}

	results := RunAll(context.Background(), Options{}, paths, 2)
	require.Len(t, results, 3)

	assert.Equal(t, "ja", results[0].Paths.Lang)
	assert.Equal(t, StateReportWritten, results[0].State)
	assert.Equal(t, []string{"B"}, results[0].Missing)

	assert.Equal(t, "de", results[1].Paths.Lang)
	assert.Equal(t, StateAborted, results[1].State)
	assert.ErrorIs(t, results[1].Err, config.ErrTargetNotFound)

	assert.Equal(t, "ar", results[2].Paths.Lang)
	assert.Equal(t, StateInSync, results[2].State)
}
