package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func newLock() *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}
}

func TestHashDeterministic(t *testing.T) {
	h1 := Hash(`  <data name="A">`)
	h2 := Hash(`  <data name="A">`)
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	if h1 == Hash(`  <data name="B">`) {
		t.Errorf("Hash collision for different blocks")
	}
}

func TestTargetKey(t *testing.T) {
	got := TargetKey(filepath.Join("res", "Resources", "Strings.ja.resx"))
	if got != "Strings.ja.resx" {
		t.Errorf("TargetKey = %q, want %q", got, "Strings.ja.resx")
	}
}

func TestLoadNonExistent(t *testing.T) {
	dir := t.TempDir()
	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
	if lf.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("Path = %q", lf.Path())
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("version: 99\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load accepted a newer lock file version")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.Update("Strings.ja.resx", "Hello", "block-hello")
	lf.Update("Strings.ja.resx", "World", "block-world")
	lf.Update("Strings.ar.resx", "Hello", "block-hello")

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	targets, keys := lf2.Stats()
	if targets != 2 {
		t.Errorf("targets = %d, want 2", targets)
	}
	if keys != 3 {
		t.Errorf("keys = %d, want 3", keys)
	}
	if lf2.IsChanged("Strings.ja.resx", "World", "block-world") {
		t.Error("World should survive a save/load cycle unchanged")
	}
}

func TestIsChanged(t *testing.T) {
	lf := newLock()

	if !lf.IsChanged("Strings.ja.resx", "Hello", "v1") {
		t.Error("new entry should be changed")
	}

	lf.Update("Strings.ja.resx", "Hello", "v1")
	if lf.IsChanged("Strings.ja.resx", "Hello", "v1") {
		t.Error("unchanged entry should not be changed")
	}
	if !lf.IsChanged("Strings.ja.resx", "Hello", "v2") {
		t.Error("modified entry should be changed")
	}
	if !lf.IsChanged("Strings.ar.resx", "Hello", "v1") {
		t.Error("different target should be changed")
	}
}

func TestRecordedIsCopy(t *testing.T) {
	lf := newLock()
	lf.Update("Strings.ja.resx", "Hello", "v1")

	rec := lf.Recorded("Strings.ja.resx")
	rec["Hello"] = "tampered"
	if lf.IsChanged("Strings.ja.resx", "Hello", "v1") {
		t.Error("modifying Recorded() result changed the lock file")
	}
	if got := lf.Recorded("Strings.xx.resx"); len(got) != 0 {
		t.Errorf("Recorded(unknown) = %v, want empty", got)
	}
}

func TestUpdateBatch(t *testing.T) {
	lf := newLock()
	lf.UpdateBatch("Strings.ja.resx", map[string]string{
		"Hello": "Hello",
		"World": "World",
	})

	if lf.IsChanged("Strings.ja.resx", "Hello", "Hello") {
		t.Error("Hello should not be changed after batch update")
	}
	if lf.IsChanged("Strings.ja.resx", "World", "World") {
		t.Error("World should not be changed after batch update")
	}
}

func TestClean(t *testing.T) {
	lf := newLock()
	lf.Update("Strings.ja.resx", "Hello", "Hello")
	lf.Update("Strings.ja.resx", "World", "World")
	lf.Update("Strings.ja.resx", "Deleted", "Deleted")

	lf.Clean("Strings.ja.resx", []string{"Hello", "World"})

	if lf.IsChanged("Strings.ja.resx", "Hello", "Hello") {
		t.Error("Hello should still be tracked")
	}
	if !lf.IsChanged("Strings.ja.resx", "Deleted", "Deleted") {
		t.Error("Deleted should be removed by Clean")
	}
}

func TestRemoveTarget(t *testing.T) {
	lf := newLock()
	lf.Update("Strings.ja.resx", "Hello", "Hello")
	lf.RemoveTarget("Strings.ja.resx")

	targets, _ := lf.Stats()
	if targets != 0 {
		t.Errorf("targets after RemoveTarget = %d, want 0", targets)
	}
}

func TestTargetsAndSummary(t *testing.T) {
	lf := newLock()
	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}

	lf.Update("Strings.ja.resx", "Hello", "Hello")
	lf.Update("Strings.ar.resx", "Hello", "Hello")
	lf.Update("Strings.de.resx", "Hello", "Hello")

	targets := lf.Targets()
	expected := []string{"Strings.ar.resx", "Strings.de.resx", "Strings.ja.resx"}
	if len(targets) != len(expected) {
		t.Fatalf("targets len = %d, want %d", len(targets), len(expected))
	}
	for i := range expected {
		if targets[i] != expected[i] {
			t.Errorf("targets[%d] = %q, want %q", i, targets[i], expected[i])
		}
	}

	want := "3 targets, 3 keys (Strings.ar.resx: 1 keys, Strings.de.resx: 1 keys, Strings.ja.resx: 1 keys)"
	if got := lf.Summary(); got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := newLock()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			target := "Strings.ja.resx"
			key := "key" + string(rune('0'+n))
			lf.Update(target, key, "value")
			lf.IsChanged(target, key, "value")
			lf.Stats()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	_, keys := lf.Stats()
	if keys != 10 {
		t.Errorf("keys after concurrent writes = %d, want 10", keys)
	}
}
