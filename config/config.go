// Package config resolves resource file locations and loads resxsync
// settings from .resxsync.yaml and RESXSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/resxsync/langmeta"
)

const (
	// DefaultLanguage is the target language compared when none is given.
	DefaultLanguage = "ja"
	// DefaultBaseLanguage is the authoritative source language.
	DefaultBaseLanguage = "en"
	// DefaultPrefix is the resource base name: Strings.<lang>.resx.
	DefaultPrefix = "Strings"
	// ResxExt is the resource file extension.
	ResxExt = ".resx"
)

var (
	// ErrBaseNotFound reports a missing base-language file.
	ErrBaseNotFound = errors.New("base file not found")
	// ErrTargetNotFound reports a missing target-language file.
	ErrTargetNotFound = errors.New("target file not found")
)

// FileNotFoundError carries the path of a missing input file.
// It unwraps to ErrBaseNotFound or ErrTargetNotFound.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string { return e.Path + " not found" }
func (e *FileNotFoundError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Paths holds the three files involved in comparing one language.
type Paths struct {
	Lang   string
	Base   string
	Target string
	Output string
}

// ResourceName returns the file name of the resource for lang,
// e.g. "Strings.ja.resx".
func ResourceName(prefix, lang string) string {
	return prefix + "." + lang + ResxExt
}

// OutputName returns the file name of the missing-entry extract for lang.
func OutputName(lang string) string {
	return "missing_" + lang + ".txt"
}

// Resolve builds the base, target and output paths for lang inside dir.
func Resolve(dir, prefix, baseLang, lang string) Paths {
	return Paths{
		Lang:   lang,
		Base:   filepath.Join(dir, ResourceName(prefix, baseLang)),
		Target: filepath.Join(dir, ResourceName(prefix, lang)),
		Output: filepath.Join(dir, OutputName(lang)),
	}
}

// Validate checks that both input files exist. The base file is checked
// first; when it is missing the target path is not examined.
func (p Paths) Validate() error {
	if !fileExists(p.Base) {
		return &FileNotFoundError{Path: p.Base, Err: ErrBaseNotFound}
	}
	if !fileExists(p.Target) {
		return &FileNotFoundError{Path: p.Target, Err: ErrTargetNotFound}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ---------------------------------------------------------------------------
// Language detection
// ---------------------------------------------------------------------------

// DetectLanguages returns the language codes of every <prefix>.<lang>.resx
// in dir except the base language, sorted.
func DetectLanguages(dir, prefix, baseLang string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix+".") || !strings.HasSuffix(name, ResxExt) {
			continue
		}
		// Strings.resx is the neutral resource, not a language
		if len(name) <= len(prefix)+1+len(ResxExt) {
			continue
		}
		lang := name[len(prefix)+1 : len(name)-len(ResxExt)]
		if lang == "" || lang == baseLang || !langmeta.Valid(lang) {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}
