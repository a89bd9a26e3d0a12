// Package report writes the missing-entry extract and renders run
// summaries as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/minios-linux/resxsync/i18n"
	"github.com/minios-linux/resxsync/resx"
)

// Separator is printed between the summary header and the key list.
var Separator = strings.Repeat("-", 30)

// WriteDocument writes the found blocks, newline-separated, to path,
// replacing any previous file. Blocks that were not found are skipped.
func WriteDocument(path string, blocks []resx.Block) error {
	doc := strings.Join(resx.Found(blocks), "\n")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Summary model
// ---------------------------------------------------------------------------

// Missing is one missing key as shown to translators.
type Missing struct {
	Key     string `json:"key"`
	Found   bool   `json:"found"`
	Value   string `json:"value,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Summary is the outcome of comparing one language.
type Summary struct {
	Language string    `json:"language"`
	BaseLang string    `json:"base_language"`
	Base     string    `json:"base"`
	Target   string    `json:"target"`
	Output   string    `json:"output"`
	State    string    `json:"state"`
	InSync   bool      `json:"in_sync"`
	Written  bool      `json:"written"`
	BaseKeys int       `json:"base_keys"`
	Missing  []Missing `json:"missing"`
	Stale    []string  `json:"stale,omitempty"`
	Error    string    `json:"error,omitempty"`

	// NotFound is the missing input file of an aborted run.
	NotFound string `json:"-"`
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

// WriteText prints the console summary of one run.
func (s *Summary) WriteText(w io.Writer) {
	if s.NotFound != "" {
		fmt.Fprintln(w, i18n.T("Error: %s not found.", s.NotFound))
		return
	}
	if s.Error != "" && s.State == "" {
		return
	}

	fmt.Fprintln(w, i18n.T("Comparing: %s vs %s", s.BaseLang, s.Language))

	if s.InSync {
		fmt.Fprintln(w, i18n.T("All resources are in sync for %s!", s.Language))
		s.writeStale(w)
		return
	}

	n := len(s.Missing)
	fmt.Fprintln(w, i18n.N("Found %d missing resource.", "Found %d missing resources.", n, n))
	if s.Written {
		fmt.Fprintln(w, i18n.T("Successfully created: %s", s.Output))
	} else {
		fmt.Fprintln(w, i18n.T("Not written (check mode): %s", s.Output))
	}
	fmt.Fprintln(w, Separator)
	for _, m := range s.Missing {
		fmt.Fprintf(w, " [+] %s\n", m.Key)
	}
	s.writeStale(w)
}

func (s *Summary) writeStale(w io.Writer) {
	if len(s.Stale) == 0 {
		return
	}
	fmt.Fprintln(w, i18n.T("Changed in base since last recorded:"))
	for _, k := range s.Stale {
		fmt.Fprintf(w, " [~] %s\n", k)
	}
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

// WriteJSON encodes summaries. A single summary is encoded as an object
// unless asList is set.
func WriteJSON(w io.Writer, summaries []*Summary, asList bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if len(summaries) == 1 && !asList {
		return enc.Encode(summaries[0])
	}
	if summaries == nil {
		summaries = []*Summary{}
	}
	return enc.Encode(summaries)
}
