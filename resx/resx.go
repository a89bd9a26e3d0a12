// Package resx locates resource entries inside .NET .resx files.
//
// A .resx file is XML, but entries are located textually:
//
//   - keys are every name="…" attribute value, in document order
//   - an entry block starts at the (space-indented) line holding
//     <data name="KEY" and ends at the first following " </data>"
//
// The textual approach tolerates files the XML decoder would reject and keeps
// extracted blocks byte-for-byte identical to the source. Parse offers a
// structured view for callers that want entry values.
package resx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidEncoding is returned when a file is neither valid UTF-8 nor
// UTF-16 with a byte order mark.
var ErrInvalidEncoding = errors.New("invalid text encoding")

var reName = regexp.MustCompile(`name="([^"]+)"`)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// ReadFile reads a resource file fully and returns its text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return s, nil
}

// Decode converts raw file bytes to text. A UTF-8 byte order mark is dropped,
// UTF-16 input with a byte order mark is transcoded, anything else must be
// valid UTF-8. Line endings are normalized to "\n".
func Decode(data []byte) (string, error) {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		return normalizeNewlines(string(out)), nil
	}
	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return normalizeNewlines(string(data)), nil
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return newlines.Replace(s)
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

// Keys returns every name="…" value in content, in order of appearance.
// Duplicates are kept.
func Keys(content string) []string {
	matches := reName.FindAllStringSubmatch(content, -1)
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, m[1])
	}
	return keys
}

// KeySet returns the set of name="…" values in content.
func KeySet(content string) map[string]struct{} {
	matches := reName.FindAllStringSubmatch(content, -1)
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m[1]] = struct{}{}
	}
	return set
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

// Block is the result of looking up one key's entry block.
// Found is false when no <data> element for Key exists; Text is empty then.
type Block struct {
	Key   string
	Text  string
	Found bool
}

// blockPattern matches from the indentation before <data name="KEY" up to the
// nearest " </data>".
func blockPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)([ ]*<data name="` + regexp.QuoteMeta(key) + `".*? </data>)`)
}

// FindBlock returns the first entry block for key in content.
func FindBlock(content, key string) (string, bool) {
	m := blockPattern(key).FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Extract looks up the block of every key, in order. A key occurring twice
// yields the same (first) block twice.
func Extract(content string, keys []string) []Block {
	cache := make(map[string]Block, len(keys))
	blocks := make([]Block, 0, len(keys))
	for _, key := range keys {
		b, ok := cache[key]
		if !ok {
			text, found := FindBlock(content, key)
			b = Block{Key: key, Text: text, Found: found}
			cache[key] = b
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// Found returns the texts of blocks that were located, in order.
func Found(blocks []Block) []string {
	var texts []string
	for _, b := range blocks {
		if b.Found {
			texts = append(texts, b.Text)
		}
	}
	return texts
}

// NotFound returns the keys of blocks that could not be located, in order.
func NotFound(blocks []Block) []string {
	var keys []string
	for _, b := range blocks {
		if !b.Found {
			keys = append(keys, b.Key)
		}
	}
	return keys
}

// ---------------------------------------------------------------------------
// Structured view
// ---------------------------------------------------------------------------

// Entry is a <data> element decoded with encoding/xml.
type Entry struct {
	Name    string `xml:"name,attr"`
	Value   string `xml:"value"`
	Comment string `xml:"comment"`
}

// Parse decodes all <data> elements of a resx document. The first element
// wins when a name repeats, matching FindBlock.
func Parse(content string) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	dec := xml.NewDecoder(strings.NewReader(content))
	// content is already UTF-8 whatever the declaration says
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing resx: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "data" {
			continue
		}
		var e Entry
		if err := dec.DecodeElement(&e, &start); err != nil {
			return nil, fmt.Errorf("parsing <data>: %w", err)
		}
		if _, dup := entries[e.Name]; !dup && e.Name != "" {
			entries[e.Name] = e
		}
	}
	return entries, nil
}
