// Package langmeta provides a shared language metadata registry
// (native and English names) used by the status table, the languages
// listing and language-code validation.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Code    string
	Name    string // native name
	English string
}

// Supported lists the languages the application ships resources for,
// in menu order.
var Supported = []Meta{
	{Code: "ko", Name: "한국어", English: "Korean"},
	{Code: "en", Name: "English", English: "English"},
	{Code: "ja", Name: "日本語", English: "Japanese"},
	{Code: "zh", Name: "简体中文", English: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "繁體中文", English: "Chinese (Traditional)"},
	{Code: "es", Name: "Español", English: "Spanish"},
	{Code: "de", Name: "Deutsch", English: "German"},
	{Code: "fr", Name: "Français", English: "French"},
	{Code: "pt", Name: "Português", English: "Portuguese"},
	{Code: "ru", Name: "Русский", English: "Russian"},
	{Code: "it", Name: "Italiano", English: "Italian"},
	{Code: "vi", Name: "Tiếng Việt", English: "Vietnamese"},
	{Code: "id", Name: "Bahasa Indonesia", English: "Indonesian"},
	{Code: "th", Name: "ไทย", English: "Thai"},
	{Code: "tr", Name: "Türkçe", English: "Turkish"},
	{Code: "ar", Name: "العربية", English: "Arabic"},
}

// Registry indexes Supported by code.
var Registry = func() map[string]Meta {
	m := make(map[string]Meta, len(Supported))
	for _, meta := range Supported {
		m[meta.Code] = meta
	}
	return m
}()

// Parse parses a language code such as "ja", "zh-TW" or "pt_BR".
func Parse(code string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// Valid reports whether code is a well-formed language tag.
func Valid(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	_, err := Parse(code)
	return err == nil
}

// IsSupported reports whether code is one of the Supported languages.
func IsSupported(code string) bool {
	_, ok := Registry[code]
	return ok
}

// Resolve returns best-effort metadata for a language code. Codes outside
// the registry get their names from the CLDR tables in x/text; unparseable
// codes echo the code back.
func Resolve(code string) Meta {
	if m, ok := Registry[code]; ok {
		return m
	}
	tag, err := Parse(code)
	if err != nil {
		return Meta{Code: code, Name: code, English: code}
	}
	if m, ok := Registry[tag.String()]; ok {
		return m
	}
	meta := Meta{Code: code, Name: display.Self.Name(tag), English: display.English.Tags().Name(tag)}
	if meta.Name == "" {
		meta.Name = code
	}
	if meta.English == "" {
		meta.English = code
	}
	return meta
}
