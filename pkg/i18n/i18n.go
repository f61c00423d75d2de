// Package i18n serves user-facing copy from flat translation tables.
//
// Translation files are nested JSON ({"auth": {"busy": "..."}}) flattened to
// dotted keys ("auth.busy"). Lookups fall back to the default language, then
// to the key itself.
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
)

// SupportedLanguages lists the languages with a translation file.
var SupportedLanguages = []string{"en", "es"}

const DefaultLanguage = "en"

var (
	translations map[string]map[string]string
	loadOnce     sync.Once
	loadErr      error
)

// Load reads <lang>.json for every supported language from localesFS.
// Only the first call does any work.
func Load(localesFS fs.FS) error {
	loadOnce.Do(func() {
		loaded := make(map[string]map[string]string)

		for _, lang := range SupportedLanguages {
			fileName := lang + ".json"

			data, err := fs.ReadFile(localesFS, fileName)
			if err != nil {
				loadErr = fmt.Errorf("failed to read translation file %s: %w", fileName, err)
				return
			}

			var nested map[string]any
			if err := json.Unmarshal(data, &nested); err != nil {
				loadErr = fmt.Errorf("failed to parse translation file %s: %w", fileName, err)
				return
			}

			flat := make(map[string]string)
			flattenMap("", nested, flat)
			loaded[lang] = flat

			slog.Debug("translations loaded", "component", "i18n", "lang", lang, "keys", len(flat))
		}

		translations = loaded
	})

	return loadErr
}

// Localizer translates keys for one language.
type Localizer struct {
	lang string
}

// NewLocalizer returns a localizer for lang, or the default language when
// lang is unsupported.
func NewLocalizer(lang string) *Localizer {
	if !isSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

// Lang returns the effective language.
func (l *Localizer) Lang() string {
	return l.lang
}

func (l *Localizer) T(key string) string {
	if msg, ok := translations[l.lang][key]; ok {
		return msg
	}
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams substitutes {{name}} placeholders after translating key.
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// DetectLanguage picks the first supported language from an Accept-Language
// style list ("es-MX,es;q=0.9,en;q=0.8").
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		lang := strings.TrimSpace(strings.Split(part, ";")[0])
		lang = strings.ToLower(strings.Split(lang, "-")[0])

		if isSupported(lang) {
			return lang
		}
	}
	return DefaultLanguage
}

func isSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}
