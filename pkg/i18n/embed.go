package i18n

import (
	"embed"
	"io/fs"
)

// EmbeddedLocales holds locales/*.json compiled into the binary.
//
//go:embed locales/*.json
var EmbeddedLocales embed.FS

// LoadEmbedded loads the compiled-in translations.
func LoadEmbedded() error {
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		return err
	}
	return Load(sub)
}
