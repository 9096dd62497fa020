package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

const DefaultLang = "en"

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator reads locales/<lang>.yaml from fsys.
func NewTranslator(fsys fs.FS, lang string) (*Translator, error) {
	data, err := fs.ReadFile(fsys, path.Join("locales", lang+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("read translation file for %q: %w", lang, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = lang
	return t, nil
}

// Load returns the embedded translator for lang.
func Load(lang string) (*Translator, error) {
	if lang == "" {
		lang = DefaultLang
	}
	return NewTranslator(LocalesFS, lang)
}

// Default is the embedded English translator.
func Default() *Translator {
	t, err := Load(DefaultLang)
	if err != nil {
		panic(err)
	}
	return t
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

func (t *Translator) Lang() string { return t.lang }

// T returns the message for key, formatted with args. Unknown keys come back as is.
func (t *Translator) T(key string, args ...any) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Count picks key.one for n == 1 and key.other otherwise.
func (t *Translator) Count(key string, n int) string {
	if n == 1 {
		if _, ok := t.translations[key+".one"]; ok {
			return t.T(key + ".one")
		}
	}
	return t.T(key+".other", n)
}
