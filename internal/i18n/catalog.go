// Package i18n serves the UI strings for every supported language and
// remembers which language the user picked.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/authdeck/authdeck/internal/credstore"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// DefaultLanguage is used when nothing valid has been saved
const DefaultLanguage = "en"

// Language describes a selectable UI language
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

var supported = []Language{
	{Code: "en", Name: "English", Flag: "🇺🇸"},
	{Code: "vi", Name: "Tiếng Việt", Flag: "🇻🇳"},
	{Code: "ja", Name: "日本語", Flag: "🇯🇵"},
	{Code: "fr", Name: "Français", Flag: "🇫🇷"},
}

// SupportedCodes returns the language codes in display order
func SupportedCodes() []string {
	codes := make([]string, len(supported))
	for i, lang := range supported {
		codes[i] = lang.Code
	}
	return codes
}

// Catalog translates keys into the current language
type Catalog struct {
	store  credstore.Store
	logger zerolog.Logger

	bundles map[string]map[string]string

	mu       sync.RWMutex
	current  Language
	messages map[string]string
}

// New loads the embedded bundles and restores the saved language choice
func New(store credstore.Store, logger zerolog.Logger) (*Catalog, error) {
	bundles, err := loadBundles()
	if err != nil {
		return nil, err
	}
	return newCatalog(store, logger, bundles), nil
}

func newCatalog(store credstore.Store, logger zerolog.Logger, bundles map[string]map[string]string) *Catalog {
	c := &Catalog{
		store:   store,
		logger:  logger,
		bundles: bundles,
	}

	saved, err := store.Get(credstore.KeySelectedLanguage)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		logger.Warn().Err(err).Msg("Failed to read saved language")
	}

	lang, ok := c.lookup(saved)
	if !ok {
		lang, _ = c.lookup(DefaultLanguage)
	}
	c.current = lang
	c.messages = bundles[lang.Code]
	return c
}

func loadBundles() (map[string]map[string]string, error) {
	bundles := make(map[string]map[string]string, len(supported))
	for _, lang := range supported {
		data, err := localeFS.ReadFile("locales/" + lang.Code + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s translations: %w", lang.Code, err)
		}

		messages := make(map[string]string)
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("failed to parse %s translations: %w", lang.Code, err)
		}
		bundles[lang.Code] = messages
	}
	return bundles, nil
}

// lookup finds a supported language that has a loaded bundle
func (c *Catalog) lookup(code string) (Language, bool) {
	for _, lang := range supported {
		if lang.Code == code {
			_, loaded := c.bundles[code]
			return lang, loaded
		}
	}
	return Language{}, false
}

// Translate returns the template for key in the current language with each
// {{name}} placeholder replaced by params[name]. Unknown keys come back
// unchanged and unknown placeholders stay in the text.
func (c *Catalog) Translate(key string, params map[string]string) string {
	c.mu.RLock()
	template, ok := c.messages[key]
	c.mu.RUnlock()

	if !ok {
		template = key
	}
	if len(params) == 0 {
		return template
	}

	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// T is Translate with params given as alternating name, value pairs
func (c *Catalog) T(key string, kv ...string) string {
	if len(kv) == 0 {
		return c.Translate(key, nil)
	}
	params := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return c.Translate(key, params)
}

// ChangeLanguage switches to code and saves the choice. It reports false and
// changes nothing when code is unsupported.
func (c *Catalog) ChangeLanguage(code string) bool {
	lang, ok := c.lookup(code)
	if !ok {
		c.logger.Debug().Str("language", code).Msg("Ignoring unsupported language")
		return false
	}

	c.mu.Lock()
	c.current = lang
	c.messages = c.bundles[code]
	c.mu.Unlock()

	if err := c.store.Set(credstore.KeySelectedLanguage, code); err != nil {
		c.logger.Warn().Err(err).Str("language", code).Msg("Failed to save language preference")
	}
	return true
}

// CurrentLanguage returns the active language
func (c *Catalog) CurrentLanguage() Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// IsCurrentLanguage reports whether code is the active language
func (c *Catalog) IsCurrentLanguage(code string) bool {
	return c.CurrentLanguage().Code == code
}

// Languages returns the supported languages in display order
func (c *Catalog) Languages() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}
