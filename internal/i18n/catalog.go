package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed messages/*.json
var messageFiles embed.FS

// Catalog holds flattened message tables keyed by "section.key"
type Catalog struct {
	messages map[string]map[string]string
	fallback string
}

// LoadCatalog loads the embedded messages of every configured locale
func LoadCatalog(cfg Config) (*Catalog, error) {
	c := &Catalog{messages: make(map[string]map[string]string), fallback: cfg.Default}
	for _, locale := range cfg.Locales {
		data, err := messageFiles.ReadFile("messages/" + locale + ".json")
		if err != nil {
			return nil, fmt.Errorf("no messages for locale %s: %w", locale, err)
		}
		var tree map[string]interface{}
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse messages for locale %s: %w", locale, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[locale] = flat
	}
	return c, nil
}

func flatten(prefix string, tree map[string]interface{}, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]interface{}:
			flatten(key, val, out)
		}
	}
}

// T translates key for locale, falling back to the default locale and then
// to the key itself. Args are applied with fmt.Sprintf.
func (c *Catalog) T(locale, key string, args ...interface{}) string {
	msg, ok := c.messages[locale][key]
	if !ok {
		msg, ok = c.messages[c.fallback][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Translator returns T bound to a locale, for templates
func (c *Catalog) Translator(locale string) func(key string, args ...interface{}) string {
	return func(key string, args ...interface{}) string {
		return c.T(locale, key, args...)
	}
}
