// Package i18n looks up localized message strings. Locales are YAML files
// embedded at build time; nested keys are addressed with dots
// ("support.prompt") and "{{name}}" placeholders are substituted.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Vars are placeholder values for T.
type Vars map[string]string

// Catalog maps locale -> flattened key -> template.
type Catalog struct {
	fallback string
	locales  map[string]map[string]string
}

// Load parses the embedded locales.
func Load(fallback string) (*Catalog, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, fallback)
}

// LoadFS parses every *.yaml file in fsys. The file name without extension
// is the locale. A malformed file is an error so that it fails at startup.
func LoadFS(fsys fs.FS, fallback string) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}

	c := &Catalog{fallback: fallback, locales: make(map[string]map[string]string, len(files))}
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("formatting issue detected in locale file %s: %w", name, err)
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		c.locales[strings.TrimSuffix(path.Base(name), ".yaml")] = flat
	}

	if _, ok := c.locales[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q not found", fallback)
	}
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// Fallback is the default locale.
func (c *Catalog) Fallback() string {
	return c.fallback
}

// Locales lists the loaded locales.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.locales))
	for name := range c.locales {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve returns locale if it is supported, otherwise the fallback.
func (c *Catalog) Resolve(locale string) string {
	if _, ok := c.locales[locale]; ok {
		return locale
	}
	return c.fallback
}

// T renders key in locale. Missing keys fall back to the default locale
// and then to the key itself.
func (c *Catalog) T(locale, key string, vars Vars) string {
	tmpl, ok := c.locales[c.Resolve(locale)][key]
	if !ok {
		tmpl, ok = c.locales[c.fallback][key]
	}
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return tmpl
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
