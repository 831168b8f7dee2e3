package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

const embeddedFile = "messages.en.yaml"

//go:embed messages.en.yaml
var embedded embed.FS

// Catalog holds console line templates keyed by dotted path ("move.played").
// Templates are parsed once at load time and executed with missingkey=error.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New loads the embedded English lines, then every *.yaml / *.yml file in
// overrideDir (if set). A key may be overridden by at most one file.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*template.Template)}
	if err := c.load(embedded, []string{embeddedFile}, false); err != nil {
		return nil, fmt.Errorf("embedded messages: %w", err)
	}

	dir := strings.TrimSpace(overrideDir)
	if dir == "" {
		return c, nil
	}
	fsys := os.DirFS(dir)
	names, err := yamlFiles(fsys)
	if err != nil {
		return nil, fmt.Errorf("read override dir %s: %w", dir, err)
	}
	if err := c.load(fsys, names, true); err != nil {
		return nil, fmt.Errorf("override dir %s: %w", dir, err)
	}
	return c, nil
}

func yamlFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// load parses files in order. With unique set, a key defined by two of these
// files is an error.
func (c *Catalog) load(fsys fs.FS, names []string, unique bool) error {
	owner := make(map[string]string)
	parsed := make(map[string]*template.Template)
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		lines := make(map[string]string)
		if err := flatten("", tree, lines); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for key, text := range lines {
			if prev, ok := owner[key]; ok && unique {
				return fmt.Errorf("key %q defined in both %s and %s", key, prev, name)
			}
			owner[key] = name
			tpl, err := template.New(key).Option("missingkey=error").Parse(text)
			if err != nil {
				return fmt.Errorf("%s: key %q: %w", name, key, err)
			}
			parsed[key] = tpl
		}
	}

	c.mu.Lock()
	for k, t := range parsed {
		c.templates[k] = t
	}
	c.mu.Unlock()
	return nil
}

func flatten(prefix string, node any, out map[string]string) error {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(key, child, out); err != nil {
				return err
			}
		}
	case string:
		if prefix == "" {
			return errors.New("bare string at document root")
		}
		if strings.TrimSpace(v) != "" {
			out[prefix] = v
		}
	case nil:
	default:
		return fmt.Errorf("key %q: want string, got %T", prefix, v)
	}
	return nil
}

// Keys lists every known key in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.templates))
	for k := range c.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render executes the template for key.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	c.mu.RLock()
	tpl, ok := c.templates[key]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown message key %q", key)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Text is Render that falls back to the key itself, so a log line is never lost.
func (c *Catalog) Text(key string, data any) string {
	if c == nil {
		return key
	}
	s, err := c.Render(key, data)
	if err != nil {
		return key
	}
	return s
}
