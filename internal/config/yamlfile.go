package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend abstracts config storage. The default implementation is a YAML
// file with nested keys addressed by dotted paths (e.g. "engine.text_model").
type Backend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
}

// fileBackend stores config values in a YAML file. A missing file reads as
// empty; Set calls create it along with parent directories.
type fileBackend struct {
	path string
}

func newFileBackend(path string) *fileBackend {
	return &fileBackend{path: path}
}

func (b *fileBackend) load() (map[string]any, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	root := map[string]any{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", b.path, err)
	}
	return root, nil
}

func (b *fileBackend) save(root map[string]any) error {
	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(b.path, data, 0o600)
}

// lookup walks nested maps following the dotted key path.
func lookup(root map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	cur := any(root)
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign sets the dotted key path in nested maps, creating levels as needed.
func assign(root map[string]any, key string, val any) error {
	parts := strings.Split(key, ".")
	cur := root
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok {
			m := map[string]any{}
			cur[p] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %q conflicts with a non-section value", key)
		}
		cur = m
	}
	cur[parts[len(parts)-1]] = val
	return nil
}

func (b *fileBackend) GetString(key string) (string, bool, error) {
	root, err := b.load()
	if err != nil {
		return "", false, err
	}
	v, ok := lookup(root, key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("config key %q is not a string", key)
	}
	return s, true, nil
}

func (b *fileBackend) GetInt(key string) (int, bool, error) {
	root, err := b.load()
	if err != nil {
		return 0, false, err
	}
	v, ok := lookup(root, key)
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, false, fmt.Errorf("config key %q is not an integer", key)
	}
	return i, true, nil
}

func (b *fileBackend) SetString(key, val string) error {
	root, err := b.load()
	if err != nil {
		return err
	}
	if err := assign(root, key, val); err != nil {
		return err
	}
	return b.save(root)
}

func (b *fileBackend) SetInt(key string, val int) error {
	root, err := b.load()
	if err != nil {
		return err
	}
	if err := assign(root, key, val); err != nil {
		return err
	}
	return b.save(root)
}
