package annotation

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"sort"

	"boxlabel/pkg/geometry"

	ogórek "github.com/kisielk/og-rek"
)

// DefaultFileName is the results file written next to the images.
const DefaultFileName = "results.pkl"

// ErrNotFound is returned by Load when no results file exists yet.
var ErrNotFound = errors.New("annotation file not found")

// Store reads and writes a Map as a Python pickle of
// dict[str, list[list[int]]], each inner list being [x, y, w, h].
type Store struct {
	path string
}

// NewStore returns a Store for name inside dir.
func NewStore(dir, name string) *Store {
	if name == "" {
		name = DefaultFileName
	}
	return &Store{path: filepath.Join(dir, name)}
}

// Path returns the results file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the results file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the results file. Keys come back in lexical order since pickle
// dicts decode into an unordered map.
func (s *Store) Load() (*Map, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	obj, err := ogórek.NewDecoder(bufio.NewReader(f)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}

	m, err := fromPickle(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return m, nil
}

// Save overwrites the results file with m. The data goes to a temporary file
// in the same directory first and is renamed into place.
func (s *Store) Save(m *Map) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".results-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := ogórek.NewEncoder(w).Encode(toPickle(m)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode annotations: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

func toPickle(m *Map) map[interface{}]interface{} {
	out := make(map[interface{}]interface{}, m.Len())
	for _, key := range m.Keys() {
		rects := m.Get(key)
		list := make([]interface{}, len(rects))
		for i, r := range rects {
			list[i] = []interface{}{int64(r.X), int64(r.Y), int64(r.Width), int64(r.Height)}
		}
		out[key] = list
	}
	return out
}

func fromPickle(obj interface{}) (*Map, error) {
	dict, ok := obj.(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("expected dict at top level, got %T", obj)
	}

	keys := make([]string, 0, len(dict))
	values := make(map[string]interface{}, len(dict))
	for k, v := range dict {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("expected str key, got %T", k)
		}
		keys = append(keys, key)
		values[key] = v
	}
	sort.Strings(keys)

	m := NewMap()
	for _, key := range keys {
		boxes, err := sequence(values[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		rects := make([]geometry.RectInt, 0, len(boxes))
		for i, box := range boxes {
			r, err := rectFromPickle(box)
			if err != nil {
				return nil, fmt.Errorf("%s: box %d: %w", key, i, err)
			}
			rects = append(rects, r)
		}
		m.Set(key, rects)
	}
	return m, nil
}

func rectFromPickle(v interface{}) (geometry.RectInt, error) {
	items, err := sequence(v)
	if err != nil {
		return geometry.RectInt{}, err
	}
	if len(items) != 4 {
		return geometry.RectInt{}, fmt.Errorf("expected 4 values, got %d", len(items))
	}
	var xywh [4]int
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return geometry.RectInt{}, err
		}
		xywh[i] = n
	}
	return geometry.RectInt{X: xywh[0], Y: xywh[1], Width: xywh[2], Height: xywh[3]}, nil
}

func sequence(v interface{}) ([]interface{}, error) {
	switch s := v.(type) {
	case []interface{}:
		return s, nil
	case ogórek.Tuple:
		return []interface{}(s), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("expected list, got %T", v)
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, fmt.Errorf("integer out of range: %s", n)
		}
		return int(n.Int64()), nil
	case float64:
		return int(math.Round(n)), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
