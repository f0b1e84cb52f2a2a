// Package i18n completes per-locale translation dictionaries by merging translation
// fragments into the JSON files consumed by the site.
package i18n

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/pkg/utils"
)

// Dict is a nested translation dictionary: values are strings or nested Dicts.
type Dict = map[string]any

// ErrMergeWrite is matched when a merged dictionary could not be persisted.
var ErrMergeWrite = errors.New("merge write failure")

// MergeError reports the locale whose merge failed.
type MergeError struct {
	Locale string
	Err    error
}

func (e *MergeError) Error() string { return fmt.Sprintf("locale %s: %v", e.Locale, e.Err) }

func (e *MergeError) Unwrap() error { return e.Err }

// Merge overwrites every top-level key of existing with the value from fragment.
// It is deliberately shallow: a fragment carrying "common" replaces the whole
// "common" subtree. Keys absent from fragment are kept. Neither input is modified.
func Merge(existing, fragment Dict) Dict {
	out := make(Dict, len(existing)+len(fragment))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range fragment {
		out[k] = v
	}
	return out
}

// Merger reads, merges and writes locale files named <lang>.json under a directory.
// Merges of the same language are serialized; different languages own different
// files and proceed independently.
type Merger struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMerger returns a merger for the locale files in dir.
func NewMerger(dir string, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{dir: dir, logger: logger, locks: make(map[string]*sync.Mutex)}
}

// Path returns the file path of a locale.
func (m *Merger) Path(lang string) string {
	return filepath.Join(m.dir, lang+".json")
}

func (m *Merger) lock(lang string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[lang]
	if !ok {
		l = &sync.Mutex{}
		m.locks[lang] = l
	}
	return l
}

// Read returns the current dictionary of lang. A missing file (including one under a
// path that is not a directory) or one that does not parse as a JSON object is
// treated as empty; the latter is logged.
func (m *Merger) Read(lang string) (Dict, error) {
	if !utils.ValidLocale(lang) {
		return nil, &MergeError{Locale: lang, Err: fmt.Errorf("invalid language code %q", lang)}
	}
	path := m.Path(lang)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return Dict{}, nil
	}
	if err != nil {
		return nil, &MergeError{Locale: lang, Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	var dict Dict
	if err := json.Unmarshal(raw, &dict); err != nil || dict == nil {
		m.logger.Warn("locale file is not a JSON object, starting from empty",
			zap.String("locale", lang), zap.String("path", path), zap.Error(err))
		return Dict{}, nil
	}
	return dict, nil
}

// MergeLocale merges fragment into the dictionary of lang and writes it back.
// The file is replaced atomically, so a failed write leaves the old file intact.
// Applying the same fragment twice yields the same file.
func (m *Merger) MergeLocale(lang string, fragment Dict) error {
	if !utils.ValidLocale(lang) {
		return &MergeError{Locale: lang, Err: fmt.Errorf("invalid language code %q", lang)}
	}
	l := m.lock(lang)
	l.Lock()
	defer l.Unlock()

	existing, err := m.Read(lang)
	if err != nil {
		return err
	}
	merged := Merge(existing, normalize(fragment).(Dict))
	data, err := Encode(merged)
	if err != nil {
		return &MergeError{Locale: lang, Err: err}
	}
	if err := writeAtomic(m.Path(lang), data); err != nil {
		return &MergeError{Locale: lang, Err: fmt.Errorf("%w: %w", ErrMergeWrite, err)}
	}
	m.logger.Info("locale merged",
		zap.String("locale", lang),
		zap.Int("fragment_keys", len(fragment)),
		zap.Int("total_keys", len(merged)),
	)
	return nil
}

// MergeAll merges each language's fragment concurrently. A failing language does not
// stop the others; the returned error combines one *MergeError per failed language,
// in language order (see multierr.Errors).
func (m *Merger) MergeAll(fragments map[string]Dict) error {
	langs := make([]string, 0, len(fragments))
	for lang := range fragments {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	errs := make([]error, len(langs))
	var wg sync.WaitGroup
	for i, lang := range langs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = m.MergeLocale(lang, fragments[lang])
		}()
	}
	wg.Wait()

	var combined error
	for i, err := range errs {
		if err != nil {
			m.logger.Error("locale merge failed", zap.String("locale", langs[i]), zap.Error(err))
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}

// Encode renders d as 2-space indented JSON with sorted keys and a trailing newline.
// Non-ASCII text is written as-is.
func Encode(d Dict) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode dictionary: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// normalize converts YAML-decoded maps with non-string keys into Dicts.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return Dict{}
	case map[string]any:
		out := make(Dict, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case map[any]any:
		out := make(Dict, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	}
	return v
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return normalize(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}
