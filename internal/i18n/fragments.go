package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/tsunagu/pkg/utils"
)

// FragmentExtensions are the file types accepted as fragments. JSON is read with the
// YAML decoder, which accepts it as a subset.
var FragmentExtensions = []string{".yaml", ".yml", ".json"}

// LoadFragments reads a bundle file mapping language codes to fragments:
//
//	mr:
//	  common:
//	    navigation:
//	      home: "मुख्यपृष्ठ"
//	bn:
//	  common: { ... }
func LoadFragments(path string) (map[string]Dict, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragments: %w", err)
	}
	var bundle map[string]map[string]any
	if err := yaml.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse fragments %s: %w", path, err)
	}
	out := make(map[string]Dict, len(bundle))
	for lang, fragment := range bundle {
		if !utils.ValidLocale(lang) {
			return nil, fmt.Errorf("fragments %s: invalid language code %q", path, lang)
		}
		out[lang] = normalize(fragment).(Dict)
	}
	return out, nil
}

// LoadFragmentFile reads a single-language fragment whose file name is the language
// code, e.g. fragments/mr.yaml.
func LoadFragmentFile(path string) (string, Dict, error) {
	lang, ok := FragmentLanguage(path)
	if !ok {
		return "", nil, fmt.Errorf("fragment %s: file name is not a language code", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read fragment: %w", err)
	}
	var fragment map[string]any
	if err := yaml.Unmarshal(raw, &fragment); err != nil {
		return "", nil, fmt.Errorf("failed to parse fragment %s: %w", path, err)
	}
	return lang, normalize(fragment).(Dict), nil
}

// LoadFragmentDir reads every single-language fragment in dir.
func LoadFragmentDir(dir string) (map[string]Dict, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragments: %w", err)
	}
	out := make(map[string]Dict)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FragmentLanguage(e.Name()); !ok {
			continue
		}
		lang, fragment, err := LoadFragmentFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := out[lang]; dup {
			return nil, fmt.Errorf("fragments %s: more than one file for %q", dir, lang)
		}
		out[lang] = fragment
	}
	return out, nil
}

// FragmentLanguage returns the language code encoded in a fragment file name.
func FragmentLanguage(path string) (string, bool) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range FragmentExtensions {
		if ext == e {
			lang := strings.TrimSuffix(base, filepath.Ext(base))
			return lang, utils.ValidLocale(lang)
		}
	}
	return "", false
}
