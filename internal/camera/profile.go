package camera

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultProfile is the section used when no profile is named.
const DefaultProfile = "default"

var ErrNoProfiles = errors.New("camera: no profiles found")

var iniOptions = ini.LoadOptions{
	SkipUnrecognizableLines: true,
}

// ParseProfiles reads INI profile data. Each [section] is a profile that
// starts from DefaultConfig; unknown keys and malformed values are ignored
// and every profile is validated. Keys outside a section are ignored.
func ParseProfiles(src []byte) (map[string]Config, error) {
	f, err := ini.LoadSources(iniOptions, src)
	if err != nil {
		return nil, fmt.Errorf("parse camera profiles: %w", err)
	}
	out := make(map[string]Config)
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection || name == "" {
			continue
		}
		cfg := DefaultConfig()
		applyKeys(&cfg, sec)
		cfg.Validate()
		out[name] = cfg
	}
	if len(out) == 0 {
		return nil, ErrNoProfiles
	}
	return out, nil
}

// configFields maps ini key names to Config field indexes.
var configFields = func() map[string]int {
	t := reflect.TypeOf(Config{})
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("ini"); tag != "" {
			m[tag] = i
		}
	}
	return m
}()

// applyKeys copies the section's own keys onto cfg. Only keys written inside
// the section count, so nothing leaks in from the unnamed top section.
func applyKeys(cfg *Config, sec *ini.Section) {
	v := reflect.ValueOf(cfg).Elem()
	for _, key := range sec.Keys() {
		idx, ok := configFields[key.Name()]
		if !ok {
			continue
		}
		f := v.Field(idx)
		// 無法解析的值保留預設
		switch f.Kind() {
		case reflect.Float64:
			if x, err := key.Float64(); err == nil && finite(x) {
				f.SetFloat(x)
			}
		case reflect.Bool:
			if b, ok := parseBool(key.String()); ok {
				f.SetBool(b)
			}
		case reflect.Int:
			if n, err := key.Int(); err == nil {
				f.SetInt(int64(n))
			}
		}
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// ProfileCandidates lists where LoadProfiles looks for path. Relative paths
// are also tried one and two directories up.
func ProfileCandidates(path string) []string {
	c := []string{path}
	if path != "" && !filepath.IsAbs(path) && filepath.VolumeName(path) == "" {
		c = append(c, filepath.Join("..", path), filepath.Join("..", "..", path))
	}
	return c
}

// LoadProfiles returns the profiles from the first candidate file that holds
// at least one, plus the path it came from.
func LoadProfiles(path string) (map[string]Config, string, error) {
	var lastErr error = ErrNoProfiles
	for _, candidate := range ProfileCandidates(path) {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				lastErr = err
			}
			continue
		}
		profiles, err := ParseProfiles(data)
		if err != nil {
			lastErr = err
			continue
		}
		return profiles, candidate, nil
	}
	return nil, "", fmt.Errorf("load camera profiles %s: %w", path, lastErr)
}

// SelectProfile picks name, else DefaultProfile, else the first profile in
// lexical order. It returns the name actually used.
func SelectProfile(profiles map[string]Config, name string) (Config, string, bool) {
	if cfg, ok := profiles[name]; ok {
		return cfg, name, true
	}
	if cfg, ok := profiles[DefaultProfile]; ok {
		return cfg, DefaultProfile, true
	}
	names := ProfileNames(profiles)
	if len(names) == 0 {
		return Config{}, "", false
	}
	return profiles[names[0]], names[0], true
}

// LoadProfile loads path and selects name from it. On error the caller
// should keep its current config.
func LoadProfile(path, name string) (Config, string, error) {
	profiles, _, err := LoadProfiles(path)
	if err != nil {
		return Config{}, "", err
	}
	cfg, used, ok := SelectProfile(profiles, name)
	if !ok {
		return Config{}, "", ErrNoProfiles
	}
	return cfg, used, nil
}

func ProfileNames(profiles map[string]Config) []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseProfilesFile parses exactly path, without the candidate search.
func ParseProfilesFile(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProfiles(data)
}
