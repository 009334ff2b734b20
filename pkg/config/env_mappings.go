package config

import (
	"reflect"
	"strings"
	"sync"
)

// EnvMapping binds an environment variable to a dotted config path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var (
	cachedMappings []EnvMapping
	mappingsOnce   sync.Once
)

// GenerateEnvMappings walks the Config struct tags once and caches the result.
func GenerateEnvMappings() []EnvMapping {
	mappingsOnce.Do(func() {
		cachedMappings = collectEnvMappings(reflect.TypeOf(Config{}), "")
	})
	return cachedMappings
}

func collectEnvMappings(t reflect.Type, prefix string) []EnvMapping {
	var out []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("koanf")
		if !field.IsExported() || key == "" || key == "-" {
			continue
		}
		path := joinPath(prefix, key)
		if envVar := field.Tag.Get("env"); envVar != "" && envVar != "-" {
			out = append(out, EnvMapping{EnvVar: envVar, ConfigPath: path})
		}
		if isNestedSection(field.Type) {
			out = append(out, collectEnvMappings(field.Type, path)...)
		}
	}
	return out
}

// GenerateEnvToConfigMap indexes mappings by variable name.
func GenerateEnvToConfigMap() map[string]string {
	mappings := GenerateEnvMappings()
	out := make(map[string]string, len(mappings))
	for _, m := range mappings {
		out[m.EnvVar] = m.ConfigPath
	}
	return out
}

// EnvVarFor returns the variable bound to path, or "".
func EnvVarFor(path string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == path {
			return m.EnvVar
		}
	}
	return ""
}

// IsSensitiveConfigPath reports whether path holds a secret.
func IsSensitiveConfigPath(path string) bool {
	t := reflect.TypeOf(Config{})
	parts := strings.Split(path, ".")
	for idx, part := range parts {
		field, ok := fieldByKoanf(t, part)
		if !ok {
			return false
		}
		if idx == len(parts)-1 {
			return field.Type == reflect.TypeOf(SensitiveString("")) || field.Tag.Get("sensitive") == "true"
		}
		if !isNestedSection(field.Type) {
			return false
		}
		t = field.Type
	}
	return false
}

func fieldByKoanf(t reflect.Type, key string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Tag.Get("koanf") == key {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func isNestedSection(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.PkgPath() != "time"
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
