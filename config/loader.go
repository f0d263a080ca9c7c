package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/restproxy/logger"
)

// ConfigFileEnv names the environment variable holding an explicit config
// file path. It is consulted when no WithConfigFile option is given.
const ConfigFileEnv = "RESTPROXY_CONFIG"

// Host abstracts the process environment the loader reads (useful for
// testing).
type Host interface {
	Exists(path string) bool
	LoadEnv(path string) error
	Environ() []string
	Getenv(key string) string
}

// OSHost implements Host with the real file system and environment.
type OSHost struct{}

// Exists reports whether path can be stat'ed.
func (OSHost) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (OSHost) LoadEnv(path string) error { return godotenv.Load(path) }

// Environ returns the process environment.
func (OSHost) Environ() []string { return os.Environ() }

// Getenv returns one environment variable.
func (OSHost) Getenv(key string) string { return os.Getenv(key) }

// Resolver finds the config and env files of a service.
type Resolver struct {
	Host Host
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when given. Otherwise the config file
// comes from RESTPROXY_CONFIG or the first of <service>.yml, <service>.yaml
// and config.yml found in the working directory or ./config; the env file
// is .env.<service> or .env in the same places.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = r.Host.Getenv(ConfigFileEnv)
	}
	if files.ConfigFile == "" {
		files.ConfigFile = r.first(searchPaths(serviceName+".yml", serviceName+".yaml", "config.yml", "config.yaml"))
	}
	if files.EnvFile == "" {
		files.EnvFile = r.first(searchPaths(".env."+serviceName, ".env"))
	}
	return files
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.Host.Exists(p) {
			return p
		}
	}
	return ""
}

func searchPaths(names ...string) []string {
	var paths []string
	for _, name := range names {
		paths = append(paths, name, filepath.Join("config", name))
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	Host       Host
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	EnvPrefix  string // Only variables starting with PREFIX_ are bound (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithHost sets the host the loader reads files and variables from.
func WithHost(h Host) LoaderOption {
	return func(lc *LoaderConfig) { lc.Host = h }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts environment overrides to PREFIX_ variables, e.g.
// ORDERS_CLIENTS_BILLING_URL for prefix "orders".
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

// LoadConfig loads configuration for a service into cfg, a pointer to a
// struct. The YAML file is read first, then the .env file is loaded, then
// environment variables naming a key of cfg override it.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{Host: OSHost{}}
	for _, opt := range opts {
		opt(&lc)
	}
	rt := reflect.TypeOf(cfg)
	if rt == nil || rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: LoadConfig needs a pointer to a struct, got %T", cfg)
	}

	files := (&Resolver{Host: lc.Host}).ResolveFiles(serviceName, lc)
	v := viper.New()
	if files.ConfigFile != "" && lc.Host.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("config file not loaded", logger.MergeWithError(logger.Fields("file", files.ConfigFile), err))
		}
	}
	if files.EnvFile != "" && lc.Host.Exists(files.EnvFile) {
		if err := lc.Host.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("env file not loaded", logger.MergeWithError(logger.Fields("file", files.EnvFile), err))
		}
	}
	bindEnv(v, schemaOf(rt.Elem(), ""), lc.EnvPrefix, lc.Host.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// schema lists the keys a config struct accepts. Keys are dotted
// mapstructure paths; maps holds the string-keyed maps of structs, such as
// clients, whose entries take the keys of their own schema.
type schema struct {
	leaves []string
	maps   map[string]*schema
}

func schemaOf(t reflect.Type, prefix string) *schema {
	s := &schema{maps: map[string]*schema{}}
	s.collect(t, prefix)
	return s
}

func (s *schema) collect(t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(opts, "squash") && ft.Kind() == reflect.Struct {
			s.collect(ft, prefix)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		switch ft.Kind() {
		case reflect.Struct:
			s.collect(ft, key)
		case reflect.Map:
			if ft.Key().Kind() == reflect.String && ft.Elem().Kind() == reflect.Struct {
				s.maps[key] = schemaOf(ft.Elem(), "")
			}
		case reflect.Func, reflect.Chan, reflect.Interface:
		default:
			s.leaves = append(s.leaves, key)
		}
	}
}

// envName spells a key the way an environment variable names it.
func envName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// bindEnv sets every variable of environ that names a key of s. Entries of
// a map such as clients are addressed as CLIENTS_<NAME>_<KEY>; NAME matches
// an entry already present in v, hyphens written as underscores, or else
// creates one in lower case.
func bindEnv(v *viper.Viper, s *schema, prefix string, environ []string) {
	leaves := map[string]string{}
	for _, key := range s.leaves {
		leaves[envName(key)] = key
	}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			if !strings.HasPrefix(name, prefix+"_") {
				continue
			}
			name = name[len(prefix)+1:]
		}
		if key, ok := leaves[name]; ok {
			v.Set(key, value)
			continue
		}
		if key, ok := s.entryKey(v, name); ok {
			v.Set(key, value)
		}
	}
}

func (s *schema) entryKey(v *viper.Viper, name string) (string, bool) {
	for mapKey, child := range s.maps {
		rest, ok := strings.CutPrefix(name, envName(mapKey)+"_")
		if !ok {
			continue
		}
		keys := append([]string(nil), child.leaves...)
		sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
		for _, leaf := range keys {
			entry, ok := strings.CutSuffix(rest, "_"+envName(leaf))
			if !ok || entry == "" {
				continue
			}
			return mapKey + "." + entryName(v, mapKey, entry) + "." + leaf, true
		}
	}
	return "", false
}

func entryName(v *viper.Viper, mapKey, env string) string {
	for existing := range v.GetStringMap(mapKey) {
		if envName(existing) == env {
			return existing
		}
	}
	return strings.ToLower(env)
}
