// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.yaml"
	ConfigDirName  = "replisync"
	EnvPrefix      = "REPLISYNC"
	DotEnvFile     = ".env"
)

type AlgoliaConfig struct {
	ApplicationID     string        `mapstructure:"application_id"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	// Overrides the default Algolia hosts, mainly for proxies and tests
	Hosts []string `mapstructure:"hosts" validate:"omitempty,dive,url"`
}

type CatalogConfig struct {
	// Local path, gs://bucket/object or s3://bucket/key
	Location string `mapstructure:"location" validate:"required"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

type ReplicasConfig struct {
	MaxVirtual int `mapstructure:"max_virtual" validate:"min=1,max=50"`
}

type Config struct {
	Algolia  AlgoliaConfig  `mapstructure:"algolia"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Replicas ReplicasConfig `mapstructure:"replicas"`
}

// Keys accepted by 'config set'; every key has a default so env overrides are always visible to Unmarshal
var defaults = map[string]interface{}{
	"algolia.application_id":      "",
	"algolia.api_key":             "",
	"algolia.timeout":             "30s",
	"algolia.max_retries":         3,
	"algolia.requests_per_second": 10.0,
	"algolia.hosts":               []string{},
	"catalog.location":            "stores.yaml",
	"catalog.region":              "",
	"catalog.endpoint":            "",
	"replicas.max_virtual":        20,
}

var secretKeys = map[string]bool{
	"algolia.api_key": true,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigManager layers the config file, REPLISYNC_* environment variables and defaults.
// Writes only ever touch the file layer.
type ConfigManager struct {
	path string
	file *viper.Viper
	v    *viper.Viper
}

// Creates a manager for the config file at path, or the default location when path is empty
func NewConfigManager(path string) (*ConfigManager, error) {
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// A missing .env is the common case
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading %s: %w", DotEnvFile, err)
	}

	cm := &ConfigManager{path: path}
	if err := cm.reload(); err != nil {
		return nil, err
	}
	return cm, nil
}

func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", ConfigDirName, ConfigFileName), nil
}

func (cm *ConfigManager) reload() error {
	file := viper.New()
	file.SetConfigFile(cm.path)
	if err := file.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("error reading config file: %w", err)
	}

	v, err := layered(file)
	if err != nil {
		return err
	}

	cm.file = file
	cm.v = v
	return nil
}

// Builds the effective view: REPLISYNC_* environment variables over file settings over defaults
func layered(file *viper.Viper) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.MergeConfigMap(file.AllSettings()); err != nil {
		return nil, fmt.Errorf("error merging config file: %w", err)
	}
	return v, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Path returns the config file this manager reads and writes
func (cm *ConfigManager) Path() string {
	return cm.path
}

// Decodes and validates the effective configuration
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := cm.v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validates everything except the Algolia credentials, which only some commands need
func (c *Config) Validate() error {
	if err := validate.StructExcept(c, "Algolia.ApplicationID", "Algolia.APIKey"); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Checks that the Algolia credentials are present
func (c *Config) ValidateAlgolia() error {
	if c.Algolia.ApplicationID == "" {
		return fmt.Errorf("Algolia application ID not configured. Use 'replisync config set algolia.application_id <id>' or set %s_ALGOLIA_APPLICATION_ID", EnvPrefix)
	}
	if c.Algolia.APIKey == "" {
		return fmt.Errorf("Algolia API key not configured. Use 'replisync config set algolia.api_key <key>' or set %s_ALGOLIA_API_KEY", EnvPrefix)
	}
	return nil
}

// IsKnownKey reports whether key can be managed through 'config set'
func IsKnownKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// KnownKeys returns the sorted list of settable keys
func KnownKeys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sets key in the config file. The change is rejected if the resulting configuration is invalid.
func (cm *ConfigManager) SetValue(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key: %s. Known keys: %s", key, strings.Join(KnownKeys(), ", "))
	}

	settings := cm.file.AllSettings()
	setNested(settings, key, value)
	return cm.save(settings)
}

// Returns the effective value for key, with secrets masked
func (cm *ConfigManager) GetValue(key string) (interface{}, bool) {
	if !IsKnownKey(key) {
		return nil, false
	}
	value := cm.v.Get(key)
	if secretKeys[key] {
		if s, ok := value.(string); ok && s != "" {
			return maskSecret(s), true
		}
	}
	return value, true
}

// Removes key from the config file; reports false when it was not set there
func (cm *ConfigManager) DeleteValue(key string) (bool, error) {
	if !IsKnownKey(key) {
		return false, fmt.Errorf("unknown config key: %s", key)
	}
	if !cm.file.IsSet(key) {
		return false, nil
	}

	settings := cm.file.AllSettings()
	deleteNested(settings, key)
	if err := cm.save(settings); err != nil {
		return false, err
	}
	return true, nil
}

// Returns the effective settings as a nested map, with secrets masked
func (cm *ConfigManager) GetAllSettings() map[string]interface{} {
	settings := cm.v.AllSettings()
	for key := range secretKeys {
		if s, ok := cm.v.Get(key).(string); ok && s != "" {
			setNested(settings, key, maskSecret(s))
		}
	}
	return settings
}

func (cm *ConfigManager) save(settings map[string]interface{}) error {
	next := viper.New()
	if err := next.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	v, err := layered(next)
	if err != nil {
		return err
	}
	candidate := &ConfigManager{path: cm.path, file: next, v: v}
	if _, err := candidate.LoadConfig(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cm.path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := next.WriteConfigAs(cm.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	cm.file = next
	cm.v = v
	return nil
}

func setNested(m map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

func deleteNested(m map[string]interface{}, key string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			return
		}
		m = next
	}
	delete(m, parts[len(parts)-1])
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
