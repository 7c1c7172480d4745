// Package settings holds the persisted admin preferences: profile,
// notification toggles, security options and system behavior such as the
// refresh interval and theme. The document lives in a YAML file and is
// merged with defaults on every load, so older files stay usable as fields
// are added.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Version is written into new config files. A future migration can key off
// it if a field ever changes meaning rather than just being added.
const Version = 1

type Profile struct {
	DisplayName string `mapstructure:"display_name"`
	Phone       string `mapstructure:"phone"`
	Email       string `mapstructure:"email"`
	Timezone    string `mapstructure:"timezone"`
	Language    string `mapstructure:"language"`
}

type Notifications struct {
	EmailNotifications bool `mapstructure:"email_notifications"`
	SMSNotifications   bool `mapstructure:"sms_notifications"`
	PushNotifications  bool `mapstructure:"push_notifications"`
	ApplicationUpdates bool `mapstructure:"application_updates"`
	SystemAlerts       bool `mapstructure:"system_alerts"`
	WeeklyReports      bool `mapstructure:"weekly_reports"`
}

type Security struct {
	TwoFactorAuth  bool `mapstructure:"two_factor_auth"`
	SessionTimeout int  `mapstructure:"session_timeout"` // minutes
	LoginAlerts    bool `mapstructure:"login_alerts"`
	DeviceTracking bool `mapstructure:"device_tracking"`
}

type System struct {
	Theme                 string `mapstructure:"theme"`
	ItemsPerPage          int    `mapstructure:"items_per_page"`
	DateFormat            string `mapstructure:"date_format"`
	AutoRefresh           bool   `mapstructure:"auto_refresh"`
	RefreshInterval       int    `mapstructure:"refresh_interval"` // seconds
	AutoRefreshOnUpdates  bool   `mapstructure:"auto_refresh_on_updates"`
	RealTimeNotifications bool   `mapstructure:"real_time_notifications"`
}

// Settings is the whole persisted document.
type Settings struct {
	Version       int           `mapstructure:"version"`
	Profile       Profile       `mapstructure:"profile"`
	Notifications Notifications `mapstructure:"notifications"`
	Security      Security      `mapstructure:"security"`
	System        System        `mapstructure:"system"`
}

// FieldError is a validation failure for a single settings field. Invalid
// values are rejected and never persisted.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// Store owns the settings document. Every valid mutation is written to disk
// synchronously and pushed to registered subscribers, so dependents (poller
// cadence, theme) react to an explicit callback rather than watching shared
// state.
type Store struct {
	mu      sync.Mutex
	v       *viper.Viper
	path    string
	current Settings
	subs    []func(Settings)
	log     zerolog.Logger
}

// DefaultPath returns ~/.stratadmin/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".stratadmin", "config.yaml"), nil
}

// Load reads the settings file at path, merging it over defaults. A missing
// file is not an error; a corrupt one is.
func Load(path string, log zerolog.Logger) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("settings.Load: %w", err)
			}
		}
	}

	var cfg Settings
	if err := v.Unmarshal(&cfg, decodeStrict); err != nil {
		return nil, fmt.Errorf("settings.Load: decode: %w", err)
	}

	return &Store{v: v, path: path, current: cfg, log: log}, nil
}

// decodeStrict keeps unknown keys from silently shadowing known ones while
// still tolerating their presence in old files.
func decodeStrict(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = true
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", Version)

	v.SetDefault("profile.display_name", "Admin User")
	v.SetDefault("profile.phone", "")
	v.SetDefault("profile.email", "")
	v.SetDefault("profile.timezone", "Africa/Kampala")
	v.SetDefault("profile.language", "en")

	v.SetDefault("notifications.email_notifications", true)
	v.SetDefault("notifications.sms_notifications", true)
	v.SetDefault("notifications.push_notifications", true)
	v.SetDefault("notifications.application_updates", true)
	v.SetDefault("notifications.system_alerts", true)
	v.SetDefault("notifications.weekly_reports", false)

	v.SetDefault("security.two_factor_auth", true)
	v.SetDefault("security.session_timeout", 120)
	v.SetDefault("security.login_alerts", true)
	v.SetDefault("security.device_tracking", true)

	v.SetDefault("system.theme", "dark")
	v.SetDefault("system.items_per_page", 10)
	v.SetDefault("system.date_format", "DD/MM/YYYY")
	v.SetDefault("system.auto_refresh", true)
	v.SetDefault("system.refresh_interval", 30)
	v.SetDefault("system.auto_refresh_on_updates", true)
	v.SetDefault("system.real_time_notifications", true)
}

// Current returns a copy of the settings document.
func (s *Store) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers a callback invoked after every persisted change. The
// callback receives a copy and runs on the mutating goroutine.
func (s *Store) Subscribe(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Set validates and applies one field, identified by its dotted config key
// (e.g. "system.refresh_interval"). A valid change is persisted immediately
// and broadcast to subscribers; an invalid one returns a FieldError and
// leaves both memory and disk untouched.
func (s *Store) Set(key string, value any) error {
	if err := validate(key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	var cfg Settings
	if err := s.v.Unmarshal(&cfg, decodeStrict); err != nil {
		return fmt.Errorf("settings.Set: decode: %w", err)
	}
	if err := s.write(); err != nil {
		return err
	}
	s.current = cfg

	for _, fn := range s.subs {
		fn(cfg)
	}
	return nil
}

// Reset restores every field to its default and persists the result.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := viper.New()
	fresh.SetConfigFile(s.path)
	fresh.SetConfigType("yaml")
	setDefaults(fresh)
	s.v = fresh

	var cfg Settings
	if err := s.v.Unmarshal(&cfg, decodeStrict); err != nil {
		return fmt.Errorf("settings.Reset: decode: %w", err)
	}
	if err := s.write(); err != nil {
		return err
	}
	s.current = cfg
	for _, fn := range s.subs {
		fn(cfg)
	}
	return nil
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("settings: create config dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("settings: write config: %w", err)
	}
	return nil
}

func validate(key string, value any) error {
	switch key {
	case "profile.display_name":
		name, _ := value.(string)
		if strings.TrimSpace(name) == "" {
			return &FieldError{Field: key, Message: "display name is required"}
		}
		if len(strings.TrimSpace(name)) < 2 {
			return &FieldError{Field: key, Message: "display name must be at least 2 characters"}
		}
	case "profile.email":
		email, _ := value.(string)
		if email != "" && !emailRe.MatchString(email) {
			return &FieldError{Field: key, Message: "enter a valid email address"}
		}
	case "profile.phone":
		phone, _ := value.(string)
		if strings.TrimSpace(phone) == "" {
			return &FieldError{Field: key, Message: "phone number is required"}
		}
		if !phoneRe.MatchString(phone) {
			return &FieldError{Field: key, Message: "enter a valid phone number"}
		}
	case "system.refresh_interval":
		n, ok := value.(int)
		if !ok || n < 5 || n > 300 {
			return &FieldError{Field: key, Message: "refresh interval must be between 5 and 300 seconds"}
		}
	case "system.items_per_page":
		n, ok := value.(int)
		if !ok || n < 5 || n > 100 {
			return &FieldError{Field: key, Message: "items per page must be between 5 and 100"}
		}
	case "system.theme":
		theme, _ := value.(string)
		switch theme {
		case "dark", "light", "auto":
		default:
			return &FieldError{Field: key, Message: "theme must be dark, light or auto"}
		}
	}
	return nil
}
