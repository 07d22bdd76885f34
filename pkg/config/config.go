package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"taskdeck/pkg/keymaps"
)

// EnvPrefix prefixes environment overrides, e.g. TASKDECK_API_URL or
// TASKDECK_SERVER_ADDR.
const EnvPrefix = "TASKDECK"

// Config holds the application configuration
type Config struct {
	APIURL      string            `mapstructure:"api_url"`
	SessionFile string            `mapstructure:"session_file"`
	KeyMap      map[string]string `mapstructure:"keymap"`
	StylesFile  string            `mapstructure:"styles_file"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Server      ServerConfig      `mapstructure:"server"`

	// Path is the file the configuration was read from
	Path string `mapstructure:"-"`
}

// IdentityConfig points the client at the identity provider
type IdentityConfig struct {
	APIKey            string `mapstructure:"api_key"`
	IdentityURL       string `mapstructure:"identity_url"`
	TokenURL          string `mapstructure:"token_url"`
	FederatedProvider string `mapstructure:"federated_provider"`
	// FederatedTokenCommand prints an id token of the federated provider
	FederatedTokenCommand string `mapstructure:"federated_token_command"`
}

// ServerConfig configures the development backend
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Database    string        `mapstructure:"database"`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	APIKey      string        `mapstructure:"api_key"`
	SignInRate  float64       `mapstructure:"sign_in_rate"`
	SignInBurst int           `mapstructure:"sign_in_burst"`
}

// Styles holds the application colors and styling information
type Styles struct {
	// UI element colors
	BorderColor string `json:"border_color"`
	AccentColor string `json:"accent_color"`

	// Text colors
	NormalTextColor   string `json:"normal_text_color"`
	SelectedTextColor string `json:"selected_text_color"`
	SelectedBgColor   string `json:"selected_bg_color"`
	ErrorColor        string `json:"error_color"`

	// Status colors
	PendingColor    string `json:"pending_color"`
	InProgressColor string `json:"in_progress_color"`
	CompletedColor  string `json:"completed_color"`
}

// DefaultStyles returns the built-in color scheme
func DefaultStyles() Styles {
	return Styles{
		BorderColor:       "240",
		AccentColor:       "205",
		NormalTextColor:   "86",
		SelectedTextColor: "229",
		SelectedBgColor:   "57",
		ErrorColor:        "9",
		PendingColor:      "244",
		InProgressColor:   "3",
		CompletedColor:    "2",
	}
}

// Dir returns the directory holding the config, styles and session files
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "taskdeck"), nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("session_file", filepath.Join(configDir, "session.json"))
	v.SetDefault("keymap", keymaps.GetDefaultKeyMappings())
	v.SetDefault("styles_file", filepath.Join(configDir, "styles.json"))

	v.SetDefault("identity.api_key", "dev")
	v.SetDefault("identity.identity_url", "http://localhost:8080/identitytoolkit.googleapis.com/v1")
	v.SetDefault("identity.token_url", "http://localhost:8080/securetoken.googleapis.com/v1/token")
	v.SetDefault("identity.federated_provider", "google.com")
	v.SetDefault("identity.federated_token_command", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.database", filepath.Join(configDir, "dev.db"))
	v.SetDefault("server.token_secret", "taskdeck-dev-secret")
	v.SetDefault("server.token_ttl", "1h")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.sign_in_rate", 0.2)
	v.SetDefault("server.sign_in_burst", 5)
}

// Load reads the configuration from configPath, or from config.json in Dir
// when configPath is empty. A missing file is created with the defaults.
// Environment variables prefixed with TASKDECK_ override file values.
func Load(configPath string) (Config, Styles, error) {
	configDir, err := Dir()
	if err != nil {
		return Config{}, Styles{}, err
	}
	if configPath == "" {
		configPath = filepath.Join(configDir, "config.json")
	} else {
		configDir = filepath.Dir(configPath)
	}

	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v, configDir)

	// Config file not found, create default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return Config{}, Styles{}, err
		}
		if err := v.WriteConfigAs(configPath); err != nil {
			return Config{}, Styles{}, fmt.Errorf("writing default config: %w", err)
		}
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, Styles{}, fmt.Errorf("reading %s: %w", configPath, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, Styles{}, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	config.Path = configPath
	config.SessionFile = expandHome(config.SessionFile)
	config.StylesFile = expandHome(config.StylesFile)
	config.Server.Database = expandHome(config.Server.Database)

	// Now load the styles file
	styles, err := loadStyles(config.StylesFile)
	if err != nil {
		return config, styles, fmt.Errorf("error loading styles: %w", err)
	}

	return config, styles, nil
}

// loadStyles loads the application styles from the specified path
func loadStyles(stylesPath string) (Styles, error) {
	defaultStyles := DefaultStyles()
	if stylesPath == "" {
		return defaultStyles, nil
	}

	stylesData, err := os.ReadFile(stylesPath)
	if os.IsNotExist(err) {
		// If the file doesn't exist, create it with default values
		if err := os.MkdirAll(filepath.Dir(stylesPath), 0755); err != nil {
			return defaultStyles, err
		}
		stylesData, err = json.MarshalIndent(defaultStyles, "", "  ")
		if err != nil {
			return defaultStyles, err
		}
		return defaultStyles, os.WriteFile(stylesPath, stylesData, 0644)
	}
	if err != nil {
		return defaultStyles, err
	}

	// Missing keys keep their default color
	loadedStyles := defaultStyles
	if err := json.Unmarshal(stylesData, &loadedStyles); err != nil {
		return defaultStyles, err
	}
	return loadedStyles, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}
