package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/gubarz/twchain/internal/transform"
)

// Config holds the application configuration
type Config struct {
	Extensions       []string `mapstructure:"extensions"`
	ScriptExtensions []string `mapstructure:"script_extensions"`
	Exclude          []string `mapstructure:"exclude"`
	Output           string   `mapstructure:"output"`
	Workers          int      `mapstructure:"workers"`
	AttributesOnly   bool     `mapstructure:"attributes_only"`
	LogLevel         string   `mapstructure:"log_level"`
	WatchDebounceMs  int      `mapstructure:"watch_debounce_ms"`
	ColorPath        string   `mapstructure:"color_path"`
	ColorBefore      string   `mapstructure:"color_before"`
	ColorAfter       string   `mapstructure:"color_after"`
	ColorDim         string   `mapstructure:"color_dim"`
	ColorSelected    string   `mapstructure:"color_selected"`
}

// C is the global config instance
var C Config

// Init initializes configuration with viper
func Init() error {
	SetDefaults()

	viper.SetConfigName("twchain")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "twchain"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("TWCHAIN")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// SetDefaults registers the built-in defaults
func SetDefaults() {
	rules := transform.DefaultRules()
	viper.SetDefault("extensions", rules.Extensions)
	viper.SetDefault("script_extensions", rules.ScriptExtensions)
	viper.SetDefault("exclude", rules.Exclude)
	viper.SetDefault("output", "print")
	viper.SetDefault("workers", runtime.NumCPU())
	viper.SetDefault("attributes_only", false)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("watch_debounce_ms", 100)
	viper.SetDefault("color_path", "36")      // Cyan
	viper.SetDefault("color_before", "31")    // Red
	viper.SetDefault("color_after", "32")     // Green
	viper.SetDefault("color_dim", "241")      // Gray
	viper.SetDefault("color_selected", "236") // Dark background
}

// ConfigFile returns the config file in use, if any
func ConfigFile() string {
	return viper.ConfigFileUsed()
}

// Rules builds the file rules from configuration
func Rules() transform.Rules {
	return transform.Rules{
		Extensions:       viper.GetStringSlice("extensions"),
		ScriptExtensions: viper.GetStringSlice("script_extensions"),
		Exclude:          viper.GetStringSlice("exclude"),
	}
}

// GetOutput returns the output mode
func GetOutput() string {
	return viper.GetString("output")
}

// GetWorkers returns the number of files rewritten concurrently
func GetWorkers() int {
	if n := viper.GetInt("workers"); n > 0 {
		return n
	}
	return 1
}

// GetAttributesOnly returns whether every file uses attribute-only mode
func GetAttributesOnly() bool {
	return viper.GetBool("attributes_only")
}

// GetLogLevel returns the log level name
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetWatchDebounce returns how long the watcher waits for writes to settle
func GetWatchDebounce() time.Duration {
	return time.Duration(viper.GetInt("watch_debounce_ms")) * time.Millisecond
}

// GetColorPath returns ANSI color code for file paths
func GetColorPath() string {
	return viper.GetString("color_path")
}

// GetColorBefore returns ANSI color code for original tokens
func GetColorBefore() string {
	return viper.GetString("color_before")
}

// GetColorAfter returns ANSI color code for expanded tokens
func GetColorAfter() string {
	return viper.GetString("color_after")
}

// GetColorDim returns the color for secondary text
func GetColorDim() string {
	return viper.GetString("color_dim")
}

// GetColorSelected returns the background color of the selected row
func GetColorSelected() string {
	return viper.GetString("color_selected")
}

// SetOutput sets output mode at runtime
func SetOutput(mode string) {
	viper.Set("output", mode)
	C.Output = mode
}

// SetAttributesOnly forces attribute-only mode at runtime
func SetAttributesOnly(on bool) {
	viper.Set("attributes_only", on)
	C.AttributesOnly = on
}
