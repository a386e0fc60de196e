package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TREADMILL"

// Config is the process configuration, assembled from flags, an optional
// config file and TREADMILL_* environment variables, in that precedence.
type Config struct {
	DataDir        string
	DBPath         string
	Log            LogConfig
	TickInterval   time.Duration
	HistoryTimeout time.Duration
	Speech         SpeechConfig
	Treadmill      TreadmillConfig
	ImportFile     string
	ProgramID      string
	Headless       bool
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// SpeechConfig overrides the detected text-to-speech command
type SpeechConfig struct {
	Command string
}

// TreadmillConfig selects the treadmill to drive. Address "mock" uses the
// simulated treadmill, whose debug API listens on MockPort when set.
type TreadmillConfig struct {
	Address     string
	ScanTimeout time.Duration
	MockPort    int
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".treadmill-timer")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("treadmill-timer", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML, TOML or JSON config file")
	fs.String("data-dir", "", "directory for the database and logs")
	fs.String("db", "", "SQLite database path (default <data-dir>/treadmill.db)")
	fs.String("log-file", "", "log file path (default <data-dir>/treadmill-timer.log)")
	fs.Duration("tick-interval", time.Second, "timer tick period")
	fs.String("speech-command", "", "text-to-speech command to use instead of the detected one")
	fs.String("treadmill", "", "Bluetooth address of an FTMS treadmill to drive")
	fs.Duration("scan-timeout", 15*time.Second, "how long to look for the treadmill")
	fs.Int("mock-port", 0, "debug API port of the simulated treadmill (0 disables it)")
	fs.String("import", "", "YAML program file to import at startup")
	fs.String("program", "", "program id to select at startup")
	fs.Bool("headless", false, "run the selected program without the terminal UI")
	return fs
}

var flagKeys = map[string]string{
	"data-dir":       "data_dir",
	"db":             "db_path",
	"log-file":       "log.file",
	"tick-interval":  "tick_interval",
	"speech-command": "speech.command",
	"treadmill":      "treadmill.address",
	"scan-timeout":   "treadmill.scan_timeout",
	"mock-port":      "treadmill.mock_port",
	"import":         "import",
	"program":        "program",
	"headless":       "headless",
}

// Load parses args (without the program name) and returns a validated Config
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("history_timeout", 5*time.Second)

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flagName, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile, _ := fs.GetString("config")
	if configFile == "" {
		configFile = os.Getenv(envPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		DataDir: v.GetString("data_dir"),
		DBPath:  v.GetString("db_path"),
		Log: LogConfig{
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
		},
		TickInterval:   v.GetDuration("tick_interval"),
		HistoryTimeout: v.GetDuration("history_timeout"),
		Speech:         SpeechConfig{Command: v.GetString("speech.command")},
		Treadmill: TreadmillConfig{
			Address:     v.GetString("treadmill.address"),
			ScanTimeout: v.GetDuration("treadmill.scan_timeout"),
			MockPort:    v.GetInt("treadmill.mock_port"),
		},
		ImportFile: v.GetString("import"),
		ProgramID:  v.GetString("program"),
		Headless:   v.GetBool("headless"),
	}
	cfg.applyDerivedDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDerivedDefaults() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "treadmill.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "treadmill-timer.log")
	}
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	if c.HistoryTimeout <= 0 {
		return fmt.Errorf("history_timeout must be positive, got %v", c.HistoryTimeout)
	}
	if c.Treadmill.Address != "" && c.Treadmill.ScanTimeout <= 0 {
		return fmt.Errorf("treadmill.scan_timeout must be positive, got %v", c.Treadmill.ScanTimeout)
	}
	if c.Treadmill.MockPort < 0 || c.Treadmill.MockPort > 65535 {
		return fmt.Errorf("treadmill.mock_port out of range: %d", c.Treadmill.MockPort)
	}
	if c.Headless && c.ProgramID == "" {
		return errors.New("headless mode needs a program id")
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive, got %d", c.Log.MaxSizeMB)
	}
	return nil
}
