package dynsched

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL      string
	DatabaseURL string
	LogLevel    string
	LogPath     string
	TimeFormat  string
	DevMode     bool
}

const (
	KeyAPIURL      = "DYNSCHED_API_URL"
	KeyDatabaseURL = "DYNSCHED_DB_URL"
	KeyLogLevel    = "DYNSCHED_LOG_LEVEL"
	KeyLogPath     = "DYNSCHED_LOG_PATH"
	KeyTimeFormat  = "DYNSCHED_TIME_FORMAT"
	KeyDevMode     = "DYNSCHED_DEV_MODE"
)

const (
	DefaultAPIURL     = "http://localhost:5001/api"
	DefaultLogLevel   = "WARN"
	DefaultTimeFormat = "2006-01-02 15:04"
)

var (
	userHome, _        = os.UserHomeDir()
	DefaultDatabaseURL = path.Join(userHome, ".dynsched", "session.db")
	DefaultLogPath     = path.Join(userHome, ".dynsched", "dynsched.log")
)

// DefaultConfFile is where LoadConfig looks when no file is given.
func DefaultConfFile() string {
	cfgDir, _ := os.UserConfigDir()
	return path.Join(cfgDir, "dynsched", "dynsched.conf")
}

// LoadConfig resolves each setting from the environment, then confFile, then defaults.
// confFile is created with the defaults if it does not exist.
func LoadConfig(confFile string) (Config, error) {
	confFromEnv := Config{
		APIURL:      os.Getenv(KeyAPIURL),
		DatabaseURL: os.Getenv(KeyDatabaseURL),
		LogLevel:    os.Getenv(KeyLogLevel),
		LogPath:     os.Getenv(KeyLogPath),
		TimeFormat:  os.Getenv(KeyTimeFormat),
	}

	if _, err := os.Stat(confFile); err != nil {
		if err := writeDefaultConf(confFile); err != nil {
			return Config{}, fmt.Errorf("create default conf file: %w", err)
		}
	}
	fromFile, err := godotenv.Read(confFile)
	if err != nil {
		return Config{}, fmt.Errorf("read conf file %s: %w", confFile, err)
	}
	confFromFile := Config{
		APIURL:      fromFile[KeyAPIURL],
		DatabaseURL: fromFile[KeyDatabaseURL],
		LogLevel:    fromFile[KeyLogLevel],
		LogPath:     fromFile[KeyLogPath],
		TimeFormat:  fromFile[KeyTimeFormat],
	}

	cfg := Config{
		APIURL:      strings.TrimRight(coalesce(confFromEnv.APIURL, confFromFile.APIURL, DefaultAPIURL), "/"),
		DatabaseURL: coalesce(confFromEnv.DatabaseURL, confFromFile.DatabaseURL, DefaultDatabaseURL),
		LogLevel:    coalesce(confFromEnv.LogLevel, confFromFile.LogLevel, DefaultLogLevel),
		LogPath:     coalesce(confFromEnv.LogPath, confFromFile.LogPath, DefaultLogPath),
		TimeFormat:  coalesce(confFromEnv.TimeFormat, confFromFile.TimeFormat, DefaultTimeFormat),
	}

	if coalesce(os.Getenv(KeyDevMode), fromFile[KeyDevMode]) != "" {
		cfg.DevMode = true
		cfg.LogLevel = "DEBUG"
		cfg.DatabaseURL = path.Join(os.TempDir(), "dynsched-dev.db")
	}

	return cfg, nil
}

func writeDefaultConf(confFile string) error {
	if err := os.MkdirAll(path.Dir(confFile), 0o744); err != nil {
		return err
	}
	return godotenv.Write(map[string]string{
		KeyAPIURL:      DefaultAPIURL,
		KeyDatabaseURL: DefaultDatabaseURL,
		KeyLogLevel:    DefaultLogLevel,
		KeyLogPath:     DefaultLogPath,
		KeyTimeFormat:  DefaultTimeFormat,
	}, confFile)
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}
