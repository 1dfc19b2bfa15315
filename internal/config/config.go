package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	API struct {
		BaseURL string
	}
	Storage struct {
		SQLitePath   string
		SecurePath   string
		SecureSecret string
		TokenBackend string
	}
	Notify struct {
		ReminderDelay time.Duration
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("COURSEPOCKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.baseurl", "https://api.freeapi.app/api/v1/users")
	v.SetDefault("storage.sqlitepath", "data/coursepocket.db")
	v.SetDefault("storage.securepath", "data/secure.bin")
	v.SetDefault("storage.securesecret", "")
	v.SetDefault("storage.tokenbackend", "secure")
	v.SetDefault("notify.reminderdelay", "24h")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	switch cfg.Storage.TokenBackend {
	case "secure", "sqlite":
	default:
		return Config{}, fmt.Errorf("unknown token backend %q", cfg.Storage.TokenBackend)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
