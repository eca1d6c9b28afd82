package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"asd-screening-service/internal/scoring"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questionnaire struct {
		IdleTTL string `yaml:"idle_ttl"`
	} `yaml:"questionnaire"`
	Bank struct {
		ID  string `yaml:"id"`
		TTL string `yaml:"ttl"`
	} `yaml:"bank"`
	Detection struct {
		BaseURL   string `yaml:"base_url"`
		StartPath string `yaml:"start_path"`
		StopPath  string `yaml:"stop_path"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"detection"`
	Game struct {
		Duration     string `yaml:"duration"`
		StopTimeout  string `yaml:"stop_timeout"`
		AutoStartTTL string `yaml:"autostart_ttl"`
	} `yaml:"game"`
	Auth struct {
		UserHeader string `yaml:"user_header"`
	} `yaml:"auth"`
	Scoring *scoring.Config `yaml:"scoring"`
}

// Load reads an optional .env file, then YAML config from path, then applies
// environment overrides. A missing config file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Detection.BaseURL, "DETECTION_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Bank.ID, "BANK_ID")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// ScoringConfig returns the configured scoring rules, or the defaults when
// the section is absent. Missing threshold fields fall back individually.
func (c Config) ScoringConfig() scoring.Config {
	def := scoring.DefaultConfig()
	if c.Scoring == nil {
		return def
	}
	out := *c.Scoring
	if len(out.ReverseScored) == 0 {
		out.ReverseScored = def.ReverseScored
	}
	th := &out.Thresholds
	if th.High == 0 {
		th.High = def.Thresholds.High
	}
	if th.Moderate == 0 {
		th.Moderate = def.Thresholds.Moderate
	}
	if th.Some == 0 {
		th.Some = def.Thresholds.Some
	}
	if th.ScaleMax == 0 {
		th.ScaleMax = def.Thresholds.ScaleMax
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
