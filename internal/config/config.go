// Package config describes configuration of CTF server.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/labstack/gommon/log"
)

// Version contains version of CTF server.
var Version = "development"

// Config stores configuration for CTF server.
type Config struct {
	// Server contains API server config.
	Server Server `json:"server"`
	// DB contains event journal connection config.
	//
	// When DB is nil, state lives only in memory.
	DB *DB `json:"db,omitempty"`
	// Competition contains competition rules.
	Competition Competition `json:"competition"`
	// ChallengesFile contains path to file with challenge definitions.
	//
	// When empty, built-in challenges are used.
	ChallengesFile string `json:"challenges_file,omitempty"`
	// LogLevel contains level of logging.
	//
	// You can use following values:
	//	* 1 - DEBUG
	//	* 2 - INFO (default)
	//	* 3 - WARN
	//	* 4 - ERROR
	//	* 5 - OFF
	LogLevel LogLevel `json:"log_level,omitempty"`
}

// Server contains server config.
type Server struct {
	// Host contains server host.
	Host string `json:"host" env:"HOST"`
	// Port contains server port.
	Port int `json:"port" env:"PORT"`
	// RequestTimeout contains request timeout in seconds.
	RequestTimeout int `json:"request_timeout,omitempty" env:"REQUEST_TIMEOUT"`
}

// Address returns string representation of server address.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Competition contains rules of competition.
type Competition struct {
	// MaxTeamSize contains maximal amount of members in team.
	MaxTeamSize int `json:"max_team_size,omitempty" env:"MAX_TEAM_SIZE"`
	// TeamCodeLength contains length of team join code.
	TeamCodeLength int `json:"team_code_length,omitempty" env:"TEAM_CODE_LENGTH"`
	// ScoreboardCacheTTL contains scoreboard cache lifetime in seconds.
	ScoreboardCacheTTL int `json:"scoreboard_cache_ttl,omitempty" env:"SCOREBOARD_CACHE_TTL"`
	// DemoData enables demo teams and users.
	DemoData bool `json:"demo_data,omitempty" env:"DEMO_DATA"`
}

const (
	defaultPort           = 4242
	defaultRequestTimeout = 5
	defaultMaxTeamSize    = 4
	defaultTeamCodeLength = 6
)

// SetDefaults fills empty values with defaults.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = defaultRequestTimeout
	}
	if c.Competition.MaxTeamSize == 0 {
		c.Competition.MaxTeamSize = defaultMaxTeamSize
	}
	if c.Competition.TeamCodeLength == 0 {
		c.Competition.TeamCodeLength = defaultTeamCodeLength
	}
	if c.LogLevel == 0 {
		c.LogLevel = LogLevel(log.INFO)
	}
}

// Validate checks that config is consistent.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("invalid request timeout: %d", c.Server.RequestTimeout)
	}
	if c.Competition.MaxTeamSize < 1 {
		return fmt.Errorf("invalid max team size: %d", c.Competition.MaxTeamSize)
	}
	if c.Competition.TeamCodeLength < 4 || c.Competition.TeamCodeLength > 32 {
		return fmt.Errorf("invalid team code length: %d", c.Competition.TeamCodeLength)
	}
	if c.Competition.ScoreboardCacheTTL < 0 {
		return fmt.Errorf("invalid scoreboard cache ttl: %d", c.Competition.ScoreboardCacheTTL)
	}
	return nil
}

// LogLevel represents level of logging.
type LogLevel log.Lvl

// UnmarshalText parses level name or number.
func (l *LogLevel) UnmarshalText(data []byte) error {
	switch s := string(data); s {
	case "debug", "1":
		*l = LogLevel(log.DEBUG)
	case "info", "2":
		*l = LogLevel(log.INFO)
	case "warn", "3":
		*l = LogLevel(log.WARN)
	case "error", "4":
		*l = LogLevel(log.ERROR)
	case "off", "5":
		*l = LogLevel(log.OFF)
	default:
		return fmt.Errorf("unsupported log level: %q", s)
	}
	return nil
}

// UnmarshalJSON accepts both numeric and named levels.
func (l *LogLevel) UnmarshalJSON(data []byte) error {
	var level log.Lvl
	if err := json.Unmarshal(data, &level); err == nil {
		*l = LogLevel(level)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	return l.UnmarshalText([]byte(name))
}

// LoadFromFile loads configuration from json file.
//
// Environment variables override values from file.
func LoadFromFile(file string) (Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return finishConfig(cfg)
}

// LoadFromEnv loads configuration only from environment variables.
func LoadFromEnv() (Config, error) {
	return finishConfig(Config{})
}

func finishConfig(cfg Config) (Config, error) {
	if err := parseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(&cfg.Server, env.Options{
		Prefix: "CTF_SERVER_",
	}); err != nil {
		return err
	}
	if err := env.ParseWithOptions(&cfg.Competition, env.Options{
		Prefix: "CTF_",
	}); err != nil {
		return err
	}
	var overrides struct {
		ChallengesFile *string   `env:"CTF_CHALLENGES_FILE"`
		LogLevel       *LogLevel `env:"CTF_LOG_LEVEL"`
	}
	if err := env.Parse(&overrides); err != nil {
		return err
	}
	if overrides.ChallengesFile != nil {
		cfg.ChallengesFile = *overrides.ChallengesFile
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}
	return nil
}
