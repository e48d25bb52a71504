package datasource

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Plato-solutions/cherry/backend"
)

const (
	DefaultMaxConnections         = 10
	DefaultConnectTimeout         = 30 * time.Second
	DefaultSlowStatementThreshold = time.Second
	LogOff                        = "off"
)

// Config is the pool configuration of one datasource.
type Config struct {
	URL string `yaml:"url"`
	// Driver is the database/sql driver name, the active backend driver by default.
	Driver         string        `yaml:"driver"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MaxLifetime    time.Duration `yaml:"max_lifetime"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	// TestBeforeAcquire pings the database before every statement.
	TestBeforeAcquire bool `yaml:"test_before_acquire"`
	// LogStatements is the level statements are logged at, "off" disables logging.
	LogStatements string `yaml:"log_statements"`
	// LogSlowStatements is the level statements slower than SlowStatementThreshold are logged at.
	LogSlowStatements      string        `yaml:"log_slow_statements"`
	SlowStatementThreshold time.Duration `yaml:"slow_statement_threshold"`
}

// WithDefaults fills the zero settings.
func (c Config) WithDefaults() Config {
	if len(c.Driver) == 0 {
		c.Driver = backend.Active.DriverName()
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if len(c.LogStatements) == 0 {
		c.LogStatements = zapcore.DebugLevel.String()
	}
	if len(c.LogSlowStatements) == 0 {
		c.LogSlowStatements = zapcore.WarnLevel.String()
	}
	if c.SlowStatementThreshold <= 0 {
		c.SlowStatementThreshold = DefaultSlowStatementThreshold
	}
	return c
}

// Validate checks the settings of a config with defaults.
func (c Config) Validate() error {
	if len(c.URL) == 0 {
		return errors.New("empty url")
	}
	return c.validateSettings()
}

func (c Config) validateSettings() error {
	if c.MinConnections > c.MaxConnections {
		return errors.Errorf("min_connections %d exceeds max_connections %d", c.MinConnections, c.MaxConnections)
	}
	if _, _, err := logLevel(c.LogStatements); err != nil {
		return errors.Wrap(err, "log_statements")
	}
	if _, _, err := logLevel(c.LogSlowStatements); err != nil {
		return errors.Wrap(err, "log_slow_statements")
	}
	return nil
}

func logLevel(text string) (zapcore.Level, bool, error) {
	if strings.EqualFold(text, LogOff) {
		return zapcore.InvalidLevel, false, nil
	}
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return level, false, err
	}
	return level, true, nil
}

type file struct {
	Datasources map[string]Config `yaml:"datasources"`
}

// LoadConfig reads the datasources section of a YAML file; environment variables in the file are expanded.
func LoadConfig(path string) (map[string]Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(content)
}

// ParseConfig decodes the datasources section of a YAML document.
func ParseConfig(content []byte) (map[string]Config, error) {
	var f file
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(content))), &f); err != nil {
		return nil, errors.Wrap(err, "datasource config")
	} else if len(f.Datasources) == 0 {
		return nil, errors.New("datasource config: no datasources")
	}
	return f.Datasources, nil
}
