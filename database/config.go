/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tomoncle/genrepo/utils"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables that override the
// connection settings, e.g. DB_HOST or DB_MAX_OPEN_CONNS.
const EnvPrefix = "DB"

var validate = validator.New(validator.WithRequiredStructEnabled())

// envOverrides lists every setting that may be overridden from the
// environment. Nil fields and unset envSeconds/envFlag values were not set.
type envOverrides struct {
	Type            *string    `envconfig:"TYPE"`
	Host            *string    `envconfig:"HOST"`
	Port            *int       `envconfig:"PORT"`
	Username        *string    `envconfig:"USERNAME"`
	Password        *string    `envconfig:"PASSWORD"`
	DBName          *string    `envconfig:"NAME"`
	SSLMode         *string    `envconfig:"SSLMODE"`
	MaxIdleConns    *int       `envconfig:"MAX_IDLE_CONNS"`
	MaxOpenConns    *int       `envconfig:"MAX_OPEN_CONNS"`
	ConnMaxLifetime envSeconds `envconfig:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime envSeconds `envconfig:"CONN_MAX_IDLE_TIME"`
	EnableQueryLog  *bool      `envconfig:"ENABLE_QUERY_LOG"`
	QueryLogFormat  *string    `envconfig:"QUERY_LOG_FORMAT"`
	SlowQueryTime   envSeconds `envconfig:"SLOW_QUERY_TIME"`
	EnableMetrics   *bool      `envconfig:"ENABLE_METRICS"`
	AutoCreate      envFlag    `envconfig:"AUTO_CREATE"`
	LogLevel        *string    `envconfig:"LOG_LEVEL"`
}

// envSeconds accepts a bare integer number of seconds ("300") or a
// duration string ("5m").
type envSeconds struct {
	value time.Duration
	set   bool
}

func (s *envSeconds) Decode(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		s.value, s.set = time.Duration(n)*time.Second, true
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("expected seconds or a duration, got %q", v)
	}
	s.value, s.set = d, true
	return nil
}

func (s envSeconds) apply(dst *time.Duration) {
	if s.set {
		*dst = s.value
	}
}

// envFlag is switched on by the mere presence of its variable unless the
// value parses as false.
type envFlag struct {
	value bool
	set   bool
}

func (f *envFlag) Decode(v string) error {
	f.set = true
	v = strings.TrimSpace(v)
	if v == "" {
		f.value = true
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	f.value = b
	return nil
}

// LoadConfig reads a YAML configuration file. Connection pool settings that
// the file leaves out keep the values of DefaultConnectionConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{ConnectionConfig: *DefaultConnectionConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides loads envFile (if set) into the environment and then
// overrides cfg with any DB_* variables present.
func ApplyEnvOverrides(cfg *ConnectionConfig, envFile string) error {
	o, err := loadEnvOverrides(envFile)
	if err != nil {
		return err
	}
	o.applyConnection(cfg)
	return nil
}

// ApplyConfigEnvOverrides is ApplyEnvOverrides for a whole Config: it reads
// cfg.EnvFile and also honours DB_AUTO_CREATE and DB_LOG_LEVEL.
func ApplyConfigEnvOverrides(cfg *Config) error {
	o, err := loadEnvOverrides(cfg.EnvFile)
	if err != nil {
		return err
	}
	o.applyConnection(&cfg.ConnectionConfig)
	if o.AutoCreate.set {
		cfg.CreateTables = o.AutoCreate.value
	}
	setIf(&cfg.Log.Level, o.LogLevel)
	return nil
}

func loadEnvOverrides(envFile string) (*envOverrides, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return nil, fmt.Errorf("failed to parse %s_* environment: %w", EnvPrefix, err)
	}
	return &o, nil
}

func (o *envOverrides) applyConnection(cfg *ConnectionConfig) {
	setIf(&cfg.Type, o.Type)
	setIf(&cfg.Host, o.Host)
	setIf(&cfg.Port, o.Port)
	setIf(&cfg.Username, o.Username)
	setIf(&cfg.Password, o.Password)
	setIf(&cfg.DBName, o.DBName)
	setIf(&cfg.SSLMode, o.SSLMode)
	setIf(&cfg.MaxIdleConns, o.MaxIdleConns)
	setIf(&cfg.MaxOpenConns, o.MaxOpenConns)
	o.ConnMaxLifetime.apply(&cfg.ConnMaxLifetime)
	o.ConnMaxIdleTime.apply(&cfg.ConnMaxIdleTime)
	setIf(&cfg.EnableQueryLog, o.EnableQueryLog)
	setIf(&cfg.QueryLogFormat, o.QueryLogFormat)
	o.SlowQueryTime.apply(&cfg.SlowQueryTime)
	setIf(&cfg.EnableMetrics, o.EnableMetrics)
}

func setIf[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}

// ValidateConnectionConfig checks the connection settings before a
// connection is attempted.
func ValidateConnectionConfig(cfg *ConnectionConfig) error {
	if cfg == nil {
		return errors.New("database configuration cannot be empty")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	if !isSQLite(cfg.Type) && strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("invalid database configuration: host is required for %s", cfg.Type)
	}
	return nil
}

// ConfigureLogging applies cfg to the process loggers.
func ConfigureLogging(cfg LogConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}
	if cfg.Format != "" {
		utils.ConfigureConsoleLogFormat(cfg.Format)
	}
	switch cfg.Output {
	case "stdout":
		utils.ConfigureOutput(os.Stdout)
	case "stderr":
		utils.ConfigureOutput(os.Stderr)
	}
	if cfg.Level != "" {
		utils.ConfigureLogLevel(cfg.Level)
	}
	return nil
}

func isSQLite(typ string) bool {
	return typ == "sqlite" || typ == "sqlite3"
}
