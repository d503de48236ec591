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
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDialect         = "DB_DIALECT"
	EnvHost            = "DB_HOST"
	EnvPort            = "DB_PORT"
	EnvName            = "DB_NAME"
	EnvUsername        = "DB_USERNAME"
	EnvPassword        = "DB_PASSWORD"
	EnvUnderscored     = "DB_UNDERSCORED"
	EnvSSLMode         = "DB_SSLMODE"
	EnvMaxIdleConns    = "DB_MAX_IDLE_CONNS"
	EnvMaxOpenConns    = "DB_MAX_OPEN_CONNS"
	EnvConnMaxLifetime = "DB_CONN_MAX_LIFETIME"
	EnvEnableQueryLog  = "DB_ENABLE_QUERY_LOG"
)

// LoadConnectionConfig builds a configuration from the built-in literal, the
// optional YAML file at path, an optional .env file in the working directory
// and finally DB_* environment variables.
func LoadConnectionConfig(path string) (ConnectionConfig, error) {
	cfg := OneBitFlixConfig()
	if path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			return ConnectionConfig{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ConnectionConfig{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return ConnectionConfig{}, err
	}
	return cfg, nil
}

// LoadConfig reads the YAML document at path on top of the built-in literal.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Database: OneBitFlixConfig()}
	if err := readConfigFile(path, &cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *ConnectionConfig) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.UnmarshalKey("database", cfg, hook); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveConfig writes cfg as YAML, creating parent directories as needed.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with any DB_* environment variables that are set.
func ApplyEnv(cfg *ConnectionConfig) error {
	if v := os.Getenv(EnvDialect); v != "" {
		d, err := ParseDialect(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvDialect, err)
		}
		cfg.Dialect = d
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvName); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		cfg.Password = v
	}
	if v := os.Getenv(EnvSSLMode); v != "" {
		cfg.SSLMode = v
	}

	var err error
	if cfg.Port, err = envInt(EnvPort, cfg.Port); err != nil {
		return err
	}
	if cfg.MaxIdleConns, err = envInt(EnvMaxIdleConns, cfg.MaxIdleConns); err != nil {
		return err
	}
	if cfg.MaxOpenConns, err = envInt(EnvMaxOpenConns, cfg.MaxOpenConns); err != nil {
		return err
	}
	if os.Getenv(EnvConnMaxLifetime) != "" {
		secs, err := envInt(EnvConnMaxLifetime, 0)
		if err != nil {
			return err
		}
		cfg.ConnMaxLifetime = time.Duration(secs) * time.Second
	}
	if cfg.Define.Underscored, err = envBool(EnvUnderscored, cfg.Define.Underscored); err != nil {
		return err
	}
	if cfg.EnableQueryLog, err = envBool(EnvEnableQueryLog, cfg.EnableQueryLog); err != nil {
		return err
	}
	return nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v)
	}
	return b, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegisterValidation(v, "dialect", func(fl validator.FieldLevel) bool {
		return Dialect(fl.Field().String()).IsValid()
	})
	return v
}

func mustRegisterValidation(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("database: register %q validation: %v", tag, err))
	}
}

// ValidateConfig reports obviously unusable configurations before a client
// tries them. Descriptors never call it.
func ValidateConfig(cfg ConnectionConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
