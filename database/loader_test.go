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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

// clearDBEnv isolates a test from DB_* variables set in the outer shell.
func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvDialect, EnvHost, EnvPort, EnvName, EnvUsername, EnvPassword, EnvUnderscored,
		EnvSSLMode, EnvMaxIdleConns, EnvMaxOpenConns, EnvConnMaxLifetime, EnvEnableQueryLog,
	} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("could not unset %s: %v", key, err)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	clearDBEnv(t)
	t.Setenv(EnvDialect, "mysql")
	t.Setenv(EnvHost, "db.prod")
	t.Setenv(EnvPort, "3306")
	t.Setenv(EnvName, "flix")
	t.Setenv(EnvUsername, "svc")
	t.Setenv(EnvPassword, "from-env")
	t.Setenv(EnvUnderscored, "false")
	t.Setenv(EnvSSLMode, "require")
	t.Setenv(EnvMaxIdleConns, "4")
	t.Setenv(EnvMaxOpenConns, "40")
	t.Setenv(EnvConnMaxLifetime, "90")
	t.Setenv(EnvEnableQueryLog, "true")

	cfg := OneBitFlixConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	want := ConnectionConfig{
		Dialect:         MySQL,
		Host:            "db.prod",
		Port:            3306,
		DBName:          "flix",
		Username:        "svc",
		Password:        "from-env",
		Define:          DefineOptions{Underscored: false},
		SSLMode:         "require",
		MaxIdleConns:    4,
		MaxOpenConns:    40,
		ConnMaxLifetime: 90 * time.Second,
		EnableQueryLog:  true,
	}
	if cfg != want {
		t.Fatalf("ApplyEnv: expected %+v, got %+v", want, cfg)
	}
}

func TestApplyEnvLeavesUnsetFields(t *testing.T) {
	clearDBEnv(t)
	cfg := OneBitFlixConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg != OneBitFlixConfig() {
		t.Fatalf("expected literal unchanged, got %+v", cfg)
	}
}

func TestApplyEnvInvalidValues(t *testing.T) {
	cases := map[string]string{
		EnvPort:         "five",
		EnvUnderscored:  "maybe",
		EnvDialect:      "oracle",
		EnvMaxOpenConns: "-x",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearDBEnv(t)
			t.Setenv(key, value)
			cfg := OneBitFlixConfig()
			if err := ApplyEnv(&cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "database.yaml", `
database:
  dialect: postgresql
  host: pg.internal
  port: 6432
  define:
    underscored: false
  connect_timeout: 5s
  max_open_conns: 12
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	got := cfg.Database
	if got.Dialect != Postgres {
		t.Errorf("Dialect: expected %q, got %q", Postgres, got.Dialect)
	}
	if got.Host != "pg.internal" || got.Port != 6432 {
		t.Errorf("address: got %s:%d", got.Host, got.Port)
	}
	if got.Define.Underscored {
		t.Errorf("Underscored: expected false from file")
	}
	if got.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout: expected 5s, got %v", got.ConnectTimeout)
	}
	if got.MaxOpenConns != 12 {
		t.Errorf("MaxOpenConns: expected 12, got %d", got.MaxOpenConns)
	}
	// Keys missing from the file keep the built-in values.
	if got.DBName != "onebitflix" || got.Username != "postgres" || got.Password != "100200" {
		t.Errorf("expected built-in database and credentials, got %+v", got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	bad := writeFile(t, dir, "bad.yaml", "database:\n  dialect: oracle\n")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected an error for an unknown dialect")
	}
}

func TestLoadConnectionConfigEnvWinsOverFile(t *testing.T) {
	clearDBEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "database.yaml", "database:\n  host: from-file\n  port: 5433\n")

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	}()

	t.Setenv(EnvHost, "from-env")
	cfg, err := LoadConnectionConfig(path)
	if err != nil {
		t.Fatalf("LoadConnectionConfig: %v", err)
	}
	if cfg.Host != "from-env" {
		t.Errorf("Host: expected from-env, got %q", cfg.Host)
	}
	if cfg.Port != 5433 {
		t.Errorf("Port: expected 5433 from file, got %d", cfg.Port)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "database.yaml")
	in := &Config{Database: fullConfig()}
	in.Database.Dialect = Postgres

	if err := SaveConfig(path, in); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	out, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if out.Database != in.Database {
		t.Fatalf("round trip: expected %+v, got %+v", in.Database, out.Database)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(OneBitFlixConfig()); err != nil {
		t.Fatalf("literal should validate: %v", err)
	}
	if err := ValidateConfig(ConnectionConfig{Dialect: SQLite, DBName: "local"}); err != nil {
		t.Fatalf("sqlite without host should validate: %v", err)
	}

	bad := map[string]ConnectionConfig{
		"unknown dialect": {Dialect: "oracle", Host: "h", DBName: "d"},
		"missing dialect": {Host: "h", DBName: "d"},
		"missing host":    {Dialect: Postgres, DBName: "d"},
		"missing db":      {Dialect: Postgres, Host: "h"},
		"port range":      {Dialect: Postgres, Host: "h", DBName: "d", Port: 70000},
	}
	for name, cfg := range bad {
		if err := ValidateConfig(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestMustRegisterValidationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an empty validation tag")
		}
	}()
	mustRegisterValidation(validator.New(), "", func(validator.FieldLevel) bool { return true })
}
