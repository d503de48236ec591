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
	"time"
)

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	Dialect       Dialect       `json:"dialect"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// DefineOptions are model definition defaults handed to the client.
type DefineOptions struct {
	// Underscored maps multi-word identifiers to lower_snake_case columns.
	Underscored bool `json:"underscored" yaml:"underscored" mapstructure:"underscored"`
}

// ConnectionConfig describes how to reach a database. Zero values are left
// for the client library to default.
type ConnectionConfig struct {
	Dialect  Dialect       `json:"dialect" yaml:"dialect" mapstructure:"dialect" validate:"required,dialect"`
	Host     string        `json:"host" yaml:"host" mapstructure:"host" validate:"required_unless=Dialect sqlite"`
	Port     int           `json:"port" yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	DBName   string        `json:"database" yaml:"database" mapstructure:"database" validate:"required"`
	Username string        `json:"username" yaml:"username" mapstructure:"username"`
	Password string        `json:"password" yaml:"password" mapstructure:"password"`
	Define   DefineOptions `json:"define" yaml:"define" mapstructure:"define"`

	SSLMode string `json:"sslmode,omitempty" yaml:"sslmode,omitempty" mapstructure:"sslmode"`
	Charset string `json:"charset,omitempty" yaml:"charset,omitempty" mapstructure:"charset"` // MySQL: utf8mb4

	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty" mapstructure:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty" mapstructure:"max_open_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time,omitempty" yaml:"conn_max_idle_time,omitempty" mapstructure:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty" mapstructure:"connect_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty" mapstructure:"write_timeout"`

	EnableReconnect     bool          `json:"enable_reconnect,omitempty" yaml:"enable_reconnect,omitempty" mapstructure:"enable_reconnect"`
	ReconnectInterval   time.Duration `json:"reconnect_interval,omitempty" yaml:"reconnect_interval,omitempty" mapstructure:"reconnect_interval"`
	MaxReconnectTries   int           `json:"max_reconnect_tries,omitempty" yaml:"max_reconnect_tries,omitempty" mapstructure:"max_reconnect_tries"`
	HealthCheckInterval time.Duration `json:"health_check_interval,omitempty" yaml:"health_check_interval,omitempty" mapstructure:"health_check_interval"`
	EnableQueryLog      bool          `json:"enable_query_log,omitempty" yaml:"enable_query_log,omitempty" mapstructure:"enable_query_log"`
	SlowQueryTime       time.Duration `json:"slow_query_time,omitempty" yaml:"slow_query_time,omitempty" mapstructure:"slow_query_time"`
}

// Config is the document read by LoadConfig.
type Config struct {
	Database ConnectionConfig `json:"database" yaml:"database" mapstructure:"database"`
}

// OneBitFlixConfig returns the application's built-in connection literal.
// Credentials here are development values; deployments override them through
// DB_* environment variables.
func OneBitFlixConfig() ConnectionConfig {
	return ConnectionConfig{
		Dialect:  Postgres,
		Host:     "localhost",
		Port:     5432,
		DBName:   "onebitflix",
		Username: "postgres",
		Password: "100200",
		Define: DefineOptions{
			Underscored: true,
		},
	}
}
