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

package gormclient

import (
	"fmt"

	"github.com/onebitflix/onebitflix/database"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Option adjusts the gorm.Config used by Open.
type Option func(*gorm.Config)

// WithLogger replaces GORM's default logger.
func WithLogger(l logger.Interface) Option {
	return func(c *gorm.Config) { c.Logger = l }
}

// WithSingularTable stops GORM from pluralizing table names.
func WithSingularTable() Option {
	return func(c *gorm.Config) {
		if ns, ok := c.NamingStrategy.(schema.NamingStrategy); ok {
			ns.SingularTable = true
			c.NamingStrategy = ns
		}
	}
}

// NamingStrategy maps the descriptor's underscored flag onto GORM naming:
// underscored models get snake_case columns, others keep field names as
// written.
func NamingStrategy(desc *database.Descriptor) schema.NamingStrategy {
	return schema.NamingStrategy{NoLowerCase: !desc.Underscored()}
}

// Dialector returns the GORM dialector for desc.
func Dialector(desc *database.Descriptor) (gorm.Dialector, error) {
	dsn, err := desc.DSN()
	if err != nil {
		return nil, err
	}
	switch desc.Dialect() {
	case database.Postgres:
		return postgres.Open(dsn), nil
	case database.MySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q has no gorm dialector", database.ErrUnsupportedDialect, desc.Dialect())
	}
}

// Config builds the gorm.Config Open uses for desc.
func Config(desc *database.Descriptor, opts ...Option) *gorm.Config {
	cfg := &gorm.Config{NamingStrategy: NamingStrategy(desc)}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Open connects desc through GORM. Pool settings are forwarded to the
// underlying *sql.DB when set.
func Open(desc *database.Descriptor, opts ...Option) (*gorm.DB, error) {
	dialector, err := Dialector(desc)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, Config(desc, opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access gorm connection pool: %w", err)
	}
	cfg := desc.Config()
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return db, nil
}
