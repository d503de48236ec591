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
	"fmt"
	"strings"

	"github.com/onebitflix/onebitflix/types"
)

// Dialect names the SQL flavour a descriptor targets.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
	MSSQL    Dialect = "mssql"
)

var _ types.BaseEnum = Dialect("")

// SupportedDialects lists every dialect a Manager can open, in enum order.
func SupportedDialects() []Dialect {
	return []Dialect{Postgres, MySQL, SQLite, MSSQL}
}

var dialectAliases = map[string]Dialect{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pg":         Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"mssql":      MSSQL,
	"sqlserver":  MSSQL,
}

// ParseDialect resolves a dialect name or one of its common aliases.
func ParseDialect(s string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q, supported types: %v", ErrUnsupportedDialect, s,
			types.EnumNames(SupportedDialects()...))
	}
	return d, nil
}

func (d Dialect) IsValid() bool {
	return d.Number() != types.IllegalValue
}

func (d Dialect) Number() int {
	switch d {
	case Postgres:
		return 0
	case MySQL:
		return 1
	case SQLite:
		return 2
	case MSSQL:
		return 3
	default:
		return types.IllegalValue
	}
}

func (d Dialect) String() string {
	return string(d)
}

func (d Dialect) Name() string {
	if !d.IsValid() {
		return types.IllegalName
	}
	return string(d)
}

func (d Dialect) Desc() string {
	switch d {
	case Postgres:
		return "PostgreSQL"
	case MySQL:
		return "MySQL / MariaDB"
	case SQLite:
		return "SQLite"
	case MSSQL:
		return "Microsoft SQL Server"
	default:
		return types.IllegalDesc
	}
}

// DefaultPort is the conventional server port for the dialect, 0 for sqlite.
func (d Dialect) DefaultPort() int {
	switch d {
	case Postgres:
		return 5432
	case MySQL:
		return 3306
	case MSSQL:
		return 1433
	default:
		return 0
	}
}

// UnmarshalText accepts the same aliases as ParseDialect.
func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := ParseDialect(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d), nil
}
