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
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const redacted = "******"

// Descriptor is an immutable connection descriptor. It is safe to share
// between goroutines; nothing mutates it after NewDescriptor returns.
type Descriptor struct {
	cfg ConnectionConfig
}

// NewDescriptor captures cfg by value. Options are stored exactly as given:
// interpreting them is left to the client that opens the connection.
func NewDescriptor(cfg ConnectionConfig) *Descriptor {
	return &Descriptor{cfg: cfg}
}

func (d *Descriptor) Dialect() Dialect  { return d.cfg.Dialect }
func (d *Descriptor) Host() string      { return d.cfg.Host }
func (d *Descriptor) Port() int         { return d.cfg.Port }
func (d *Descriptor) Database() string  { return d.cfg.DBName }
func (d *Descriptor) Username() string  { return d.cfg.Username }
func (d *Descriptor) Password() string  { return d.cfg.Password }
func (d *Descriptor) Underscored() bool { return d.cfg.Define.Underscored }

// Config returns a copy of the captured configuration.
func (d *Descriptor) Config() ConnectionConfig {
	return d.cfg
}

// Redacted returns a copy of the configuration with the password masked.
func (d *Descriptor) Redacted() ConnectionConfig {
	cfg := d.cfg
	if cfg.Password != "" {
		cfg.Password = redacted
	}
	return cfg
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s://%s@%s/%s?underscored=%t",
		d.cfg.Dialect, d.cfg.Username, d.address(), d.cfg.DBName, d.cfg.Define.Underscored)
}

// address renders host:port. An unset port falls back to the dialect's
// conventional port in the DSN only; Port() still reports 0.
func (d *Descriptor) address() string {
	port := d.cfg.Port
	if port == 0 {
		port = d.cfg.Dialect.DefaultPort()
	}
	if port == 0 {
		return d.cfg.Host
	}
	return net.JoinHostPort(d.cfg.Host, strconv.Itoa(port))
}

// DriverName is the database/sql driver registered for the dialect.
func (d *Descriptor) DriverName() string {
	switch d.cfg.Dialect {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return sqliteshim.ShimName
	case MSSQL:
		return "sqlserver"
	default:
		return ""
	}
}

// DSN renders the descriptor as a connection string for DriverName.
func (d *Descriptor) DSN() (string, error) {
	switch d.cfg.Dialect {
	case Postgres:
		return d.postgresDSN(d.cfg.Password), nil
	case MySQL:
		return d.mysqlDSN(d.cfg.Password), nil
	case SQLite:
		return d.sqliteDSN(), nil
	case MSSQL:
		return d.mssqlDSN(d.cfg.Password), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, d.cfg.Dialect)
	}
}

// RedactedDSN is DSN with the password masked, suitable for logs.
func (d *Descriptor) RedactedDSN() (string, error) {
	password := ""
	if d.cfg.Password != "" {
		password = redacted
	}
	switch d.cfg.Dialect {
	case Postgres:
		return d.postgresDSN(password), nil
	case MySQL:
		return d.mysqlDSN(password), nil
	case SQLite:
		return d.sqliteDSN(), nil
	case MSSQL:
		return d.mssqlDSN(password), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, d.cfg.Dialect)
	}
}

func (d *Descriptor) userinfo(password string) *url.Userinfo {
	if password == "" {
		return url.User(d.cfg.Username)
	}
	return url.UserPassword(d.cfg.Username, password)
}

// timeoutSeconds rounds up to whole seconds. Both lib/pq and go-mssqldb read
// 0 as "no timeout", so a positive duration never renders as 0.
func timeoutSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(math.Ceil(d.Seconds())), 10)
}

func (d *Descriptor) postgresDSN(password string) string {
	q := url.Values{}
	sslMode := d.cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	if d.cfg.ConnectTimeout > 0 {
		q.Set("connect_timeout", timeoutSeconds(d.cfg.ConnectTimeout))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     d.userinfo(password),
		Host:     d.address(),
		Path:     "/" + d.cfg.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (d *Descriptor) mysqlDSN(password string) string {
	mc := mysql.NewConfig()
	mc.User = d.cfg.Username
	mc.Passwd = password
	mc.Net = "tcp"
	mc.Addr = d.address()
	mc.DBName = d.cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = d.cfg.ConnectTimeout
	mc.ReadTimeout = d.cfg.ReadTimeout
	mc.WriteTimeout = d.cfg.WriteTimeout
	charset := d.cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	mc.Params = map[string]string{"charset": charset}
	return mc.FormatDSN()
}

// sqliteDSN treats DBName as a file path; a bare name gets a .db suffix and
// ":memory:" or "file:" URIs are passed through.
func (d *Descriptor) sqliteDSN() string {
	name := d.cfg.DBName
	switch {
	case name == ":memory:", strings.HasPrefix(name, "file:"):
		return name
	case strings.HasSuffix(name, ".db"), strings.HasSuffix(name, ".sqlite"), strings.HasSuffix(name, ".sqlite3"):
		return name
	default:
		return name + ".db"
	}
}

func (d *Descriptor) mssqlDSN(password string) string {
	q := url.Values{}
	q.Set("database", d.cfg.DBName)
	if d.cfg.ConnectTimeout > 0 {
		q.Set("dial timeout", timeoutSeconds(d.cfg.ConnectTimeout))
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     d.userinfo(password),
		Host:     d.address(),
		RawQuery: q.Encode(),
	}
	return u.String()
}
