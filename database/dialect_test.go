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
	"testing"

	"github.com/onebitflix/onebitflix/types"
	"gopkg.in/yaml.v3"
)

func TestParseDialect(t *testing.T) {
	cases := []struct {
		in   string
		want Dialect
	}{
		{"postgres", Postgres},
		{"PostgreSQL", Postgres},
		{" pg ", Postgres},
		{"mysql", MySQL},
		{"mariadb", MySQL},
		{"sqlite3", SQLite},
		{"SQLite", SQLite},
		{"mssql", MSSQL},
		{"sqlserver", MSSQL},
	}
	for _, tc := range cases {
		got, err := ParseDialect(tc.in)
		if err != nil {
			t.Errorf("ParseDialect(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDialect(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}

	if _, err := ParseDialect("oracle"); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}

func TestDialectEnum(t *testing.T) {
	for i, d := range SupportedDialects() {
		if !d.IsValid() {
			t.Errorf("%q should be valid", d)
		}
		if d.Number() != i {
			t.Errorf("%q Number: expected %d, got %d", d, i, d.Number())
		}
		if d.Name() != string(d) {
			t.Errorf("%q Name: got %q", d, d.Name())
		}
	}

	bogus := Dialect("db2")
	if bogus.IsValid() {
		t.Error("db2 should not be valid")
	}
	if bogus.Number() != types.IllegalValue || bogus.Name() != types.IllegalName || bogus.Desc() != types.IllegalDesc {
		t.Errorf("unexpected enum values for invalid dialect: %d %q %q", bogus.Number(), bogus.Name(), bogus.Desc())
	}
	if MSSQL.DefaultPort() != 1433 || SQLite.DefaultPort() != 0 {
		t.Errorf("unexpected default ports")
	}
}

func TestDialectYAML(t *testing.T) {
	var doc struct {
		Dialect Dialect `yaml:"dialect"`
	}
	if err := yaml.Unmarshal([]byte("dialect: postgresql\n"), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Dialect != Postgres {
		t.Errorf("expected %q, got %q", Postgres, doc.Dialect)
	}
	if err := yaml.Unmarshal([]byte("dialect: oracle\n"), &doc); err == nil {
		t.Error("expected an error for an unknown dialect")
	}
}
