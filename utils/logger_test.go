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

package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		" warn ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	ConfigureOutput(&buf)
	defer ConfigureOutput(nil)

	l := NewLogger("TEXTTEST")
	l.SetLevel(logrus.InfoLevel)
	l.WithField("dialect", "postgres").Info("connected")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "[  TEXTTEST]") {
		t.Errorf("expected padded logger name, got %q", out)
	}
	if !strings.Contains(out, "connected dialect=postgres") {
		t.Errorf("expected message and fields, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at info level: %q", out)
	}
}

func TestSetLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	ConfigureOutput(&buf)
	defer ConfigureOutput(nil)

	l := NewLogger("LEVELTEST")
	if !SetLoggerLevel("LEVELTEST", "error") {
		t.Fatal("SetLoggerLevel should find a registered logger")
	}
	if l.GetLevel() != logrus.ErrorLevel {
		t.Errorf("expected error level, got %v", l.GetLevel())
	}
	if SetLoggerLevel("NOSUCHLOGGER", "debug") {
		t.Error("SetLoggerLevel should report unknown names")
	}
	l.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("warn should be filtered at error level: %q", buf.String())
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	ConfigureOutput(&buf)
	ConfigureConsoleLogFormat("json")
	defer func() {
		ConfigureOutput(nil)
		ConfigureConsoleLogFormat("text")
	}()

	l := NewLogger("JSONTEST")
	l.SetLevel(logrus.InfoLevel)
	l.Info("ready")

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "ready" || rec["logger"] != "JSONTEST" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_STR", "value")
	t.Setenv("UTILS_TEST_BOOL", "true")
	t.Setenv("UTILS_TEST_BAD_BOOL", "nope")

	if got := EnvDefaultString("UTILS_TEST_STR", "def"); got != "value" {
		t.Errorf("EnvDefaultString: got %q", got)
	}
	if got := EnvDefaultString("UTILS_TEST_UNSET", "def"); got != "def" {
		t.Errorf("EnvDefaultString default: got %q", got)
	}
	if !EnvDefaultBool("UTILS_TEST_BOOL", false) {
		t.Error("EnvDefaultBool: expected true")
	}
	if !EnvDefaultBool("UTILS_TEST_BAD_BOOL", true) {
		t.Error("EnvDefaultBool should fall back on parse errors")
	}
}

func TestTextFormatterColors(t *testing.T) {
	entry := &logrus.Entry{Logger: logrus.New(), Level: logrus.InfoLevel, Message: "ready", Data: logrus.Fields{}}

	plain, err := (&TextFormatter{LoggerName: "PLAIN", DisableColors: true}).Format(entry)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Contains(string(plain), "\x1b[") {
		t.Errorf("expected no ANSI codes, got %q", plain)
	}
	if !strings.Contains(string(plain), "   INFO ") {
		t.Errorf("expected padded level, got %q", plain)
	}

	colored, err := (&TextFormatter{LoggerName: "COLOR"}).Format(entry)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(string(colored), ansiGreen) {
		t.Errorf("expected green info level, got %q", colored)
	}
}
