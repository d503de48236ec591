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
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

var bunSqlSilentMode atomic.Bool

// EnableBunSqlSilent mutes the query hooks installed by the manager.
func EnableBunSqlSilent(b bool) {
	bunSqlSilentMode.Store(b)
}

// newQueryLogHook prints every query; BUNDEBUG=0|1|2 overrides it at runtime.
func newQueryLogHook() bun.QueryHook {
	return silenceable{bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	)}
}

// silenceable skips the wrapped hook while silent mode is on.
type silenceable struct {
	hook bun.QueryHook
}

func (s silenceable) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	if bunSqlSilentMode.Load() {
		return ctx
	}
	return s.hook.BeforeQuery(ctx, event)
}

func (s silenceable) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if bunSqlSilentMode.Load() {
		return
	}
	s.hook.AfterQuery(ctx, event)
}

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

func colorQuery(event *bun.QueryEvent) string {
	c, ok := operationColors[event.Operation()]
	if !ok {
		c = color.New(color.FgRed)
	}
	return c.Sprint(event.Query)
}

// SlowQueryHook reports successful queries that took longer than Threshold.
type SlowQueryHook struct {
	Threshold time.Duration
	Logger    Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if bunSqlSilentMode.Load() || h.Logger == nil || h.Threshold <= 0 {
		return
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.Threshold {
		h.Logger.Warn("Database slow query detected",
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", h.Threshold,
			"query", colorQuery(event),
		)
	}
}
