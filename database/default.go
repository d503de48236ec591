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
	"sync"
)

var defaultDescriptor = sync.OnceValue(func() *Descriptor {
	cfg, err := LoadConnectionConfig("")
	if err != nil {
		GetLogger().Warn("Ignoring database environment overrides", "error", err)
		cfg = OneBitFlixConfig()
	}
	return NewDescriptor(cfg)
})

// Default returns the process-wide descriptor: OneBitFlixConfig with an
// optional .env file and DB_* environment overrides applied. It is built on
// first use and every call returns the same instance.
func Default() *Descriptor {
	return defaultDescriptor()
}
