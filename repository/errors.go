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

package repository

import "errors"

var (
	// ErrNotSingle is returned by the SingleOrDefault family when more than
	// one row matches.
	ErrNotSingle = errors.New("repository: more than one row matches")

	// ErrKeyCount is returned when the number of key values passed to a key
	// lookup differs from the number of primary key columns of the model.
	ErrKeyCount = errors.New("repository: key value count does not match primary key")

	// ErrNoPrimaryKey is returned by key lookups on models without a primary key.
	ErrNoPrimaryKey = errors.New("repository: model has no primary key")
)
