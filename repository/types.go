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

import (
	"context"

	"github.com/tomoncle/genrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// WriteRepository stages inserts, updates and deletes on the session. When the
// session is a transaction nothing is visible to others until it commits.
type WriteRepository[T any] interface {
	Add(ctx context.Context, entity *T) error

	AddRange(ctx context.Context, entities ...*T) error

	// Update overwrites the scalar columns of the row stored at keys with the
	// values of entity. It does nothing when no row exists at keys.
	Update(ctx context.Context, entity *T, keys ...any) error

	// Delete removes the row stored at keys, if any.
	Delete(ctx context.Context, keys ...any) error
}

// ReadRepository reads untracked snapshots. Every read that returns a single
// entity returns nil (and no error) when nothing matches. A nil predicate means
// no filtering; include names Bun relations to load eagerly.
type ReadRepository[T any] interface {
	Any(ctx context.Context, where ...types.Predicate) (bool, error)

	Count(ctx context.Context, where ...types.Predicate) (int64, error)

	// Select looks up an entity by its primary key values, in the order the
	// key fields are declared on the model.
	Select(ctx context.Context, keys ...any) (*T, error)

	FirstOrDefault(ctx context.Context, where types.Predicate, include ...string) (*T, error)

	LastOrDefault(ctx context.Context, where types.Predicate, include ...string) (*T, error)

	// SingleOrDefault fails with ErrNotSingle when more than one row matches.
	SingleOrDefault(ctx context.Context, where types.Predicate, include ...string) (*T, error)

	List(ctx context.Context, where types.Predicate, include ...string) ([]*T, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest, include ...string) (*types.Pagination[T], error)
}

// Repository combines reads, writes and paging and exposes the Bun session
// and model metadata for advanced use cases.
type Repository[T any] interface {
	WriteRepository[T]
	ReadRepository[T]
	PageQueryRepository[T]

	// Queryable returns a select query bound to the model table.
	Queryable() *bun.SelectQuery

	// Table returns the Bun table metadata of T.
	Table() *schema.Table

	// Session returns the session the repository runs against.
	Session() bun.IDB

	// WithSession returns the same repository bound to db, typically a bun.Tx.
	WithSession(db bun.IDB) Repository[T]
}
