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

// Package genrepo binds generic repositories to the global database
// initialized by database.InitDB.
package genrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tomoncle/genrepo/database"
	"github.com/tomoncle/genrepo/repository"
	"github.com/uptrace/bun"
)

// ErrNotInitialized is returned when no global database has been set up.
var ErrNotInitialized = errors.New("genrepo: database not initialized")

// Of returns a repository for T on the global database.
func Of[T any]() (repository.Repository[T], error) {
	db := database.GetDB()
	if db == nil {
		return nil, ErrNotInitialized
	}
	return repository.New[T](db), nil
}

// MustOf is like Of but panics when the global database is missing.
func MustOf[T any]() repository.Repository[T] {
	repo, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return repo
}

// RunInTx runs fn in a transaction on the global database. The transaction
// commits when fn returns nil and rolls back otherwise. Repositories that
// should take part must be bound to tx with WithSession or repository.New.
func RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	db := database.GetDB()
	if db == nil {
		return ErrNotInitialized
	}
	return db.RunInTx(ctx, opts, fn)
}
