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
)

// The functions below are the projecting counterparts of the single-entity
// reads. They scan the projected columns into R, a struct whose bun tags name
// the selected columns or a scalar for single-column projections.

// FirstOrDefaultResult returns the projection of the first matching row in key
// order, or nil when nothing matches.
func FirstOrDefaultResult[R, T any](ctx context.Context, repo Repository[T], where types.Predicate, sel types.Projection) (*R, error) {
	return edgeResult[R](ctx, repo, where, sel, false)
}

// LastOrDefaultResult returns the projection of the last matching row in key
// order, or nil when nothing matches.
func LastOrDefaultResult[R, T any](ctx context.Context, repo Repository[T], where types.Predicate, sel types.Projection) (*R, error) {
	return edgeResult[R](ctx, repo, where, sel, true)
}

// SingleOrDefaultResult returns the projection of the only matching row, nil
// when nothing matches, and ErrNotSingle when more than one row matches.
func SingleOrDefaultResult[R, T any](ctx context.Context, repo Repository[T], where types.Predicate, sel types.Projection) (*R, error) {
	results := make([]R, 0, 2)
	q := queryableWhereSelect(repo.Queryable(), where, sel)
	if err := orderByKey(q, repo.Table(), false).Limit(2).Scan(ctx, &results); err != nil {
		return nil, err
	}
	return single(results)
}

// ListResult returns the projection of every matching row in key order.
func ListResult[R, T any](ctx context.Context, repo Repository[T], where types.Predicate, sel types.Projection) ([]R, error) {
	results := make([]R, 0)
	q := queryableWhereSelect(repo.Queryable(), where, sel)
	if err := orderByKey(q, repo.Table(), false).Scan(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func edgeResult[R, T any](ctx context.Context, repo Repository[T], where types.Predicate, sel types.Projection, desc bool) (*R, error) {
	results := make([]R, 0, 1)
	q := queryableWhereSelect(repo.Queryable(), where, sel)
	if err := orderByKey(q, repo.Table(), desc).Limit(1).Scan(ctx, &results); err != nil {
		return nil, err
	}
	return single(results)
}
