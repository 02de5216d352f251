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
	"reflect"

	"github.com/tomoncle/genrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db    bun.IDB
	table *schema.Table
}

// New returns a generic repository for T running against db, which may be a
// *bun.DB, a bun.Tx or a bun.Conn. T must be a Bun model struct.
func New[T any](db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{
		db:    db,
		table: db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem()),
	}
}

func (r *baseRepositoryImpl[T]) Queryable() *bun.SelectQuery {
	return r.db.NewSelect().Model((*T)(nil))
}

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) Session() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) WithSession(db bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, table: r.table}
}

func (r *baseRepositoryImpl[T]) Add(ctx context.Context, entity *T) error {
	_, err := r.db.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) AddRange(ctx context.Context, entities ...*T) error {
	if len(entities) == 0 {
		return nil
	}
	rows := make([]*T, len(entities))
	copy(rows, entities)
	_, err := r.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Any(ctx context.Context, where ...types.Predicate) (bool, error) {
	return types.ApplyAll(r.Queryable(), where...).Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, where ...types.Predicate) (int64, error) {
	n, err := types.ApplyAll(r.Queryable(), where...).Count(ctx)
	return int64(n), err
}

func (r *baseRepositoryImpl[T]) Select(ctx context.Context, keys ...any) (*T, error) {
	byKey, err := keyPredicate(r.table, keys)
	if err != nil {
		return nil, err
	}
	entity := new(T)
	err = byKey.Apply(r.db.NewSelect().Model(entity)).Limit(1).Scan(ctx)
	return orDefault(entity, err)
}

func (r *baseRepositoryImpl[T]) FirstOrDefault(ctx context.Context, where types.Predicate, include ...string) (*T, error) {
	return r.edge(ctx, where, include, false)
}

func (r *baseRepositoryImpl[T]) LastOrDefault(ctx context.Context, where types.Predicate, include ...string) (*T, error) {
	return r.edge(ctx, where, include, true)
}

// edge returns the first row in key order, or the last one when desc is set.
func (r *baseRepositoryImpl[T]) edge(ctx context.Context, where types.Predicate, include []string, desc bool) (*T, error) {
	entity := new(T)
	q := queryableWhereInclude(r.db.NewSelect().Model(entity), where, include)
	err := orderByKey(q, r.table, desc).Limit(1).Scan(ctx)
	return orDefault(entity, err)
}

func (r *baseRepositoryImpl[T]) SingleOrDefault(ctx context.Context, where types.Predicate, include ...string) (*T, error) {
	entities := make([]*T, 0, 2)
	q := queryableWhereInclude(r.db.NewSelect().Model(&entities), where, include)
	if err := orderByKey(q, r.table, false).Limit(2).Scan(ctx); err != nil {
		return nil, err
	}
	row, err := single(entities)
	if row == nil {
		return nil, err
	}
	return *row, nil
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, where types.Predicate, include ...string) ([]*T, error) {
	entities := make([]*T, 0)
	q := queryableWhereInclude(r.db.NewSelect().Model(&entities), where, include)
	if err := orderByKey(q, r.table, false).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest, include ...string) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	// includes take part in the count so filters may reference joined relations
	counter := queryableWhereInclude(r.db.NewSelect().Model(new(T)), pageRequest.GetFilter(), include)
	total, err := counter.Count(ctx)
	if err != nil {
		return nil, err
	}
	pagination.SetTotal(int64(total))
	if total == 0 || pageRequest.GetOffset() >= total {
		return pagination, nil
	}

	entities := make([]*T, 0, pageRequest.GetPageSize())
	q := queryableWhereInclude(r.db.NewSelect().Model(&entities), pageRequest.GetFilter(), include)
	if orders := pageRequest.GetOrders(); len(orders) > 0 {
		q = q.Order(orders...)
	}
	err = orderByKey(q, r.table, false).
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T, keys ...any) error {
	current, err := r.Select(ctx, keys...)
	if err != nil || current == nil {
		return err
	}
	copyScalars(r.table, current, entity)
	_, err = r.db.NewUpdate().Model(current).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, keys ...any) error {
	current, err := r.Select(ctx, keys...)
	if err != nil || current == nil {
		return err
	}
	_, err = r.db.NewDelete().Model(current).WherePK().Exec(ctx)
	return err
}
