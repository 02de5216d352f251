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
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomoncle/genrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// queryableWhereInclude applies the filter first and then every include path.
func queryableWhereInclude(q *bun.SelectQuery, where types.Predicate, include []string) *bun.SelectQuery {
	q = types.ApplyAll(q, where)
	for _, path := range include {
		if path == "" {
			continue
		}
		q = q.Relation(path)
	}
	return q
}

// queryableWhereSelect applies the filter first and then the projection.
func queryableWhereSelect(q *bun.SelectQuery, where types.Predicate, sel types.Projection) *bun.SelectQuery {
	q = types.ApplyAll(q, where)
	if sel != nil {
		q = sel(q)
	}
	return q
}

// orderByKey appends the primary key columns as the final sort keys so that
// First, Last and paging see a stable order.
func orderByKey(q *bun.SelectQuery, table *schema.Table, desc bool) *bun.SelectQuery {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	for _, pk := range table.PKs {
		q = q.OrderExpr("?TableAlias.? "+dir, bun.Ident(pk.Name))
	}
	return q
}

// keyPredicate matches the row whose primary key columns equal keys, taken in
// declaration order.
func keyPredicate(table *schema.Table, keys []any) (types.Predicate, error) {
	pks := table.PKs
	if len(pks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, table.Type.Name())
	}
	if len(keys) != len(pks) {
		return nil, fmt.Errorf("%w: %s has %d key columns, got %d values",
			ErrKeyCount, table.Type.Name(), len(pks), len(keys))
	}
	return types.PredicateFunc(func(q *bun.SelectQuery) *bun.SelectQuery {
		for i, pk := range pks {
			q = q.Where("?TableAlias.? = ?", bun.Ident(pk.Name), keys[i])
		}
		return q
	}), nil
}

// copyScalars overwrites the data columns of dst with those of src. Primary
// keys and relations are left as they are.
func copyScalars[T any](table *schema.Table, dst, src *T) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for _, f := range table.DataFields {
		dv.FieldByIndex(f.Index).Set(sv.FieldByIndex(f.Index))
	}
}

func orDefault[T any](v *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func single[T any](rows []T) (*T, error) {
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	default:
		return nil, ErrNotSingle
	}
}
