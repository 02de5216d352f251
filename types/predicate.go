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

package types

import "github.com/uptrace/bun"

// Predicate narrows a select query. It is applied to the query builder so the
// condition is evaluated by the database, never in process.
type Predicate interface {
	Apply(q *bun.SelectQuery) *bun.SelectQuery
}

// PredicateFunc adapts an ordinary function to a Predicate.
type PredicateFunc func(q *bun.SelectQuery) *bun.SelectQuery

// Apply calls f(q).
func (f PredicateFunc) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f == nil {
		return q
	}
	return f(q)
}

// Where wraps fn as a Predicate.
func Where(fn func(q *bun.SelectQuery) *bun.SelectQuery) Predicate {
	return PredicateFunc(fn)
}

// And combines predicates; every non-nil predicate is applied in order, which
// bun joins with AND.
func And(preds ...Predicate) Predicate {
	return PredicateFunc(func(q *bun.SelectQuery) *bun.SelectQuery {
		return ApplyAll(q, preds...)
	})
}

// ApplyAll applies each non-nil predicate to q.
func ApplyAll(q *bun.SelectQuery, preds ...Predicate) *bun.SelectQuery {
	for _, p := range preds {
		if p == nil {
			continue
		}
		q = p.Apply(q)
	}
	return q
}

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Apply adds the filter as a WHERE clause. A nil or empty filter leaves q untouched.
func (f *QueryFilter) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f == nil || f.Schema == "" {
		return q
	}
	return q.Where(f.Schema, f.Args...)
}

// Projection selects the columns or expressions a query returns. The result
// is scanned into a caller-chosen shape instead of the stored entity.
type Projection func(q *bun.SelectQuery) *bun.SelectQuery

// Columns projects the named columns of the model table.
func Columns(columns ...string) Projection {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Column(columns...)
	}
}
