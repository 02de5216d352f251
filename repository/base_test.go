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
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/genrepo/types"
	"github.com/uptrace/bun"
)

func pagesOver(n int) types.Predicate {
	return types.NewQueryFilter("?TableAlias.pages > ?", n)
}

func TestAddThenSelectRoundTrip(t *testing.T) {
	ctx := context.Background()
	books := New[Book](newTestDB(t))

	book := &Book{AuthorID: 7, Title: "Solaris", Pages: 204}
	require.NoError(t, books.Add(ctx, book))
	require.NotZero(t, book.ID)

	got, err := books.Select(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, book.Pages, got.Pages)
	assert.Equal(t, book.AuthorID, got.AuthorID)
	assert.NotSame(t, book, got)
}

func TestSelectMissingKeyReturnsNil(t *testing.T) {
	books := New[Book](newTestDB(t))

	got, err := books.Select(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectRejectsWrongKeyCount(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := New[Book](db).Select(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrKeyCount)

	_, err = New[Membership](db).Select(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrKeyCount)

	_, err = New[Tag](db).Select(ctx, "go")
	assert.ErrorIs(t, err, ErrNoPrimaryKey)
}

func TestCompositeKeyRoundTrip(t *testing.T) {
	ctx := context.Background()
	members := New[Membership](newTestDB(t))
	tenant := uuid.New()

	require.NoError(t, members.AddRange(ctx,
		&Membership{TenantID: tenant, UserID: 1, Role: "owner"},
		&Membership{TenantID: tenant, UserID: 2, Role: "reader"},
		&Membership{TenantID: uuid.New(), UserID: 1, Role: "reader"},
	))

	got, err := members.Select(ctx, tenant, int64(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "owner", got.Role)

	require.NoError(t, members.Update(ctx, &Membership{Role: "admin"}, tenant, int64(2)))
	got, err = members.Select(ctx, tenant, int64(2))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, tenant, got.TenantID)
	assert.Equal(t, int64(2), got.UserID)
}

func TestUpdateOverwritesScalarColumns(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	first, err := books.FirstOrDefault(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	changed := &Book{ID: 9999, AuthorID: first.AuthorID, Title: "Earthsea", Pages: 200}
	require.NoError(t, books.Update(ctx, changed, first.ID))

	got, err := books.Select(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID, "primary key must not change")
	assert.Equal(t, "Earthsea", got.Title)
	assert.Equal(t, 200, got.Pages)

	missing, err := books.Select(ctx, int64(9999))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateMissingKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	before, err := books.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, books.Update(ctx, &Book{Title: "ghost"}, int64(12345)))

	after, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	exists, err := books.Any(ctx, types.NewQueryFilter("?TableAlias.title = ?", "ghost"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	mort, err := books.SingleOrDefault(ctx, types.NewQueryFilter("?TableAlias.title = ?", "Mort"))
	require.NoError(t, err)
	require.NotNil(t, mort)

	require.NoError(t, books.Delete(ctx, mort.ID))
	got, err := books.Select(ctx, mort.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, books.Delete(ctx, mort.ID), "deleting a missing key is a no-op")
	n, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestAnyAndCount(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	books := New[Book](db)
	exists, err := books.Any(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	seedLibrary(t, db)

	exists, err = books.Any(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = books.Any(ctx, pagesOver(1000))
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = books.Count(ctx, pagesOver(200), types.NewQueryFilter("?TableAlias.pages < ?", 300))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCountMatchesListLength(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	for _, pred := range []types.Predicate{nil, pagesOver(0), pagesOver(190), pagesOver(250), pagesOver(500)} {
		n, err := books.Count(ctx, pred)
		require.NoError(t, err)
		list, err := books.List(ctx, pred)
		require.NoError(t, err)
		assert.Equal(t, n, int64(len(list)))
	}
}

func TestFirstAndLastOrDefault(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	books := New[Book](db)

	none, err := books.FirstOrDefault(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	none, err = books.LastOrDefault(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	seedLibrary(t, db)

	first, err := books.FirstOrDefault(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "A Wizard of Earthsea", first.Title)

	last, err := books.LastOrDefault(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "Small Gods", last.Title)

	last, err = books.LastOrDefault(ctx, pagesOver(300))
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "The Dispossessed", last.Title)

	none, err = books.FirstOrDefault(ctx, pagesOver(1000))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSingleOrDefault(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	none, err := books.SingleOrDefault(ctx, pagesOver(1000))
	require.NoError(t, err)
	assert.Nil(t, none)

	one, err := books.SingleOrDefault(ctx, pagesOver(300))
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "The Dispossessed", one.Title)

	many, err := books.SingleOrDefault(ctx, pagesOver(200))
	assert.ErrorIs(t, err, ErrNotSingle)
	assert.Nil(t, many)
}

func TestIncludeLoadsRelations(t *testing.T) {
	ctx := context.Background()
	authors, books := seedLibrary(t, newTestDB(t))

	list, err := authors.List(ctx, nil, "Books")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Len(t, list[0].Books, 3)
	assert.Len(t, list[1].Books, 2)

	plain, err := authors.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, plain, 2)
	assert.Empty(t, plain[0].Books)

	mort, err := books.FirstOrDefault(ctx, types.NewQueryFilter("?TableAlias.title = ?", "Mort"), "Author")
	require.NoError(t, err)
	require.NotNil(t, mort)
	require.NotNil(t, mort.Author)
	assert.Equal(t, "Terry", mort.Author.Name)

	terry, err := authors.SingleOrDefault(ctx, types.NewQueryFilter("?TableAlias.name = ?", "Terry"), "Books")
	require.NoError(t, err)
	require.NotNil(t, terry)
	assert.Len(t, terry.Books, 2)
}

func TestListFilteredIsOrderedByKey(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	list, err := books.List(ctx, pagesOver(200))
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}

	empty, err := books.List(ctx, pagesOver(1000))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPageCoversEveryRowOnce(t *testing.T) {
	ctx := context.Background()
	books := New[Book](newTestDB(t))

	const rows, size = 23, 5
	batch := make([]*Book, 0, rows)
	for i := 0; i < rows; i++ {
		batch = append(batch, &Book{AuthorID: 1, Title: "vol", Pages: i})
	}
	require.NoError(t, books.AddRange(ctx, batch...))

	first, err := books.Page(ctx, types.NewDefaultPageRequest(1, size))
	require.NoError(t, err)
	assert.Equal(t, int64(rows), first.Total)
	assert.Equal(t, 5, first.Pages)

	seen := make(map[int64]bool, rows)
	var lastID int64
	for page := 1; page <= first.Pages; page++ {
		p, err := books.Page(ctx, types.NewDefaultPageRequest(page, size))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(p.Items), size)
		for _, b := range p.Items {
			assert.False(t, seen[b.ID], "row %d returned twice", b.ID)
			assert.Greater(t, b.ID, lastID)
			seen[b.ID] = true
			lastID = b.ID
		}
	}
	assert.Len(t, seen, rows)

	beyond, err := books.Page(ctx, types.NewDefaultPageRequest(first.Pages+1, size))
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, int64(rows), beyond.Total)
}

func TestPageWithFilterOrdersAndInclude(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	req := types.NewPageRequest(1, 2, pagesOver(190), []string{"pages DESC"})
	p, err := books.Page(ctx, req, "Author")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Total)
	assert.Equal(t, 2, p.Pages)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "The Dispossessed", p.Items[0].Title)
	assert.Equal(t, "Small Gods", p.Items[1].Title)
	require.NotNil(t, p.Items[0].Author)
	assert.Equal(t, "Ursula", p.Items[0].Author.Name)
	assert.True(t, p.HasNext())

	empty, err := books.Page(ctx, types.NewPageRequestWithFilter(1, 2, pagesOver(1000)))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)

	def, err := books.Page(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPageSize, def.PageSize)
	assert.Len(t, def.Items, 5)
}

func TestPageFilterOnIncludedRelation(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))
	byTerry := types.Where(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("author.name = ?", "Terry")
	})

	listed, err := books.List(ctx, byTerry, "Author")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	p, err := books.Page(ctx, types.NewPageRequestWithFilter(1, 1, byTerry), "Author")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Total)
	assert.Equal(t, 2, p.Pages)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Mort", p.Items[0].Title)
	require.NotNil(t, p.Items[0].Author)
	assert.Equal(t, "Terry", p.Items[0].Author.Name)

	second, err := books.Page(ctx, types.NewPageRequestWithFilter(2, 1, byTerry), "Author")
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Small Gods", second.Items[0].Title)
}

func TestPageBeyondAddressableOffsetIsEmpty(t *testing.T) {
	ctx := context.Background()
	_, books := seedLibrary(t, newTestDB(t))

	p, err := books.Page(ctx, types.NewDefaultPageRequest(math.MaxInt, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.Total)
	assert.Empty(t, p.Items)
}

func TestAddRangeEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	books := New[Book](newTestDB(t))

	require.NoError(t, books.AddRange(ctx))
	n, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWritesStagedOnTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	books := New[Book](db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, books.WithSession(tx).Add(ctx, &Book{Title: "draft"}))
	require.NoError(t, tx.Rollback())

	n, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rolled back insert must not persist")

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return books.WithSession(tx).Add(ctx, &Book{Title: "final"})
	})
	require.NoError(t, err)

	n, err = books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRepositoryExposesSessionAndTable(t *testing.T) {
	db := newTestDB(t)
	books := New[Book](db)

	assert.Same(t, db, books.Session())
	assert.Equal(t, "books", books.Table().Name)
	assert.Len(t, books.Table().PKs, 1)
	assert.Contains(t, books.Queryable().String(), `FROM "books" AS "b"`)
}
