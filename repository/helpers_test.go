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
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID    int64   `bun:"id,pk,autoincrement"`
	Name  string  `bun:"name,notnull"`
	Books []*Book `bun:"rel:has-many,join:id=author_id"`
}

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID       int64   `bun:"id,pk,autoincrement"`
	AuthorID int64   `bun:"author_id"`
	Title    string  `bun:"title,notnull"`
	Pages    int     `bun:"pages"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id"`
}

type Membership struct {
	bun.BaseModel `bun:"table:memberships,alias:m"`

	TenantID uuid.UUID `bun:"tenant_id,pk,type:varchar(36)"`
	UserID   int64     `bun:"user_id,pk"`
	Role     string    `bun:"role"`
}

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	Label string `bun:"label"`
}

type bookSummary struct {
	Title string `bun:"title"`
	Pages int    `bun:"pages"`
}

// newTestDB opens a private in-memory sqlite database. A single connection
// keeps the memory database alive for the whole test.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{(*Author)(nil), (*Book)(nil), (*Membership)(nil), (*Tag)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

// seedLibrary stores two authors; the first wrote three books, the second two.
func seedLibrary(t *testing.T, db bun.IDB) (Repository[Author], Repository[Book]) {
	t.Helper()
	ctx := context.Background()
	authors := New[Author](db)
	books := New[Book](db)

	ursula := &Author{Name: "Ursula"}
	terry := &Author{Name: "Terry"}
	require.NoError(t, authors.AddRange(ctx, ursula, terry))

	require.NoError(t, books.AddRange(ctx,
		&Book{AuthorID: ursula.ID, Title: "A Wizard of Earthsea", Pages: 183},
		&Book{AuthorID: ursula.ID, Title: "The Dispossessed", Pages: 387},
		&Book{AuthorID: ursula.ID, Title: "The Lathe of Heaven", Pages: 184},
		&Book{AuthorID: terry.ID, Title: "Mort", Pages: 243},
		&Book{AuthorID: terry.ID, Title: "Small Gods", Pages: 284},
	))
	return authors, books
}
