package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
)

type student struct {
	Cource     int
	Letter     string
	LocalID    int
	FirstName  string
	SecondName string
	Birthday   time.Time
	Nickname   string
}

var studentMapping = meta.Map[student]("Student").
	Field("Cource", func(s *student) any { return &s.Cource }, meta.PrimaryKey(), meta.OfKind(ir.KindInt)).
	Field("Letter", func(s *student) any { return &s.Letter }, meta.PrimaryKey(), meta.OfKind(ir.KindChar)).
	Field("LocalId", func(s *student) any { return &s.LocalID }, meta.Column("local_id"), meta.PrimaryKey()).
	Field("FirstName", func(s *student) any { return &s.FirstName }, meta.Column("first_name")).
	Field("SecondName", func(s *student) any { return &s.SecondName }, meta.Column("second_name")).
	Field("Birthday", func(s *student) any { return &s.Birthday }).
	Field("Nickname", func(s *student) any { return &s.Nickname }, meta.Ignored())

type book struct {
	ID    int64
	Ref   uuid.UUID
	Title string
}

func (book) IdentityMember() string { return "ID" }

var bookMapping = meta.Map[book]("Book").
	Table("books").
	Field("ID", func(b *book) any { return &b.ID }, meta.Column("id")).
	Field("Ref", func(b *book) any { return &b.Ref }, meta.Column("ref"), meta.GeneratedUUID()).
	Field("Title", func(b *book) any { return &b.Title }, meta.Column("title"))

type studentFilter struct {
	Cource int
	Prefix string
}

var filterMapping = meta.Map[studentFilter]("StudentFilter").
	Field("Cource", func(f *studentFilter) any { return &f.Cource }).
	Field("Prefix", func(f *studentFilter) any { return &f.Prefix })

const sqliteSchema = `
CREATE TABLE student (
	cource INTEGER NOT NULL,
	letter TEXT NOT NULL,
	local_id INTEGER NOT NULL,
	first_name TEXT NOT NULL,
	second_name TEXT NOT NULL,
	birthday DATETIME NOT NULL,
	PRIMARY KEY (cource, letter, local_id)
);
CREATE TABLE books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ref TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL
);
`

// createTestStore opens a SQLite store in a temp dir with the test schema.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	d, err := dialect.Lookup(dialect.SQLite)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(d, path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.DB().ExecContext(context.Background(), sqliteSchema)
	require.NoError(t, err)
	return s
}

func seedStudents(t *testing.T, tbl *Table[student]) []student {
	t.Helper()
	day := func(y int) time.Time { return time.Date(y, 1, 2, 0, 0, 0, 0, time.UTC) }
	rows := []student{
		{Cource: 1, Letter: "A", LocalID: 1, FirstName: "Ivan", SecondName: "Petrov", Birthday: day(2003)},
		{Cource: 1, Letter: "A", LocalID: 2, FirstName: "Irina", SecondName: "Ivanova", Birthday: day(2002)},
		{Cource: 1, Letter: "B", LocalID: 1, FirstName: "Oleg", SecondName: "Sidorov", Birthday: day(2004)},
		{Cource: 2, Letter: "A", LocalID: 1, FirstName: "Ivo", SecondName: "Andric", Birthday: day(2001)},
	}
	for i := range rows {
		require.NoError(t, tbl.Insert(context.Background(), &rows[i]))
	}
	return rows
}
