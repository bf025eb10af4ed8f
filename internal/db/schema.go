package db

import (
	"fmt"
	"strings"

	"github.com/udovin/gosql"
)

// ColumnType represents type of column.
type ColumnType int

const (
	// Int64Column represents int64 column.
	Int64Column ColumnType = 1 + iota
	// StringColumn represents text column.
	StringColumn
)

// Column represents table column.
type Column struct {
	Name          string
	Type          ColumnType
	PrimaryKey    bool
	AutoIncrement bool
}

func (c Column) int64SQL(d gosql.Dialect) string {
	if !c.PrimaryKey {
		return "bigint NOT NULL"
	}
	typeName := "bigint"
	switch d {
	case gosql.SQLiteDialect:
		// SQLite aliases rowid only for integer primary keys.
		typeName = "integer"
	case gosql.PostgresDialect:
		if c.AutoIncrement {
			typeName = "bigserial"
		}
	}
	typeName += " PRIMARY KEY"
	if c.AutoIncrement && d == gosql.SQLiteDialect {
		typeName += " AUTOINCREMENT"
	}
	return typeName
}

// BuildSQL returns column definition in specified dialect.
func (c Column) BuildSQL(d gosql.Dialect) (string, error) {
	switch c.Type {
	case Int64Column:
		return fmt.Sprintf("%q %s", c.Name, c.int64SQL(d)), nil
	case StringColumn:
		return fmt.Sprintf("%q text NOT NULL", c.Name), nil
	default:
		return "", fmt.Errorf("unsupported column type: %v", c.Type)
	}
}

// CreateTable represents create table query.
type CreateTable struct {
	Name    string
	Columns []Column
}

// BuildApply returns create table query in specified dialect.
//
// Query does nothing when table already exists.
func (q CreateTable) BuildApply(d gosql.Dialect) (string, error) {
	var query strings.Builder
	query.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (", q.Name))
	for i, column := range q.Columns {
		if i > 0 {
			query.WriteString(", ")
		}
		sql, err := column.BuildSQL(d)
		if err != nil {
			return "", err
		}
		query.WriteString(sql)
	}
	query.WriteRune(')')
	return query.String(), nil
}
