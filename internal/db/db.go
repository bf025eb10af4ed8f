// Package db provides SQL journal of competition events.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/udovin/gosql"
)

type dbKey struct{}

// WithRunner returns context that runs queries using specified runner.
func WithRunner(ctx context.Context, db gosql.Runner) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// GetRunner returns runner from context or db.
func GetRunner(ctx context.Context, db gosql.Runner) gosql.Runner {
	if r, ok := ctx.Value(dbKey{}).(gosql.Runner); ok {
		return r
	}
	return db
}

// WithTx returns context that runs queries in specified transaction.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return WithRunner(ctx, tx)
}

// GetTx returns transaction from context.
func GetTx(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(dbKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

// Rows represents reader for rows.
type Rows[T any] interface {
	// Next should read next row and return true if row exists.
	Next() bool
	// Row should return current row.
	Row() T
	// Close should close reader.
	Close() error
	// Err should return error that occurred during reading.
	Err() error
}

type rowReader[T any] struct {
	rows *sql.Rows
	err  error
	row  T
	// refs contains pointers for each field in row.
	refs []any
}

func (r *rowReader[T]) Next() bool {
	if !r.rows.Next() {
		return false
	}
	r.err = r.rows.Scan(r.refs...)
	return r.err == nil
}

func (r *rowReader[T]) Row() T {
	return r.row
}

func (r *rowReader[T]) Close() error {
	return r.rows.Close()
}

func (r *rowReader[T]) Err() error {
	if err := r.rows.Err(); err != nil {
		return err
	}
	return r.err
}

func getRowFields[T any](row *T) []any {
	var fields []any
	v := reflect.ValueOf(row).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if _, ok := t.Field(i).Tag.Lookup("db"); ok {
			fields = append(fields, v.Field(i).Addr().Interface())
		}
	}
	return fields
}

func newRowReader[T any](rows *sql.Rows) *rowReader[T] {
	r := &rowReader[T]{rows: rows}
	r.refs = getRowFields(&r.row)
	return r
}

type sliceRows[T any] struct {
	rows []T
	pos  int
}

func (r *sliceRows[T]) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *sliceRows[T]) Row() T {
	return r.rows[r.pos]
}

func (r *sliceRows[T]) Close() error {
	return nil
}

func (r *sliceRows[T]) Err() error {
	return nil
}

// NewSliceRows returns reader for rows from slice.
func NewSliceRows[T any](rows []T) Rows[T] {
	return &sliceRows[T]{rows: rows, pos: -1}
}

func checkColumns(rows *sql.Rows, cols []string) error {
	rowCols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) != len(rowCols) {
		return fmt.Errorf("result has invalid column sequence: %v != %v", cols, rowCols)
	}
	for i := 0; i < len(cols); i++ {
		if cols[i] != rowCols[i] {
			return fmt.Errorf("result has invalid column sequence: %v != %v", cols, rowCols)
		}
	}
	return nil
}

func getColumns[T any]() []string {
	var cols []string
	var object T
	t := reflect.TypeOf(object)
	for i := 0; i < t.NumField(); i++ {
		if db, ok := t.Field(i).Tag.Lookup("db"); ok {
			cols = append(cols, strings.Split(db, ",")[0])
		}
	}
	return cols
}
