package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/udovin/gosql"
)

// Event represents raw journal record.
type Event struct {
	ID      int64  `db:"id"`
	Kind    string `db:"kind"`
	Time    int64  `db:"time"`
	Payload []byte `db:"payload"`
}

// Journal represents append-only log of events.
type Journal interface {
	// Init creates journal table if it does not exist.
	Init(ctx context.Context) error
	// Append appends event to the end of journal and returns its ID.
	Append(ctx context.Context, event Event) (int64, error)
	// Load returns all events ordered by ID.
	Load(ctx context.Context) (Rows[Event], error)
}

type sqlJournal struct {
	db    *gosql.DB
	table string
}

// NewJournal creates a new instance of SQL journal.
func NewJournal(db *gosql.DB, table string) Journal {
	return &sqlJournal{db: db, table: table}
}

func (j *sqlJournal) schema() CreateTable {
	return CreateTable{
		Name: j.table,
		Columns: []Column{
			{Name: "id", Type: Int64Column, PrimaryKey: true, AutoIncrement: true},
			{Name: "kind", Type: StringColumn},
			{Name: "time", Type: Int64Column},
			{Name: "payload", Type: StringColumn},
		},
	}
}

func (j *sqlJournal) Init(ctx context.Context) error {
	query, err := j.schema().BuildApply(j.db.Dialect())
	if err != nil {
		return err
	}
	if _, err := GetRunner(ctx, j.db).ExecContext(ctx, query); err != nil {
		return fmt.Errorf("cannot create table %q: %w", j.table, err)
	}
	return nil
}

func (j *sqlJournal) Append(ctx context.Context, event Event) (int64, error) {
	builder := j.db.Insert(j.table)
	builder.SetNames("kind", "time", "payload")
	vals := []any{event.Kind, event.Time, string(event.Payload)}
	builder.SetValues(vals...)
	runner := GetRunner(ctx, j.db)
	switch b := builder.(type) {
	case *gosql.PostgresInsertQuery:
		b.SetReturning("id")
		var id int64
		row := runner.QueryRowContext(ctx, j.db.BuildString(builder), vals...)
		if err := row.Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		res, err := runner.ExecContext(ctx, j.db.BuildString(builder), vals...)
		if err != nil {
			return 0, err
		}
		count, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if count != 1 {
			return 0, fmt.Errorf("invalid amount of affected rows: %d", count)
		}
		return res.LastInsertId()
	}
}

func (j *sqlJournal) Load(ctx context.Context) (Rows[Event], error) {
	cols := getColumns[Event]()
	query := j.db.Select(j.table)
	query.SetNames(cols...)
	query.SetOrderBy(gosql.Ascending("id"))
	rawQuery, values := j.db.Build(query)
	rows, err := GetRunner(ctx, j.db).QueryContext(ctx, rawQuery, values...)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(rows, cols); err != nil {
		_ = rows.Close()
		return nil, err
	}
	return newRowReader[Event](rows), nil
}

type nopJournal struct {
	mutex  sync.Mutex
	lastID int64
}

// NewNopJournal creates journal that does not store anything.
func NewNopJournal() Journal {
	return &nopJournal{}
}

func (j *nopJournal) Init(context.Context) error {
	return nil
}

func (j *nopJournal) Append(context.Context, Event) (int64, error) {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	j.lastID++
	return j.lastID, nil
}

func (j *nopJournal) Load(context.Context) (Rows[Event], error) {
	return NewSliceRows[Event](nil), nil
}
