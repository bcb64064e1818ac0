package database

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-poll/model"
)

// Page bounds a list query. A zero Limit means no bound.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) clause(next int) (string, []any) {
	if p.Limit <= 0 {
		return "", nil
	}
	return " LIMIT $" + strconv.Itoa(next) + " OFFSET $" + strconv.Itoa(next+1), []any{p.Limit, p.Offset}
}

type OptionRepository interface {
	List(ctx context.Context, page Page) ([]model.Option, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id int64) (model.Option, error)
	Create(ctx context.Context, o model.Option) (model.Option, error)
	Update(ctx context.Context, id int64, apply func(*model.Option)) (model.Option, error)
	Delete(ctx context.Context, id int64) error
}

type OptionStore struct {
	db   *sql.DB
	lock string
}

func NewOptionStore(db *sql.DB) *OptionStore {
	return &OptionStore{db: db, lock: rowLock(db)}
}

// List returns options by name, unnamed ones first.
func (s *OptionStore) List(ctx context.Context, page Page) ([]model.Option, error) {
	limit, args := page.clause(1)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM option
		ORDER BY name IS NOT NULL, name, id`+limit,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list options")
	}
	defer rows.Close()

	options := []model.Option{}
	for rows.Next() {
		o := model.Option{}
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, errors.Wrap(err, "list options: scan")
		}
		options = append(options, o)
	}
	return options, errors.Wrap(rows.Err(), "list options: rows")
}

func (s *OptionStore) Count(ctx context.Context) (n int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM option`).Scan(&n)
	return n, errors.Wrap(err, "count options")
}

func (s *OptionStore) Get(ctx context.Context, id int64) (model.Option, error) {
	return s.get(ctx, s.db, id, "")
}

func (s *OptionStore) get(ctx context.Context, q querier, id int64, lock string) (model.Option, error) {
	o := model.Option{}
	err := q.QueryRowContext(ctx, `
		SELECT id, name FROM option WHERE id = $1`+lock,
		id,
	).Scan(&o.ID, &o.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, errors.Wrapf(err, "get option %d", id)
}

func (s *OptionStore) Create(ctx context.Context, o model.Option) (model.Option, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO option (name) VALUES ($1)
		RETURNING id`,
		o.Name,
	).Scan(&o.ID)
	return o, errors.Wrap(err, "insert option")
}

// Update reads the option, lets apply change it and writes it back, all in
// one transaction, so concurrent updates never undo each other.
func (s *OptionStore) Update(ctx context.Context, id int64, apply func(*model.Option)) (model.Option, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Option{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	o, err := s.get(ctx, tx, id, s.lock)
	if err != nil {
		return o, err
	}
	apply(&o)
	o.ID = id

	res, err := tx.ExecContext(ctx, `
		UPDATE option SET name = $1 WHERE id = $2`,
		o.Name,
		o.ID,
	)
	if err != nil {
		return o, errors.Wrapf(err, "update option %d", o.ID)
	}
	if err := affected(res, "update option"); err != nil {
		return o, err
	}
	return o, errors.Wrap(tx.Commit(), "update option: commit")
}

// Delete removes the option. Survey links to it go with it; surveys stay.
func (s *OptionStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM option WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete option %d", id)
	}
	return affected(res, "delete option")
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op+": verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
