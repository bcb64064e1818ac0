package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-poll/model"
)

type SurveyRepository interface {
	List(ctx context.Context, page Page) ([]model.Survey, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id int64) (model.Survey, error)
	Create(ctx context.Context, s model.Survey) (model.Survey, error)
	Update(ctx context.Context, id int64, apply func(*model.Survey)) (model.Survey, error)
	Delete(ctx context.Context, id int64) error
}

type SurveyStore struct {
	db    *sql.DB
	links surveyOptions
	lock  string
}

func NewSurveyStore(db *sql.DB) *SurveyStore {
	return &SurveyStore{db: db, lock: rowLock(db)}
}

// List returns surveys newest first, each with its linked option ids.
func (s *SurveyStore) List(ctx context.Context, page Page) ([]model.Survey, error) {
	limit, args := page.clause(1)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, comment
		FROM survey
		ORDER BY id DESC`+limit,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		sv := model.Survey{}
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Comment); err != nil {
			return nil, errors.Wrap(err, "list surveys: scan")
		}
		surveys = append(surveys, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list surveys: rows")
	}
	rows.Close()

	ids := make([]int64, len(surveys))
	for i, sv := range surveys {
		ids[i] = sv.ID
	}
	linked, err := s.links.Linked(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range surveys {
		surveys[i].OptionIDs = orEmpty(linked[surveys[i].ID])
	}
	return surveys, nil
}

func (s *SurveyStore) Count(ctx context.Context) (n int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM survey`).Scan(&n)
	return n, errors.Wrap(err, "count surveys")
}

func (s *SurveyStore) Get(ctx context.Context, id int64) (model.Survey, error) {
	return s.get(ctx, s.db, id, "")
}

func (s *SurveyStore) get(ctx context.Context, q querier, id int64, lock string) (model.Survey, error) {
	sv := model.Survey{}
	err := q.QueryRowContext(ctx, `
		SELECT id, name, comment FROM survey WHERE id = $1`+lock,
		id,
	).Scan(&sv.ID, &sv.Name, &sv.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return sv, ErrNotFound
	}
	if err != nil {
		return sv, errors.Wrapf(err, "get survey %d", id)
	}

	linked, err := s.links.Linked(ctx, q, []int64{id})
	if err != nil {
		return sv, err
	}
	sv.OptionIDs = orEmpty(linked[id])
	return sv, nil
}

// Create inserts the survey and its option links in one transaction. If any
// referenced option is missing nothing is written and an *UnknownOptionsError
// is returned.
func (s *SurveyStore) Create(ctx context.Context, sv model.Survey) (model.Survey, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sv, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err := s.checkOptions(ctx, tx, sv.OptionIDs); err != nil {
		return sv, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey (name, comment) VALUES ($1, $2)
		RETURNING id`,
		sv.Name,
		sv.Comment,
	).Scan(&sv.ID)
	if err != nil {
		return sv, errors.Wrap(err, "insert survey")
	}

	if err := s.links.Replace(ctx, tx, sv.ID, sv.OptionIDs); err != nil {
		return sv, err
	}

	created, err := s.get(ctx, tx, sv.ID, "")
	if err != nil {
		return sv, err
	}
	return created, errors.Wrap(tx.Commit(), "insert survey: commit")
}

// Update reads the survey, lets apply change it and writes back name,
// comment and option links, all in one transaction. Concurrent updates of
// the same survey are serialized, so none of them undoes another.
func (s *SurveyStore) Update(ctx context.Context, id int64, apply func(*model.Survey)) (model.Survey, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Survey{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	sv, err := s.get(ctx, tx, id, s.lock)
	if err != nil {
		return sv, err
	}
	apply(&sv)
	sv.ID = id

	res, err := tx.ExecContext(ctx, `
		UPDATE survey
		SET
			name = $1,
			comment = $2
		WHERE id = $3`,
		sv.Name,
		sv.Comment,
		sv.ID,
	)
	if err != nil {
		return sv, errors.Wrapf(err, "update survey %d", sv.ID)
	}
	if err := affected(res, "update survey"); err != nil {
		return sv, err
	}

	if err := s.checkOptions(ctx, tx, sv.OptionIDs); err != nil {
		return sv, err
	}
	if err := s.links.Replace(ctx, tx, sv.ID, sv.OptionIDs); err != nil {
		return sv, err
	}

	updated, err := s.get(ctx, tx, sv.ID, "")
	if err != nil {
		return sv, err
	}
	return updated, errors.Wrap(tx.Commit(), "update survey: commit")
}

// Delete removes the survey and its option links. The options stay.
func (s *SurveyStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err := s.links.Replace(ctx, tx, id, nil); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM survey WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete survey %d", id)
	}
	if err := affected(res, "delete survey"); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "delete survey: commit")
}

func (s *SurveyStore) checkOptions(ctx context.Context, q querier, optionIDs []int64) error {
	missing, err := s.links.Missing(ctx, q, optionIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &UnknownOptionsError{IDs: missing}
	}
	return nil
}

func orEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
