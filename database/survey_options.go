package database

import (
	"context"

	"github.com/pkg/errors"
)

// surveyOptions gives access to the survey_option join table. Every method
// takes the querier it runs on so writes can share the caller's transaction.
type surveyOptions struct{}

// Linked returns the option ids of each survey, in option display order.
func (surveyOptions) Linked(ctx context.Context, q querier, surveyIDs []int64) (map[int64][]int64, error) {
	linked := make(map[int64][]int64, len(surveyIDs))
	if len(surveyIDs) == 0 {
		return linked, nil
	}

	in, args := inClause(1, surveyIDs)
	rows, err := q.QueryContext(ctx, `
		SELECT so.survey_id, o.id
		FROM survey_option so
		INNER JOIN option o ON (o.id = so.option_id)
		WHERE so.survey_id IN (`+in+`)
		ORDER BY o.name IS NOT NULL, o.name, o.id`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "survey options")
	}
	defer rows.Close()

	for rows.Next() {
		var surveyID, optionID int64
		if err := rows.Scan(&surveyID, &optionID); err != nil {
			return nil, errors.Wrap(err, "survey options: scan")
		}
		linked[surveyID] = append(linked[surveyID], optionID)
	}
	return linked, errors.Wrap(rows.Err(), "survey options: rows")
}

// Missing returns which of the given option ids have no option row.
func (surveyOptions) Missing(ctx context.Context, q querier, optionIDs []int64) ([]int64, error) {
	ids := dedupe(optionIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	in, args := inClause(1, ids)
	rows, err := q.QueryContext(ctx, `SELECT id FROM option WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "check options")
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "check options: scan")
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "check options: rows")
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Replace sets the survey's links to exactly optionIDs.
func (surveyOptions) Replace(ctx context.Context, q querier, surveyID int64, optionIDs []int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM survey_option WHERE survey_id = $1`, surveyID)
	if err != nil {
		return errors.Wrap(err, "unlink options")
	}

	for _, optionID := range dedupe(optionIDs) {
		_, err := q.ExecContext(ctx, `
			INSERT INTO survey_option (survey_id, option_id) VALUES ($1, $2)`,
			surveyID,
			optionID,
		)
		if err != nil {
			return errors.Wrapf(err, "link option %d", optionID)
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
