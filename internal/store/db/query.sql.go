package db

import (
	"context"
	"database/sql"
)

const createAssetRecord = `-- name: CreateAssetRecord :exec
insert into AssetRecord(runId, position, name, symbol, price, marketCap, fdv, volume, ratio, changes)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateAssetRecordParams struct {
	RunID     string
	Position  int64
	Name      sql.NullString
	Symbol    sql.NullString
	Price     sql.NullString
	MarketCap sql.NullString
	Fdv       sql.NullString
	Volume    sql.NullString
	Ratio     sql.NullFloat64
	Changes   sql.NullString
}

func (q *Queries) CreateAssetRecord(ctx context.Context, arg CreateAssetRecordParams) error {
	_, err := q.db.ExecContext(ctx, createAssetRecord,
		arg.RunID,
		arg.Position,
		arg.Name,
		arg.Symbol,
		arg.Price,
		arg.MarketCap,
		arg.Fdv,
		arg.Volume,
		arg.Ratio,
		arg.Changes,
	)
	return err
}

const createRun = `-- name: CreateRun :exec
insert into Run(id, startedAt) values (?, ?)
`

type CreateRunParams struct {
	ID        string
	StartedAt int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.StartedAt)
	return err
}

const getLatestRunId = `-- name: GetLatestRunId :one
select id from Run
order by startedAt desc, rowid desc
limit 1
`

func (q *Queries) GetLatestRunId(ctx context.Context) (string, error) {
	row := q.db.QueryRowContext(ctx, getLatestRunId)
	var id string
	err := row.Scan(&id)
	return id, err
}

const getRunRecords = `-- name: GetRunRecords :many
select runid, position, name, symbol, price, marketcap, fdv, volume, ratio, changes from AssetRecord
where runId = ?
order by position asc
`

func (q *Queries) GetRunRecords(ctx context.Context, runID string) ([]AssetRecord, error) {
	rows, err := q.db.QueryContext(ctx, getRunRecords, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AssetRecord
	for rows.Next() {
		var i AssetRecord
		if err := rows.Scan(
			&i.RunID,
			&i.Position,
			&i.Name,
			&i.Symbol,
			&i.Price,
			&i.MarketCap,
			&i.Fdv,
			&i.Volume,
			&i.Ratio,
			&i.Changes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRuns = `-- name: ListRuns :many
select Run.id, Run.startedAt, Run.threshold, count(AssetRecord.position) as records
from Run
left join AssetRecord on AssetRecord.runId = Run.id
group by Run.id
order by Run.startedAt desc, Run.rowid desc
limit ?
`

type ListRunsRow struct {
	ID        string
	StartedAt int64
	Threshold sql.NullFloat64
	Records   int64
}

func (q *Queries) ListRuns(ctx context.Context, limit int64) ([]ListRunsRow, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRunsRow
	for rows.Next() {
		var i ListRunsRow
		if err := rows.Scan(
			&i.ID,
			&i.StartedAt,
			&i.Threshold,
			&i.Records,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setRunThreshold = `-- name: SetRunThreshold :exec
update Run set threshold = ? where id = ?
`

type SetRunThresholdParams struct {
	Threshold sql.NullFloat64
	ID        string
}

func (q *Queries) SetRunThreshold(ctx context.Context, arg SetRunThresholdParams) error {
	_, err := q.db.ExecContext(ctx, setRunThreshold, arg.Threshold, arg.ID)
	return err
}
