package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cryptoscout/internal/asset"
	"cryptoscout/internal/store/db"
	"cryptoscout/lib/chrono"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cryptoscout/internal/store")

// ErrNoRuns is returned when the latest run is requested from an empty store.
var ErrNoRuns = errors.New("no runs have been stored")

type Run struct {
	ID        string
	StartedAt time.Time
	Records   int
	// Threshold is the last ratio threshold the run was filtered with.
	Threshold *float64
}

// Store keeps the record set of every extraction run.
type Store struct {
	db    *sql.DB
	qry   *db.Queries
	clock chrono.API
}

// New creates the schema if needed.
func New(ctx context.Context, database *sql.DB, clock chrono.API) (Store, error) {
	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("create schema: %w", err)
	}
	return Store{
		db:    database,
		qry:   db.New(database),
		clock: clock,
	}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

// SaveRun stores records under a new run and returns it.
func (s Store) SaveRun(ctx context.Context, records []asset.Record) (Run, error) {
	ctx, span := tracer.Start(ctx, "SaveRun")
	defer span.End()

	id, err := random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate run id")
		return Run{}, err
	}
	run := Run{
		ID:        id,
		StartedAt: s.clock.Now(),
		Records:   len(records),
	}
	span.SetAttributes(
		attribute.String("run", run.ID),
		attribute.Int("records", run.Records),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Run{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.CreateRun(ctx, db.CreateRunParams{
		ID:        run.ID,
		StartedAt: run.StartedAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Run{}, err
	}

	for i, r := range records {
		var changes sql.NullString
		if len(r.Stats.Changes) > 0 {
			encoded, err := json.Marshal(r.Stats.Changes)
			if err != nil {
				return Run{}, err
			}
			changes = sql.NullString{String: string(encoded), Valid: true}
		}

		err = txqry.CreateAssetRecord(ctx, db.CreateAssetRecordParams{
			RunID:     run.ID,
			Position:  int64(i),
			Name:      nullString(r.Name),
			Symbol:    nullString(r.Symbol),
			Price:     nullString(r.Price),
			MarketCap: nullString(r.MarketCap),
			Fdv:       nullString(r.Stats.FDV),
			Volume:    nullString(r.Stats.Volume),
			Ratio:     nullFloat(r.Stats.Ratio),
			Changes:   changes,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Run{}, err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Run{}, err
	}
	return run, nil
}

func (s Store) resolveRun(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	latest, err := s.qry.GetLatestRunId(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	return latest, err
}

// Records returns the records of a run in extraction order, an empty runID
// selects the latest run.
func (s Store) Records(ctx context.Context, runID string) ([]asset.Record, error) {
	ctx, span := tracer.Start(ctx, "Records")
	defer span.End()

	runID, err := s.resolveRun(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("run", runID))

	rows, err := s.qry.GetRunRecords(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	records := make([]asset.Record, len(rows))
	for i, row := range rows {
		var changes map[string]string
		if row.Changes.Valid {
			err = json.Unmarshal([]byte(row.Changes.String), &changes)
			if err != nil {
				return nil, fmt.Errorf("decode changes of record %d: %w", row.Position, err)
			}
		}
		records[i] = asset.Record{
			Name:      fromNullString(row.Name),
			Symbol:    fromNullString(row.Symbol),
			Price:     fromNullString(row.Price),
			MarketCap: fromNullString(row.MarketCap),
			Stats: asset.Stats{
				FDV:     fromNullString(row.Fdv),
				Volume:  fromNullString(row.Volume),
				Ratio:   fromNullFloat(row.Ratio),
				Changes: changes,
			},
		}
	}
	return records, nil
}

// Runs lists the most recent runs first.
func (s Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	ctx, span := tracer.Start(ctx, "Runs")
	defer span.End()

	rows, err := s.qry.ListRuns(ctx, int64(limit))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	runs := make([]Run, len(rows))
	for i, row := range rows {
		runs[i] = Run{
			ID:        row.ID,
			StartedAt: time.Unix(row.StartedAt, 0),
			Records:   int(row.Records),
			Threshold: fromNullFloat(row.Threshold),
		}
	}
	return runs, nil
}

// MarkFiltered records the threshold a run was filtered with, an empty
// runID selects the latest run.
func (s Store) MarkFiltered(ctx context.Context, runID string, threshold float64) error {
	ctx, span := tracer.Start(ctx, "MarkFiltered")
	defer span.End()

	runID, err := s.resolveRun(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return s.qry.SetRunThreshold(ctx, db.SetRunThresholdParams{
		Threshold: sql.NullFloat64{Float64: threshold, Valid: true},
		ID:        runID,
	})
}
