package store

import (
	"database/sql"
	"time"

	"github.com/cesargomez89/genofetch/internal/domain"
)

func (db *DB) CreateRun(run *domain.Run) error {
	query := `INSERT INTO runs (id, input_path, status, total, started_at)
		VALUES (:id, :input_path, :status, :total, :started_at)`

	_, err := db.NamedExec(query, run)
	return err
}

func (db *DB) GetRun(id string) (*domain.Run, error) {
	query := `SELECT id, input_path, status, total, resolved, not_found, failed, started_at, finished_at
		FROM runs WHERE id = ?`

	run := &domain.Run{}
	err := db.Get(run, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun records the terminal status and outcome tallies of a run.
func (db *DB) FinishRun(id string, status domain.RunStatus, resolved, notFound, failed int) error {
	query := `UPDATE runs SET status = ?, resolved = ?, not_found = ?, failed = ?, finished_at = ? WHERE id = ?`
	_, err := db.Exec(query, status, resolved, notFound, failed, time.Now(), id)
	return err
}

func (db *DB) ListRuns(limit int) ([]*domain.Run, error) {
	query := `SELECT id, input_path, status, total, resolved, not_found, failed, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`

	var runs []*domain.Run
	err := db.Select(&runs, query, limit)
	return runs, err
}

// RecordOutcomes persists every resolution record of a run in input order.
func (db *DB) RecordOutcomes(runID string, records []domain.ResolutionRecord) error {
	query := `INSERT INTO outcomes (run_id, position, cell_line, accepted_name, legacy_name, genus,
			query_used, status, accession, assembly_level, annotated, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	for pos, rec := range records {
		if _, err := tx.Exec(query, runID, pos, rec.CellLine, rec.AcceptedName, rec.LegacyName, rec.Genus,
			string(rec.QueryUsed), string(rec.Status), rec.Accession, rec.AssemblyLevel, rec.Annotated, rec.Detail); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// UnresolvedSpecies returns the species of a run that did not reach
// RESOLVED, in their original input order, so a later run can retry just
// that subset.
func (db *DB) UnresolvedSpecies(runID string) ([]domain.SpeciesRequest, error) {
	query := `SELECT cell_line, accepted_name, legacy_name, genus
		FROM outcomes WHERE run_id = ? AND status != ? ORDER BY position ASC`

	rows, err := db.Queryx(query, runID, string(domain.StatusResolved))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var requests []domain.SpeciesRequest
	for rows.Next() {
		var req domain.SpeciesRequest
		var legacy, genus sql.NullString
		if err := rows.Scan(&req.CellLine, &req.AcceptedName, &legacy, &genus); err != nil {
			return nil, err
		}
		req.LegacyName = legacy.String
		req.Genus = genus.String
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
