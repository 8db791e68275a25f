package storage

// sqlite.go: histórico de ejecuciones del pipeline.
//
// Estrategia:
//   - `runs`: una fila por ejecución (id uuid, inicio, fin, estado).
//   - `steps`: una fila por paso ejecutado, con sus contadores.
//   - `quotes`, `tvl_readings`, `blocks`: el detalle de lo que escribió cada paso.
//   - Prune automático al arrancar: ejecuciones de más de 180 días.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/onchainsheet/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    status      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
    run_id      TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    step        TEXT    NOT NULL,
    status      TEXT    NOT NULL,
    updated     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    output      TEXT,
    err         TEXT,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS quotes (
    run_id  TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq     INTEGER NOT NULL,
    row_num INTEGER NOT NULL,
    symbol  TEXT    NOT NULL,
    cmc_id  INTEGER NOT NULL DEFAULT 0,
    price   REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS tvl_readings (
    run_id  TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq     INTEGER NOT NULL,
    row_num INTEGER NOT NULL,
    symbol  TEXT    NOT NULL,
    slug    TEXT,
    kind    TEXT,
    tvl     REAL    NOT NULL DEFAULT 0,
    found   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blocks (
    run_id    TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq       INTEGER NOT NULL,
    start_row INTEGER NOT NULL,
    end_row   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_quotes_run   ON quotes(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_tvl_run      ON tvl_readings(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_blocks_run   ON blocks(run_id, seq);
`

const retentionRuns = 180 * 24 * time.Hour

// SQLiteStorage implementa ports.RunStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ejecuciones antiguas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// StartRun registra una ejecución nueva.
func (s *SQLiteStorage) StartRun(ctx context.Context, run domain.Run) error {
	status := run.Status
	if status == "" {
		status = domain.StatusRunning
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), string(status),
	); err != nil {
		return fmt.Errorf("storage.StartRun: insert %s: %w", run.ID, err)
	}
	return nil
}

// SaveStep persiste un paso y su detalle en una transacción.
func (s *SQLiteStorage) SaveStep(ctx context.Context, runID string, step domain.StepResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveStep: begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM steps WHERE run_id = ?`, runID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("storage.SaveStep: next seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO steps (run_id, seq, step, status, updated, skipped, failed, duration_ms, output, err)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, step.Step, string(step.Status),
		step.Updated, step.Skipped, step.Failed, step.Duration.Milliseconds(),
		step.Output, step.Err,
	); err != nil {
		return fmt.Errorf("storage.SaveStep: insert step %s: %w", step.Step, err)
	}

	for _, q := range step.Quotes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quotes (run_id, seq, row_num, symbol, cmc_id, price) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, seq, q.Row, q.Symbol, q.CMCID, q.Price,
		); err != nil {
			return fmt.Errorf("storage.SaveStep: insert quote %s: %w", q.Symbol, err)
		}
	}

	for _, r := range step.TVLs {
		found := 0
		if r.Found {
			found = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tvl_readings (run_id, seq, row_num, symbol, slug, kind, tvl, found) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, seq, r.Row, r.Symbol, r.Slug, string(r.Kind), r.TVL, found,
		); err != nil {
			return fmt.Errorf("storage.SaveStep: insert tvl %s: %w", r.Symbol, err)
		}
	}

	for _, b := range step.Blocks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocks (run_id, seq, start_row, end_row) VALUES (?, ?, ?, ?)`,
			runID, seq, b.Start, b.End,
		); err != nil {
			return fmt.Errorf("storage.SaveStep: insert block %s: %w", b, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveStep: commit: %w", err)
	}
	return nil
}

// FinishRun marca la ejecución como terminada.
func (s *SQLiteStorage) FinishRun(ctx context.Context, runID string, status domain.RunStatus, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), formatTime(finishedAt), runID,
	)
	if err != nil {
		return fmt.Errorf("storage.FinishRun: update %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.FinishRun: unknown run %s", runID)
	}
	return nil
}

// RecentRuns devuelve las últimas limit ejecuciones, más recientes primero,
// con sus pasos y el detalle de cada paso.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, ''), status
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: query: %w", err)
	}

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var started, finished, status string
		if err := rows.Scan(&run.ID, &started, &finished, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.RecentRuns: scan row: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.Status = domain.RunStatus(status)
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: %w", err)
	}

	// Con una sola conexión, las consultas de detalle van después de cerrar rows.
	for i := range runs {
		steps, err := s.loadSteps(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Steps = steps
	}
	return runs, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func (s *SQLiteStorage) loadSteps(ctx context.Context, runID string) ([]domain.StepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, step, status, updated, skipped, failed, duration_ms,
		       COALESCE(output, ''), COALESCE(err, '')
		FROM steps
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.loadSteps: query: %w", err)
	}

	var steps []domain.StepResult
	var seqs []int
	for rows.Next() {
		var st domain.StepResult
		var seq int
		var status string
		var ms int64
		if err := rows.Scan(&seq, &st.Step, &status, &st.Updated, &st.Skipped, &st.Failed, &ms, &st.Output, &st.Err); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.loadSteps: scan row: %w", err)
		}
		st.Status = domain.RunStatus(status)
		st.Duration = time.Duration(ms) * time.Millisecond
		steps = append(steps, st)
		seqs = append(seqs, seq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.loadSteps: %w", err)
	}

	for i, seq := range seqs {
		if err := s.loadDetail(ctx, runID, seq, &steps[i]); err != nil {
			return nil, err
		}
	}
	return steps, nil
}

func (s *SQLiteStorage) loadDetail(ctx context.Context, runID string, seq int, st *domain.StepResult) error {
	qrows, err := s.db.QueryContext(ctx,
		`SELECT row_num, symbol, cmc_id, price FROM quotes WHERE run_id = ? AND seq = ? ORDER BY row_num`, runID, seq)
	if err != nil {
		return fmt.Errorf("storage.loadDetail: quotes: %w", err)
	}
	for qrows.Next() {
		var q domain.Quote
		if err := qrows.Scan(&q.Row, &q.Symbol, &q.CMCID, &q.Price); err != nil {
			qrows.Close()
			return fmt.Errorf("storage.loadDetail: scan quote: %w", err)
		}
		st.Quotes = append(st.Quotes, q)
	}
	qrows.Close()
	if err := qrows.Err(); err != nil {
		return fmt.Errorf("storage.loadDetail: quotes: %w", err)
	}

	trows, err := s.db.QueryContext(ctx,
		`SELECT row_num, symbol, COALESCE(slug, ''), COALESCE(kind, ''), tvl, found
		 FROM tvl_readings WHERE run_id = ? AND seq = ? ORDER BY row_num`, runID, seq)
	if err != nil {
		return fmt.Errorf("storage.loadDetail: tvl: %w", err)
	}
	for trows.Next() {
		var r domain.TVLReading
		var kind string
		var found int
		if err := trows.Scan(&r.Row, &r.Symbol, &r.Slug, &kind, &r.TVL, &found); err != nil {
			trows.Close()
			return fmt.Errorf("storage.loadDetail: scan tvl: %w", err)
		}
		r.Kind = domain.TVLKind(kind)
		r.Found = found == 1
		st.TVLs = append(st.TVLs, r)
	}
	trows.Close()
	if err := trows.Err(); err != nil {
		return fmt.Errorf("storage.loadDetail: tvl: %w", err)
	}

	brows, err := s.db.QueryContext(ctx,
		`SELECT start_row, end_row FROM blocks WHERE run_id = ? AND seq = ? ORDER BY start_row`, runID, seq)
	if err != nil {
		return fmt.Errorf("storage.loadDetail: blocks: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		var b domain.Block
		if err := brows.Scan(&b.Start, &b.End); err != nil {
			return fmt.Errorf("storage.loadDetail: scan block: %w", err)
		}
		st.Blocks = append(st.Blocks, b)
	}
	return brows.Err()
}

// pruneOld elimina ejecuciones antiguas para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := formatTime(time.Now().Add(-retentionRuns))
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
}

// Las fechas se guardan como texto de ancho fijo en UTC para que ordenen
// lexicográficamente.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
