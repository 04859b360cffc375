package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/content-worker/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS content_executions (
		id           uuid PRIMARY KEY,
		work_id      bigint      NOT NULL,
		status       text        NOT NULL,
		disposition  text        NOT NULL,
		error        text,
		steps        jsonb       NOT NULL DEFAULT '[]',
		is_test      boolean     NOT NULL DEFAULT false,
		finished_at  timestamptz NOT NULL
	);
	CREATE INDEX IF NOT EXISTS content_executions_work_id_idx ON content_executions (work_id);
`

// execer — часть pgxpool.Pool, которая нужна репозиторию.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ExecutionRepo — архив выполнений пайплайна.
type ExecutionRepo struct {
	db execer
}

// NewExecutionRepo создаёт новый ExecutionRepo. Подходит *pgxpool.Pool.
func NewExecutionRepo(db execer) *ExecutionRepo {
	return &ExecutionRepo{db: db}
}

// EnsureSchema создаёт таблицу архива, если её нет.
func (r *ExecutionRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save сохраняет выполнение. Повторное сохранение того же ID обновляет запись.
//
// Сообщения, которые не дошли до пайплайна, не имеют execution ID;
// для них генерируется новый.
func (r *ExecutionRepo) Save(ctx context.Context, exec *domain.Execution) error {
	if exec == nil {
		return ErrNilExecution
	}

	id, err := executionID(exec.ID)
	if err != nil {
		return err
	}

	steps := exec.Steps
	if steps == nil {
		steps = []domain.StepRecord{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO content_executions (id, work_id, status, disposition, error, steps, is_test, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    disposition = EXCLUDED.disposition,
		    error = EXCLUDED.error,
		    steps = EXCLUDED.steps,
		    finished_at = EXCLUDED.finished_at
	`
	_, err = r.db.Exec(ctx, query,
		id,
		exec.WorkID,
		exec.Status.String(),
		exec.Disposition.String(),
		nullString(exec.Error),
		stepsJSON,
		exec.IsTest,
		exec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// --- Helpers ---

func executionID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse execution id: %w", err)
	}
	return id, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
