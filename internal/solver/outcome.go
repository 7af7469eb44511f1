package solver

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// SolutionWriter persists solver-defined slot assignments.
type SolutionWriter interface {
	ClearSolverSlots(ctx context.Context, e sqlx.ExtContext, schoolID string) error
	InsertSolverSlots(ctx context.Context, e sqlx.ExtContext, assignments []models.SolvedAssignment) error
}

// OutcomeWriter applies or removes a solved timetable for a school.
type OutcomeWriter interface {
	Apply(ctx context.Context, schoolID string, assignments []models.SolvedAssignment) (int, error)
	Clear(ctx context.Context, schoolID string) error
}

type outcomeTxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// SQLOutcomeWriter replaces a school's solver-defined slots inside one
// transaction. User-defined slots are never touched, and re-applying the
// same solution is a no-op from the reader's point of view.
type SQLOutcomeWriter struct {
	db     outcomeTxBeginner
	writer SolutionWriter
	logger *zap.Logger
}

func NewSQLOutcomeWriter(db *sqlx.DB, writer SolutionWriter, logger *zap.Logger) *SQLOutcomeWriter {
	return &SQLOutcomeWriter{db: db, writer: writer, logger: logger}
}

// Apply atomically swaps in the new solution and returns the number of
// distinct lessons that received at least one slot.
func (w *SQLOutcomeWriter) Apply(ctx context.Context, schoolID string, assignments []models.SolvedAssignment) (int, error) {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open solution transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := w.writer.ClearSolverSlots(ctx, tx, schoolID); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous solution")
	}
	if err := w.writer.InsertSolverSlots(ctx, tx, assignments); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store solution")
	}
	if err := tx.Commit(); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit solution")
	}

	lessons := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		lessons[a.LessonID] = struct{}{}
	}
	w.logger.Info("solution applied",
		zap.String("school_id", schoolID),
		zap.Int("lessons", len(lessons)),
		zap.Int("slots", len(assignments)),
	)
	return len(lessons), nil
}

// Clear removes every solver-defined slot for the school, reverting the
// timetable to its user-defined state.
func (w *SQLOutcomeWriter) Clear(ctx context.Context, schoolID string) error {
	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open solution transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := w.writer.ClearSolverSlots(ctx, tx, schoolID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear solution")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit clear")
	}
	w.logger.Info("solution cleared", zap.String("school_id", schoolID))
	return nil
}
