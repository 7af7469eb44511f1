package solver

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oakfield/timetable-solver/internal/ilp"
	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// SolveRequest is the validated entry payload for one solve run.
type SolveRequest struct {
	SchoolID string `validate:"required"`
	Spec     models.SolutionSpecification
}

// Service orchestrates a full solve run: lock, snapshot, model, solve,
// apply. It is safe for concurrent use; runs for the same school are
// serialized by the locker.
type Service struct {
	loader   InputLoader
	driver   *Driver
	outcome  OutcomeWriter
	locker   SchoolLocker
	metrics  *Metrics
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(
	loader InputLoader,
	driver *Driver,
	outcome OutcomeWriter,
	locker SchoolLocker,
	metrics *Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		loader:   loader,
		driver:   driver,
		outcome:  outcome,
		locker:   locker,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}
}

// Solve produces and stores a timetable for one school.
//
// Infeasible and insufficient-data outcomes are results, not errors: the
// returned SolveResult carries the diagnostics and the school's stored
// timetable is untouched. An error return means the run could not be
// carried out at all.
func (s *Service) Solve(ctx context.Context, req SolveRequest) (*models.SolveResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve request")
	}

	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID), zap.String("school_id", req.SchoolID))

	release, err := s.locker.Acquire(ctx, req.SchoolID, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	result, variables, err := s.solveLocked(ctx, runID, req, log)

	status := string(models.SolveStatusEngineError)
	if result != nil {
		status = string(result.Status)
	}
	if err == nil && result != nil {
		log.Info("solve run finished",
			zap.String("status", status),
			zap.Duration("elapsed", time.Since(started)),
			zap.Int("lessons_assigned", result.LessonsAssigned),
			zap.Int("slots_assigned", result.SlotsAssigned),
		)
	} else {
		log.Error("solve run failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
	}
	s.metrics.ObserveRun(status, time.Since(started), variables)
	return result, err
}

func (s *Service) solveLocked(ctx context.Context, runID string, req SolveRequest, log *zap.Logger) (*models.SolveResult, int, error) {
	snap, err := s.loader.Load(ctx, req.SchoolID, req.Spec)
	if err != nil {
		return nil, 0, err
	}

	if len(snap.Problems) > 0 {
		log.Warn("input data cannot form a timetabling problem", zap.Strings("problems", snap.Problems))
		return &models.SolveResult{
			RunID:    runID,
			SchoolID: req.SchoolID,
			Status:   models.SolveStatusInsufficientData,
			Messages: snap.Problems,
		}, 0, nil
	}

	out, err := s.driver.Solve(ctx, snap)
	if err != nil {
		return nil, 0, err
	}

	switch out.Status {
	case ilp.StatusOptimal:
		lessons, err := s.outcome.Apply(ctx, req.SchoolID, out.Assignments)
		if err != nil {
			return nil, out.Variables, err
		}
		return &models.SolveResult{
			RunID:           runID,
			SchoolID:        req.SchoolID,
			Status:          models.SolveStatusOptimal,
			LessonsAssigned: lessons,
			SlotsAssigned:   len(out.Assignments),
		}, out.Variables, nil
	case ilp.StatusInfeasible:
		return &models.SolveResult{
			RunID:    runID,
			SchoolID: req.SchoolID,
			Status:   models.SolveStatusInfeasible,
			Messages: out.Diagnostics,
		}, out.Variables, nil
	default:
		return nil, out.Variables, appErrors.Clone(appErrors.ErrSolverEngine, "engine returned an unexpected status")
	}
}

// ClearSolution removes every solver-defined slot for the school without
// running the engine. The lock still applies so a clear never races an
// in-flight solve.
func (s *Service) ClearSolution(ctx context.Context, schoolID string) error {
	if schoolID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "schoolID is required")
	}
	runID := uuid.NewString()
	release, err := s.locker.Acquire(ctx, schoolID, runID)
	if err != nil {
		return err
	}
	defer release()
	return s.outcome.Clear(ctx, schoolID)
}
