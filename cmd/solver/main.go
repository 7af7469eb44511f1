package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/oakfield/timetable-solver/internal/ilp"
	"github.com/oakfield/timetable-solver/internal/models"
	"github.com/oakfield/timetable-solver/internal/repository"
	"github.com/oakfield/timetable-solver/internal/solver"
	"github.com/oakfield/timetable-solver/pkg/cache"
	"github.com/oakfield/timetable-solver/pkg/config"
	"github.com/oakfield/timetable-solver/pkg/database"
	"github.com/oakfield/timetable-solver/pkg/logger"
)

func main() {
	var (
		schoolID    = flag.String("school", "", "school identifier to solve for")
		clear       = flag.Bool("clear", false, "remove the stored solution instead of solving")
		allowSplits = flag.Bool("allow-splits", false, "permit a lesson to be split across one day")
		allowTriple = flag.Bool("allow-triples", false, "permit three or more consecutive slots per lesson")
		freePeriod  = flag.String("free-period", "", "preferred free period time of day, HH:MM (optional)")
		metricsAddr = flag.String("metrics-addr", "", "address to expose Prometheus metrics on (optional)")
	)
	flag.Parse()

	if *schoolID == "" {
		log.Fatal("-school is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var locker solver.SchoolLocker = solver.NewLocalSchoolLocker()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = solver.NewRedisSchoolLocker(redisClient, cfg.Solver.LockTTL)
	}

	lessons := repository.NewLessonRepository()
	loader := solver.NewSQLInputLoader(db,
		lessons,
		repository.NewSlotRepository(),
		repository.NewBreakRepository(),
		repository.NewRosterRepository(),
	)
	driver := solver.NewDriver(ilp.NewGophersatEngine(), cfg.Solver.TimeBudget, cfg.Solver.MaxObjectiveHM, logr)
	outcome := solver.NewSQLOutcomeWriter(db, lessons, logr)
	metrics := solver.NewMetrics()
	svc := solver.NewService(loader, driver, outcome, locker, metrics, logr)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logr.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *clear {
		if err := svc.ClearSolution(ctx, *schoolID); err != nil {
			logr.Fatal("failed to clear solution", zap.Error(err))
		}
		logr.Info("solution cleared", zap.String("school_id", *schoolID))
		return
	}

	spec := models.SolutionSpecification{
		AllowSplitLessonsWithinEachDay: *allowSplits,
		AllowTriplePeriodsAndAbove:     *allowTriple,
	}
	if *freePeriod != "" {
		t, err := models.ParseTimeOfDay(*freePeriod)
		if err != nil {
			logr.Fatal("invalid -free-period", zap.Error(err))
		}
		spec.OptimalFreePeriodTimeOfDay = &t
	}

	result, err := svc.Solve(ctx, solver.SolveRequest{SchoolID: *schoolID, Spec: spec})
	if err != nil {
		logr.Fatal("solve failed", zap.Error(err))
	}

	logr.Info("solve complete",
		zap.String("run_id", result.RunID),
		zap.String("status", string(result.Status)),
		zap.Int("lessons_assigned", result.LessonsAssigned),
		zap.Int("slots_assigned", result.SlotsAssigned),
		zap.Strings("messages", result.Messages),
	)
}
