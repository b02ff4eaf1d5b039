package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/sysu-ecnc-dev/timetable/backend/internal/runner"

var ErrRunInProgress = errors.New("已有排课任务正在运行")

// Store 提供排课所需的基础数据，并负责保存课表
type Store interface {
	GetAllTeachers() ([]*domain.Teacher, error)
	GetAllSections() ([]*domain.Section, error)
	GetAllSubjects() ([]*domain.Subject, error)
	ScheduleStore
}

// ResultCache 负责排课锁以及最近一次排课结果的缓存
type ResultCache interface {
	AcquireRunLock(ctx context.Context, runID string) (bool, error)
	ReleaseRunLock(ctx context.Context, runID string) error
	SaveLastResult(ctx context.Context, result *domain.OptimizationResult) error
}

// Notifier 在排课完成之后发送报告
type Notifier interface {
	NotifyOptimizationReport(ctx context.Context, result *domain.OptimizationResult) error
}

type Options struct {
	ClearExisting bool
}

type Runner struct {
	config   *config.Config
	store    Store
	cache    ResultCache
	notifier Notifier
	params   *scheduler.Parameters

	runs     metric.Int64Counter
	duration metric.Float64Histogram
	inserted metric.Int64Counter
}

func New(cfg *config.Config, store Store, cache ResultCache, notifier Notifier) (*Runner, error) {
	meter := otel.Meter(meterName)

	runs, err := meter.Int64Counter(
		"timetable.optimization.runs",
		metric.WithDescription("排课任务的运行次数"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"timetable.optimization.duration",
		metric.WithDescription("排课任务的运行时间"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	inserted, err := meter.Int64Counter(
		"timetable.schedules.inserted",
		metric.WithDescription("排课任务新插入的课表条数"),
	)
	if err != nil {
		return nil, err
	}

	return &Runner{
		config:   cfg,
		store:    store,
		cache:    cache,
		notifier: notifier,
		params:   ParametersFromConfig(cfg),
		runs:     runs,
		duration: duration,
		inserted: inserted,
	}, nil
}

/**
 * RunOptimization 完成一次完整的排课：
 * 获取排课锁 -> 读取基础数据 -> 运行算法 -> 校验 -> 在一个事务中保存 -> 缓存结果 -> 发送报告
 * 算法结果中仍然存在冲突并不是错误，调用方需要检查返回的 Metrics
 */
func (r *Runner) RunOptimization(ctx context.Context, strategy scheduler.StrategyName, opts Options) (*domain.OptimizationResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := slog.With(slog.String("runID", runID), slog.String("strategy", string(strategy)))

	acquired, err := r.cache.AcquireRunLock(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("无法获取排课锁: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := r.cache.ReleaseRunLock(context.WithoutCancel(ctx), runID); err != nil {
			logger.Error("无法释放排课锁", "error", err)
		}
	}()

	logger.Info("开始排课", "clearExisting", opts.ClearExisting)

	result, err := r.run(ctx, logger, runID, strategy, opts, start)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("strategy", string(strategy)),
		attribute.String("outcome", outcome),
	)
	r.runs.Add(ctx, 1, attrs)
	r.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		logger.Error("排课失败", "error", err)
		return nil, err
	}
	r.inserted.Add(ctx, int64(result.InsertedCount), attrs)

	if err := r.cache.SaveLastResult(ctx, result); err != nil {
		logger.Error("无法缓存排课结果", "error", err)
	}
	if err := r.notifier.NotifyOptimizationReport(ctx, result); err != nil {
		logger.Error("无法发送排课报告", "error", err)
	}

	return result, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, runID string, strategy scheduler.StrategyName, opts Options, start time.Time) (*domain.OptimizationResult, error) {
	teachers, err := r.store.GetAllTeachers()
	if err != nil {
		return nil, fmt.Errorf("无法读取教师信息: %w", err)
	}
	sections, err := r.store.GetAllSections()
	if err != nil {
		return nil, fmt.Errorf("无法读取班级信息: %w", err)
	}
	subjects, err := r.store.GetAllSubjects()
	if err != nil {
		return nil, fmt.Errorf("无法读取科目信息: %w", err)
	}

	problem, err := scheduler.NewProblem(teachers, sections, subjects)
	if err != nil {
		return nil, err
	}
	logger.Info("排课数据已加载", "teachers", len(teachers), "sections", len(sections), "subjects", len(subjects), "requirements", len(problem.Requirements()))

	runCtx := ctx
	if r.config.Optimizer.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(r.config.Optimizer.RunTimeout)*time.Second)
		defer cancel()
	}

	res, err := scheduler.Run(runCtx, strategy, problem, r.params)
	if err != nil {
		return nil, err
	}

	schedules := res.Best.Schedules()
	if err := utils.ValidateSchedules(schedules); err != nil {
		return nil, fmt.Errorf("排课结果校验失败: %w", err)
	}

	insertedCount, err := Materialize(r.store, schedules, opts.ClearExisting)
	if err != nil {
		return nil, err
	}

	result := &domain.OptimizationResult{
		RunID:                runID,
		Strategy:             string(strategy),
		InsertedCount:        insertedCount,
		Metrics:              res.Metrics.ToDomain(),
		Generations:          res.Generations,
		TimedOut:             res.TimedOut,
		ExecutionTimeSeconds: time.Since(start).Seconds(),
		FinishedAt:           time.Now(),
	}

	logger.Info(
		"排课结果已保存",
		slog.Int("inserted", insertedCount),
		slog.Int("teacherConflicts", result.Metrics.TeacherConflicts),
		slog.Int("sectionConflicts", result.Metrics.SectionConflicts),
		slog.Float64("executionTimeSeconds", result.ExecutionTimeSeconds),
	)

	return result, nil
}
