package runner

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

type RunnerSuite struct {
	suite.Suite

	store    *memoryStore
	cache    *memoryCache
	notifier *recordingNotifier
	runner   *Runner
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Optimizer.Workers = 2
	cfg.Optimizer.Seed = 17
	cfg.Optimizer.RunTimeout = 60

	cfg.Optimizer.MOGA.PopulationSize = 30
	cfg.Optimizer.MOGA.MaxGenerations = 200
	cfg.Optimizer.MOGA.CrossoverRate = 0.8
	cfg.Optimizer.MOGA.MutationRate = 0.1
	cfg.Optimizer.MOGA.MinMutationRate = 0.02
	cfg.Optimizer.MOGA.ConflictMutationFactor = 3
	cfg.Optimizer.MOGA.EliteCount = 2
	cfg.Optimizer.MOGA.Weights = config.Weights{TeacherConflict: 50, SectionConflict: 50, LoadVariance: 2, Suitability: 1}

	cfg.Optimizer.HillClimbing.MaxIterations = 20
	cfg.Optimizer.HillClimbing.Neighbors = 10
	cfg.Optimizer.HillClimbing.NoImprovementLimit = 5
	cfg.Optimizer.HillClimbing.Weights = config.Weights{TeacherConflict: 10, SectionConflict: 10, LoadVariance: 2, Suitability: 1}
	return cfg
}

func (s *RunnerSuite) SetupTest() {
	s.store = &memoryStore{
		teachers: []*domain.Teacher{
			{ID: 1, Name: "王老师", SubjectIDs: []int64{1}},
			{ID: 2, Name: "李老师", SubjectIDs: []int64{2}},
		},
		sections: []*domain.Section{{ID: 1, Name: "一班"}, {ID: 2, Name: "二班"}},
		subjects: []*domain.Subject{{ID: 1, Name: "语文", Code: "YW"}, {ID: 2, Name: "数学", Code: "SX"}},
	}
	s.cache = &memoryCache{}
	s.notifier = &recordingNotifier{}

	r, err := New(testConfig(), s.store, s.cache, s.notifier)
	s.Require().NoError(err)
	s.runner = r
}

func (s *RunnerSuite) TestRunOptimizationPersistsWinner() {
	result, err := s.runner.RunOptimization(context.Background(), scheduler.StrategyMOGA, Options{})
	s.Require().NoError(err)

	s.Equal(string(scheduler.StrategyMOGA), result.Strategy)
	s.NotEmpty(result.RunID)
	s.Equal(4, result.InsertedCount)
	s.Zero(result.Metrics.TeacherConflicts)
	s.Zero(result.Metrics.SectionConflicts)
	s.Equal(4, result.Metrics.Suitability)
	s.GreaterOrEqual(result.ExecutionTimeSeconds, 0.0)
	s.Len(s.store.rows(), 4)

	s.Same(result, s.cache.results[result.Strategy])
	s.Require().Len(s.notifier.reports, 1)
	s.Same(result, s.notifier.reports[0])
	s.Empty(s.cache.holder)
}

func (s *RunnerSuite) TestRunOptimizationClearExisting() {
	_, err := s.runner.RunOptimization(context.Background(), scheduler.StrategyHillClimbing, Options{})
	s.Require().NoError(err)
	s.Len(s.store.rows(), 4)

	result, err := s.runner.RunOptimization(context.Background(), scheduler.StrategyMOGA, Options{ClearExisting: true})
	s.Require().NoError(err)
	s.Equal(4, result.InsertedCount)
	s.Len(s.store.rows(), 4)
}

func (s *RunnerSuite) TestRunOptimizationTimeoutPersistsBest() {
	cfg := testConfig()
	cfg.Optimizer.RunTimeout = 1
	cfg.Optimizer.HillClimbing.MaxIterations = math.MaxInt
	cfg.Optimizer.HillClimbing.NoImprovementLimit = math.MaxInt

	r, err := New(cfg, s.store, s.cache, s.notifier)
	s.Require().NoError(err)

	result, err := r.RunOptimization(context.Background(), scheduler.StrategyHillClimbing, Options{})
	s.Require().NoError(err)

	s.True(result.TimedOut)
	s.Equal(4, result.InsertedCount)
	s.Len(s.store.rows(), 4)
	s.Empty(s.cache.holder)
}

func (s *RunnerSuite) TestRunOptimizationLocked() {
	s.cache.holder = "another-run"

	_, err := s.runner.RunOptimization(context.Background(), scheduler.StrategyMOGA, Options{})
	s.ErrorIs(err, ErrRunInProgress)
	s.Equal("another-run", s.cache.holder)
	s.Empty(s.store.rows())
}

func (s *RunnerSuite) TestRunOptimizationUnknownStrategy() {
	_, err := s.runner.RunOptimization(context.Background(), "tabu-search", Options{})
	s.ErrorIs(err, scheduler.ErrUnknownStrategy)
	s.Empty(s.cache.holder)
	s.Empty(s.notifier.reports)
}

func (s *RunnerSuite) TestRunOptimizationConfigurationError() {
	s.store.sections = nil

	_, err := s.runner.RunOptimization(context.Background(), scheduler.StrategyMOGA, Options{})
	var cfgErr *scheduler.ConfigurationError
	s.ErrorAs(err, &cfgErr)
}

func (s *RunnerSuite) TestRunOptimizationPersistenceFailure() {
	s.store.failInsertAfter = 2

	_, err := s.runner.RunOptimization(context.Background(), scheduler.StrategyMOGA, Options{})
	var persistErr *PersistenceError
	s.ErrorAs(err, &persistErr)
	s.Empty(s.store.rows())
	s.Empty(s.notifier.reports)
	s.Empty(s.cache.results)
}

func (s *RunnerSuite) TestRunOptimizationCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.runner.RunOptimization(ctx, scheduler.StrategyMOGA, Options{})
	s.ErrorIs(err, context.Canceled)
	s.Empty(s.store.rows())
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func TestParametersFromConfig(t *testing.T) {
	params := ParametersFromConfig(testConfig())

	assert.Equal(t, 2, params.Workers)
	assert.Equal(t, int64(17), params.Seed)
	assert.Equal(t, 30, params.MOGA.PopulationSize)
	assert.Equal(t, 50.0, params.MOGA.Weights.TeacherConflict)
	assert.Equal(t, 10, params.HillClimbing.Neighbors)
}
