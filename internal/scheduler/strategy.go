package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

type StrategyName string

const (
	StrategyMOGA          StrategyName = "moga"
	StrategySimpleGenetic StrategyName = "simple-genetic"
	StrategyHillClimbing  StrategyName = "hill-climbing"
	StrategyAntColony     StrategyName = "ant-colony"
)

var Strategies = []StrategyName{
	StrategyMOGA,
	StrategySimpleGenetic,
	StrategyHillClimbing,
	StrategyAntColony,
}

var ErrUnknownStrategy = errors.New("未知的排课算法")

// Optimizer 是所有排课算法的统一接口，一次 Step 对应一代（或一次迭代）
type Optimizer interface {
	Step(ctx context.Context) error
	Done() bool
	Best() (*Chromosome, Metrics)
	Generation() int
}

func ParseStrategy(name string) (StrategyName, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
}

// Initialize 根据算法名称构造优化器，这是唯一按名称分派的地方
func Initialize(ctx context.Context, name StrategyName, problem *Problem, params *Parameters) (Optimizer, error) {
	if params == nil {
		params = DefaultParameters()
	}

	rng := newRand(params.Seed)
	evaluator := NewEvaluator(problem, params.Workers)

	switch name {
	case StrategyMOGA:
		return newMOGA(ctx, problem, evaluator, params.MOGA, rng)
	case StrategySimpleGenetic:
		return newSimpleGenetic(ctx, problem, evaluator, params.Genetic, rng)
	case StrategyHillClimbing:
		return newHillClimbing(ctx, problem, evaluator, params.HillClimbing, rng)
	case StrategyAntColony:
		return newAntColony(problem, evaluator, params.AntColony, rng), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}

type Result struct {
	Strategy    StrategyName
	Best        *Chromosome
	Metrics     Metrics
	Generations int
	Duration    time.Duration
	TimedOut    bool // 达到 ctx 的截止时间，返回的是截止前找到的最优解
}

// Run 运行优化器直到终止条件满足
// ctx 到达截止时间时，只要已经有最优解就提前结束并返回它；ctx 被取消时返回 ctx.Err()
func Run(ctx context.Context, name StrategyName, problem *Problem, params *Parameters) (*Result, error) {
	start := time.Now()

	optimizer, err := Initialize(ctx, name, problem, params)
	if err != nil {
		return nil, err
	}

	timedOut := false
	for !optimizer.Done() {
		err := ctx.Err()
		if err == nil {
			err = optimizer.Step(ctx)
		}
		if err == nil {
			continue
		}
		if best, _ := optimizer.Best(); best != nil && errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("排课算法达到运行时间上限，返回目前找到的最优解", "strategy", name, "generation", optimizer.Generation())
			timedOut = true
			break
		}
		return nil, err
	}

	best, metrics := optimizer.Best()
	result := &Result{
		Strategy:    name,
		Best:        best.Clone(),
		Metrics:     metrics,
		Generations: optimizer.Generation(),
		Duration:    time.Since(start),
		TimedOut:    timedOut,
	}

	slog.Info(
		"排课算法运行结束",
		slog.String("strategy", string(name)),
		slog.Int("generations", result.Generations),
		slog.Int("teacherConflicts", metrics.TeacherConflicts),
		slog.Int("sectionConflicts", metrics.SectionConflicts),
		slog.Float64("loadVariance", metrics.LoadVariance),
		slog.Int("suitability", metrics.Suitability),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
