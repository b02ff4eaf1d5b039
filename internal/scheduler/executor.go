package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Evaluator 把种群切分成若干块，交给有上限的协程池并行评估
type Evaluator struct {
	problem *Problem
	workers int
}

func NewEvaluator(problem *Problem, workers int) *Evaluator {
	return &Evaluator{
		problem: problem,
		workers: max(workers, 1),
	}
}

// EvaluateAll 返回的第 i 个结果总是对应 population[i]，与协程的完成顺序无关
func (e *Evaluator) EvaluateAll(ctx context.Context, population []*Chromosome) ([]Metrics, error) {
	results := make([]Metrics, len(population))
	if len(population) == 0 {
		return results, nil
	}

	workers := min(e.workers, len(population))
	chunk := (len(population) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(population); lo += chunk {
		hi := min(lo+chunk, len(population))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = e.problem.Evaluate(population[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
