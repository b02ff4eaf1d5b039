package scheduler

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
)

// hillClimbing: 每次迭代随机采样若干邻居，只有严格更优时才移动
type hillClimbing struct {
	problem   *Problem
	evaluator *Evaluator
	params    HillClimbingParameters
	rng       *rand.Rand

	current        *Chromosome
	currentMetrics Metrics
	currentScore   float64

	iteration     int
	noImprovement int
}

func newHillClimbing(ctx context.Context, problem *Problem, evaluator *Evaluator, params HillClimbingParameters, rng *rand.Rand) (*hillClimbing, error) {
	h := &hillClimbing{
		problem:   problem,
		evaluator: evaluator,
		params:    params,
		rng:       rng,
		current:   problem.RandomChromosome(rng),
	}

	metrics, err := evaluator.EvaluateAll(ctx, []*Chromosome{h.current})
	if err != nil {
		return nil, err
	}
	h.currentMetrics = metrics[0]
	h.currentScore = params.Weights.Score(metrics[0])

	return h, nil
}

// neighbor 复制当前解并随机扰动其中一个基因的一个字段
func (h *hillClimbing) neighbor() *Chromosome {
	ch := h.current.Clone()
	i := h.rng.Intn(len(ch.genes))
	h.problem.mutateField(h.rng, &ch.genes[i], h.rng.Intn(fieldCount))
	return ch
}

func (h *hillClimbing) Step(ctx context.Context) error {
	neighbors := make([]*Chromosome, max(h.params.Neighbors, 1))
	for i := range neighbors {
		neighbors[i] = h.neighbor()
	}

	metrics, err := h.evaluator.EvaluateAll(ctx, neighbors)
	if err != nil {
		return err
	}

	bestIdx, bestScore := -1, math.Inf(-1)
	for i, m := range metrics {
		if score := h.params.Weights.Score(m); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestScore > h.currentScore {
		h.current = neighbors[bestIdx]
		h.currentMetrics = metrics[bestIdx]
		h.currentScore = bestScore
		h.noImprovement = 0
		slog.Debug("爬山算法移动到更优的邻居", "iteration", h.iteration, "score", bestScore)
	} else {
		h.noImprovement++
	}
	h.iteration++

	return nil
}

func (h *hillClimbing) Done() bool {
	return h.iteration >= h.params.MaxIterations || h.noImprovement >= h.params.NoImprovementLimit
}

func (h *hillClimbing) Best() (*Chromosome, Metrics) {
	return h.current, h.currentMetrics
}

func (h *hillClimbing) Generation() int {
	return h.iteration
}
