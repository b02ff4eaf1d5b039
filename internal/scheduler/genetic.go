package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"slices"
)

// 轮盘赌要求适应度为正，没有配置下限时使用的最小值
const minRouletteFitness = 1e-6

// simpleGenetic: 轮盘赌选择 + 单点交叉 + 逐基因变异，并保留历史最优个体
type simpleGenetic struct {
	problem   *Problem
	evaluator *Evaluator
	params    GeneticParameters
	rng       *rand.Rand

	population []*Chromosome
	fitness    []float64
	generation int

	best        *Chromosome
	bestMetrics Metrics
	bestFitness float64
}

func newSimpleGenetic(ctx context.Context, problem *Problem, evaluator *Evaluator, params GeneticParameters, rng *rand.Rand) (*simpleGenetic, error) {
	s := &simpleGenetic{
		problem:   problem,
		evaluator: evaluator,
		params:    params,
		rng:       rng,
	}

	s.population = make([]*Chromosome, max(params.PopulationSize, 2))
	for i := range s.population {
		s.population[i] = problem.RandomChromosome(rng)
	}
	if err := s.evaluate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// calcFitness 把加权得分截断为正数，供轮盘赌使用
func (s *simpleGenetic) calcFitness(m Metrics) float64 {
	return max(s.params.Weights.Score(m), s.params.Weights.Floor, minRouletteFitness)
}

func (s *simpleGenetic) evaluate(ctx context.Context) error {
	metrics, err := s.evaluator.EvaluateAll(ctx, s.population)
	if err != nil {
		return err
	}

	improved := false
	s.fitness = make([]float64, len(s.population))
	for i, m := range metrics {
		s.fitness[i] = s.calcFitness(m)
		if s.best == nil || s.fitness[i] > s.bestFitness {
			s.best = s.population[i].Clone()
			s.bestMetrics = m
			s.bestFitness = s.fitness[i]
			improved = true
		}
	}
	if improved {
		slog.Info("简单遗传算法找到更优解", "generation", s.generation, "fitness", s.bestFitness)
	}

	return nil
}

func (s *simpleGenetic) Step(ctx context.Context) error {
	size := len(s.population)
	newPopulation := make([]*Chromosome, 0, size)

	for len(newPopulation) < size {
		// 选择出来的父代需要复制一份，避免交叉变异时影响到原个体
		ch1 := s.selectByRoulette().Clone()
		ch2 := s.selectByRoulette().Clone()

		if s.rng.Float64() < s.params.CrossoverRate {
			s.singlePointCrossover(ch1, ch2)
		}

		s.mutate(ch1)
		s.mutate(ch2)

		newPopulation = append(newPopulation, ch1)
		if len(newPopulation) < size {
			newPopulation = append(newPopulation, ch2)
		}
	}

	// 历史最优个体不在新种群中时，随机替换掉一个个体
	if !slices.ContainsFunc(newPopulation, s.best.Equal) {
		newPopulation[s.rng.Intn(size)] = s.best.Clone()
	}

	s.population = newPopulation
	s.generation++

	return s.evaluate(ctx)
}

func (s *simpleGenetic) Done() bool {
	return s.generation >= s.params.MaxGenerations
}

func (s *simpleGenetic) Best() (*Chromosome, Metrics) {
	return s.best, s.bestMetrics
}

func (s *simpleGenetic) Generation() int {
	return s.generation
}

// 使用轮盘赌来进行选择
func (s *simpleGenetic) selectByRoulette() *Chromosome {
	sumFit := 0.0
	for _, fit := range s.fitness {
		sumFit += fit
	}
	pick := s.rng.Float64() * sumFit
	partial := 0.0

	for i, fit := range s.fitness {
		partial += fit
		if partial >= pick {
			return s.population[i]
		}
	}

	// 理论上不会运行到这个地方
	return s.population[len(s.population)-1]
}

// 单点交叉，交换 point 之后的全部基因
func (s *simpleGenetic) singlePointCrossover(ch1 *Chromosome, ch2 *Chromosome) {
	length := len(ch1.genes)
	if length < 2 || length != len(ch2.genes) {
		return
	}

	point := 1 + s.rng.Intn(length-1)
	for i := point; i < length; i++ {
		ch1.genes[i], ch2.genes[i] = ch2.genes[i], ch1.genes[i]
	}
}

// 变异：每个基因以 MutationRate 的概率随机改变 day、slot 或教师中的一个
func (s *simpleGenetic) mutate(ch *Chromosome) {
	for i := range ch.genes {
		if s.rng.Float64() > s.params.MutationRate {
			continue
		}
		s.problem.mutateField(s.rng, &ch.genes[i], s.rng.Intn(fieldCount))
	}
}
