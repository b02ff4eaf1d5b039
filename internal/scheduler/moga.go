package scheduler

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"time"
)

/**
 * moga: 基于 Pareto 支配关系的多目标遗传算法
 * 每一代：
 * 		1. 按 (前沿序号, 拥挤距离) 保留 EliteCount 个精英，原样进入下一代
 * 		2. 二元锦标赛选出父代，两点交叉后做冲突感知的自适应变异，得到子代
 * 		3. 在 (非精英父代 + 子代) 中按前沿和拥挤距离选出剩下的个体
 * 汇报的结果是第一前沿中加权得分最高的个体，并在各代之间保留历史最优
 */
type moga struct {
	problem   *Problem
	evaluator *Evaluator
	params    MOGAParameters
	rng       *rand.Rand

	population []*Chromosome
	metrics    []Metrics
	objectives []Objectives
	rank       []int
	crowding   []float64

	generation int
	startedAt  time.Time

	best        *Chromosome
	bestMetrics Metrics
	bestScore   float64

	minConflicts int
	stagnation   int
}

func newMOGA(ctx context.Context, problem *Problem, evaluator *Evaluator, params MOGAParameters, rng *rand.Rand) (*moga, error) {
	params.PopulationSize = max(params.PopulationSize, 2)
	params.EliteCount = min(max(params.EliteCount, 0), params.PopulationSize-1)

	m := &moga{
		problem:   problem,
		evaluator: evaluator,
		params:    params,
		rng:       rng,
		startedAt: time.Now(),
	}

	m.population = make([]*Chromosome, params.PopulationSize)
	for i := range m.population {
		m.population[i] = problem.RandomChromosome(rng)
	}

	metrics, err := evaluator.EvaluateAll(ctx, m.population)
	if err != nil {
		return nil, err
	}
	m.setMetrics(metrics)
	m.minConflicts = m.populationMinConflicts()
	m.updateBest()

	return m, nil
}

func (m *moga) setMetrics(metrics []Metrics) {
	m.metrics = metrics
	m.objectives = make([]Objectives, len(metrics))
	for i, metric := range metrics {
		m.objectives[i] = metric.Objectives()
	}
	_, m.rank, m.crowding = rankAndCrowding(m.objectives)
}

func (m *moga) populationMinConflicts() int {
	minConflicts := math.MaxInt
	for _, metric := range m.metrics {
		minConflicts = min(minConflicts, metric.Conflicts())
	}
	return minConflicts
}

// preferred 判断候选是否优于当前的汇报结果：冲突总数少的优先，冲突数相同时比较加权得分
func (m *moga) preferred(metrics Metrics, score float64) bool {
	if m.best == nil {
		return true
	}
	if c, bc := metrics.Conflicts(), m.bestMetrics.Conflicts(); c != bc {
		return c < bc
	}
	return score > m.bestScore
}

// updateBest 从第一前沿中挑出汇报结果，优于历史最优时替换
// 第一前沿中只要存在无冲突的个体，汇报结果就一定没有冲突
func (m *moga) updateBest() {
	improved := false
	for i := range m.population {
		if m.rank[i] != 0 {
			continue
		}
		score := m.params.Weights.Score(m.metrics[i])
		if m.preferred(m.metrics[i], score) {
			m.best = m.population[i].Clone()
			m.bestMetrics = m.metrics[i]
			m.bestScore = score
			improved = true
		}
	}

	if improved {
		slog.Info(
			"多目标遗传算法找到更优解",
			slog.Int("generation", m.generation),
			slog.Int("teacherConflicts", m.bestMetrics.TeacherConflicts),
			slog.Int("sectionConflicts", m.bestMetrics.SectionConflicts),
			slog.Float64("score", m.bestScore),
		)
	}
}

// better 比较两个个体：前沿序号小的更优，同一前沿中拥挤距离大的更优
func (m *moga) better(i, j int) bool {
	if m.rank[i] != m.rank[j] {
		return m.rank[i] < m.rank[j]
	}
	return m.crowding[i] > m.crowding[j]
}

// 二元锦标赛选择
func (m *moga) tournament() *Chromosome {
	i := m.rng.Intn(len(m.population))
	j := m.rng.Intn(len(m.population))
	if m.better(j, i) {
		return m.population[j]
	}
	return m.population[i]
}

func (m *moga) elites() []int {
	order := make([]int, len(m.population))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(m.rank[a], m.rank[b]); c != 0 {
			return c
		}
		return cmp.Compare(m.crowding[b], m.crowding[a])
	})
	return order[:m.params.EliteCount]
}

// 两点交叉：随机取两个切点，交换中间的基因片段，父代本身不受影响
func (m *moga) crossover(p1, p2 *Chromosome) (*Chromosome, *Chromosome) {
	c1, c2 := p1.Clone(), p2.Clone()

	length := len(c1.genes)
	if length < 2 || m.rng.Float64() >= m.params.CrossoverRate {
		return c1, c2
	}

	lo, hi := m.rng.Intn(length+1), m.rng.Intn(length+1)
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := lo; i < hi; i++ {
		c1.genes[i], c2.genes[i] = c2.genes[i], c1.genes[i]
	}

	return c1, c2
}

// mutationRate 随代数线性衰减，但不低于 MinMutationRate
func (m *moga) mutationRate() float64 {
	rate := m.params.MutationRate
	if m.params.MaxGenerations > 0 {
		rate *= 1 - float64(m.generation)/float64(m.params.MaxGenerations)
	}
	return max(rate, m.params.MinMutationRate)
}

/**
 * 冲突感知的变异
 * 参与冲突的基因以 ConflictMutationFactor 倍的概率变异：
 * 		教师冲突时换一位合格教师，班级冲突时换一个 day 或 slot
 * 没有冲突的基因以基础概率随机改变某一个字段
 */
func (m *moga) mutate(ch *Chromosome, rate float64) {
	teacherConflict, sectionConflict := m.problem.conflictFlags(ch)
	conflictRate := min(rate*m.params.ConflictMutationFactor, 1)

	for i := range ch.genes {
		gene := &ch.genes[i]
		switch {
		case teacherConflict[i]:
			if m.rng.Float64() >= conflictRate {
				continue
			}
			if len(m.problem.eligibleOf(gene.SubjectID)) > 1 {
				m.problem.mutateField(m.rng, gene, fieldTeacher)
			} else {
				m.problem.mutateField(m.rng, gene, m.rng.Intn(fieldTeacher))
			}
		case sectionConflict[i]:
			if m.rng.Float64() >= conflictRate {
				continue
			}
			m.problem.mutateField(m.rng, gene, m.rng.Intn(fieldTeacher))
		default:
			if m.rng.Float64() >= rate {
				continue
			}
			m.problem.mutateField(m.rng, gene, m.rng.Intn(fieldCount))
		}
	}
}

func (m *moga) Step(ctx context.Context) error {
	size := len(m.population)
	rate := m.mutationRate()

	eliteIdx := m.elites()
	isElite := make([]bool, size)
	for _, i := range eliteIdx {
		isElite[i] = true
	}

	offspring := make([]*Chromosome, 0, size-len(eliteIdx))
	for len(offspring) < size-len(eliteIdx) {
		c1, c2 := m.crossover(m.tournament(), m.tournament())
		m.mutate(c1, rate)
		m.mutate(c2, rate)

		offspring = append(offspring, c1)
		if len(offspring) < size-len(eliteIdx) {
			offspring = append(offspring, c2)
		}
	}

	offspringMetrics, err := m.evaluator.EvaluateAll(ctx, offspring)
	if err != nil {
		return err
	}

	// 候选池：非精英的父代 + 子代
	pool := make([]*Chromosome, 0, 2*len(offspring))
	poolMetrics := make([]Metrics, 0, 2*len(offspring))
	for i := range m.population {
		if !isElite[i] {
			pool = append(pool, m.population[i])
			poolMetrics = append(poolMetrics, m.metrics[i])
		}
	}
	pool = append(pool, offspring...)
	poolMetrics = append(poolMetrics, offspringMetrics...)

	poolObjectives := make([]Objectives, len(poolMetrics))
	for i, metric := range poolMetrics {
		poolObjectives[i] = metric.Objectives()
	}

	next := make([]*Chromosome, 0, size)
	nextMetrics := make([]Metrics, 0, size)
	for _, i := range eliteIdx {
		next = append(next, m.population[i])
		nextMetrics = append(nextMetrics, m.metrics[i])
	}
	for _, i := range selectByFronts(poolObjectives, size-len(eliteIdx)) {
		next = append(next, pool[i])
		nextMetrics = append(nextMetrics, poolMetrics[i])
	}

	m.population = next
	m.setMetrics(nextMetrics)
	m.generation++
	m.updateBest()

	if conflicts := m.populationMinConflicts(); conflicts < m.minConflicts {
		m.minConflicts = conflicts
		m.stagnation = 0
	} else {
		m.stagnation++
	}

	slog.Debug(
		"多目标遗传算法完成一代",
		slog.Int("generation", m.generation),
		slog.Int("minConflicts", m.minConflicts),
		slog.Float64("mutationRate", rate),
	)

	return nil
}

func (m *moga) Done() bool {
	switch {
	case m.bestMetrics.Conflicts() == 0:
		return true
	case m.params.StagnationLimit > 0 && m.stagnation >= m.params.StagnationLimit:
		slog.Info("多目标遗传算法冲突数长时间没有下降，提前结束", "generation", m.generation)
		return true
	case m.params.TimeLimit > 0 && time.Since(m.startedAt) >= m.params.TimeLimit:
		slog.Info("多目标遗传算法达到运行时间上限", "generation", m.generation)
		return true
	default:
		return m.generation >= m.params.MaxGenerations
	}
}

func (m *moga) Best() (*Chromosome, Metrics) {
	return m.best, m.bestMetrics
}

func (m *moga) Generation() int {
	return m.generation
}
