package scheduler

import (
	"context"
	"log/slog"
	"math"
	"math/rand"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

/**
 * antColony: 每个排课需求都有一张 (day, slot, teacher) 候选表，每个候选都有一个信息素
 * 蚂蚁按随机顺序处理排课需求，选择概率正比于 pheromone^Alpha * heuristic^Beta
 * 一轮结束后先整体挥发，再由每只蚂蚁按自己的得分沉积信息素
 */
type antColony struct {
	problem   *Problem
	evaluator *Evaluator
	params    AntColonyParameters
	rng       *rand.Rand

	requirements []Requirement
	pheromone    [][]float64
	iteration    int

	best        *Chromosome
	bestMetrics Metrics
	bestScore   float64
}

func newAntColony(problem *Problem, evaluator *Evaluator, params AntColonyParameters, rng *rand.Rand) *antColony {
	a := &antColony{
		problem:      problem,
		evaluator:    evaluator,
		params:       params,
		rng:          rng,
		requirements: problem.requirements,
	}

	a.pheromone = make([][]float64, len(a.requirements))
	for r, req := range a.requirements {
		a.pheromone[r] = make([]float64, a.candidateCount(req))
		for c := range a.pheromone[r] {
			a.pheromone[r][c] = params.InitialPheromone
		}
	}

	return a
}

func (a *antColony) candidateCount(req Requirement) int {
	return len(domain.WeekDays) * len(domain.TimeSlots) * len(a.problem.eligibleOf(req.SubjectID))
}

// decode 把候选下标还原为 (day, slot, teacher)
func (a *antColony) decode(req Requirement, c int) (int32, int, int64) {
	teachers := a.problem.eligibleOf(req.SubjectID)
	teacherID := teachers[c%len(teachers)]
	rest := c / len(teachers)
	return domain.WeekDays[rest/len(domain.TimeSlots)], rest % len(domain.TimeSlots), teacherID
}

// construct 由一只蚂蚁构造一个完整的课表，同时返回每个需求所选的候选下标
func (a *antColony) construct() (*Chromosome, []int) {
	genes := make([]Gene, len(a.requirements))
	choices := make([]int, len(a.requirements))

	teacherBusy := make(map[slotKey]bool)
	sectionBusy := make(map[slotKey]bool)
	loads := make(map[int64]int)

	var weights []float64
	for _, r := range a.rng.Perm(len(a.requirements)) {
		req := a.requirements[r]

		weights = weights[:0]
		total := 0.0
		for c, tau := range a.pheromone[r] {
			day, slot, teacherID := a.decode(req, c)

			eta := 1.0
			if teacherBusy[slotKey{teacherID, day, slot}] || sectionBusy[slotKey{req.SectionID, day, slot}] {
				eta = a.params.ConflictHeuristic
			}
			if a.problem.isQualified(req.SubjectID, teacherID) {
				eta *= 2
			}
			eta *= 1 + 0.1/float64(loads[teacherID]+1)

			w := math.Pow(tau, a.params.Alpha) * math.Pow(eta, a.params.Beta)
			weights = append(weights, w)
			total += w
		}

		c := a.pick(weights, total)
		day, slot, teacherID := a.decode(req, c)

		choices[r] = c
		genes[r] = Gene{
			SectionID: req.SectionID,
			SubjectID: req.SubjectID,
			Day:       day,
			Slot:      slot,
			TeacherID: teacherID,
		}
		teacherBusy[slotKey{teacherID, day, slot}] = true
		sectionBusy[slotKey{req.SectionID, day, slot}] = true
		loads[teacherID]++
	}

	return &Chromosome{genes: genes}, choices
}

// pick 按权重随机选择，权重全部为 0 时均匀选择
func (a *antColony) pick(weights []float64, total float64) int {
	if !(total > 0) || math.IsInf(total, 1) {
		return a.rng.Intn(len(weights))
	}

	target := a.rng.Float64() * total
	partial := 0.0
	for i, w := range weights {
		partial += w
		if partial >= target {
			return i
		}
	}
	return len(weights) - 1
}

func (a *antColony) Step(ctx context.Context) error {
	ants := make([]*Chromosome, max(a.params.Ants, 1))
	choices := make([][]int, len(ants))
	for i := range ants {
		ants[i], choices[i] = a.construct()
	}

	metrics, err := a.evaluator.EvaluateAll(ctx, ants)
	if err != nil {
		return err
	}

	improved := false
	scores := make([]float64, len(ants))
	for i, m := range metrics {
		scores[i] = a.params.Weights.Score(m)
		if a.best == nil || scores[i] > a.bestScore {
			a.best = ants[i]
			a.bestMetrics = m
			a.bestScore = scores[i]
			improved = true
		}
	}
	if improved {
		slog.Info("蚁群算法找到更优解", "iteration", a.iteration, "score", a.bestScore)
	}

	// 信息素挥发
	for r := range a.pheromone {
		for c := range a.pheromone[r] {
			a.pheromone[r][c] *= 1 - a.params.EvaporationRate
		}
	}

	// 信息素沉积
	for i, chosen := range choices {
		deposit := max(a.params.Deposit*scores[i], 0)
		for r, c := range chosen {
			a.pheromone[r][c] += deposit
		}
	}

	a.iteration++
	return nil
}

func (a *antColony) Done() bool {
	return a.best != nil && a.iteration >= a.params.MaxIterations
}

func (a *antColony) Best() (*Chromosome, Metrics) {
	return a.best, a.bestMetrics
}

func (a *antColony) Generation() int {
	return a.iteration
}
