package scheduler

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// Gene: 表示对某个 (section, subject) 的排课决策
type Gene struct {
	SectionID int64
	SubjectID int64
	Day       int32 // 1~5，对应 domain.WeekDays
	Slot      int   // domain.TimeSlots 的下标
	TeacherID int64
}

// Chromosome: 整张课表，第 i 个基因总是对应第 i 个排课需求
// 基因以值的形式保存，Clone 之后两个染色体之间不会共享任何基因
type Chromosome struct {
	genes []Gene
}

func (ch *Chromosome) Len() int {
	return len(ch.genes)
}

// Genes 返回基因的副本
func (ch *Chromosome) Genes() []Gene {
	return slices.Clone(ch.genes)
}

func (ch *Chromosome) Clone() *Chromosome {
	return &Chromosome{genes: slices.Clone(ch.genes)}
}

func (ch *Chromosome) Equal(other *Chromosome) bool {
	return other != nil && slices.Equal(ch.genes, other.genes)
}

// Schedules 将染色体逐个基因地转换为课表记录
func (ch *Chromosome) Schedules() []*domain.Schedule {
	schedules := make([]*domain.Schedule, 0, len(ch.genes))
	for _, gene := range ch.genes {
		schedules = append(schedules, &domain.Schedule{
			Day:       gene.Day,
			TimeSlot:  domain.TimeSlots[gene.Slot],
			TeacherID: gene.TeacherID,
			SectionID: gene.SectionID,
			SubjectID: gene.SubjectID,
		})
	}
	return schedules
}

// Metrics 是评估函数的输出，目标向量由它推导而来
type Metrics struct {
	TeacherConflicts int
	SectionConflicts int
	LoadVariance     float64
	Suitability      int
}

func (m Metrics) Conflicts() int {
	return m.TeacherConflicts + m.SectionConflicts
}

// Objectives 的每一维都是越小越好
func (m Metrics) Objectives() Objectives {
	return Objectives{
		float64(m.TeacherConflicts),
		float64(m.SectionConflicts),
		m.LoadVariance,
		-float64(m.Suitability),
	}
}

func (m Metrics) ToDomain() domain.ScheduleMetrics {
	return domain.ScheduleMetrics{
		TeacherConflicts: m.TeacherConflicts,
		SectionConflicts: m.SectionConflicts,
		LoadVariance:     m.LoadVariance,
		Suitability:      m.Suitability,
	}
}

/**
 * 加权得分（越大越好）
 * score = Base - TeacherConflict * teacherConflicts - SectionConflict * sectionConflicts
 *         - LoadVariance * loadVariance + Suitability * suitability
 * Floor 大于 0 时，得分会被截断到不低于 Floor
 */
type Weights struct {
	Base            float64
	TeacherConflict float64
	SectionConflict float64
	LoadVariance    float64
	Suitability     float64
	Floor           float64
}

func (w Weights) Score(m Metrics) float64 {
	score := w.Base -
		w.TeacherConflict*float64(m.TeacherConflicts) -
		w.SectionConflict*float64(m.SectionConflicts) -
		w.LoadVariance*m.LoadVariance +
		w.Suitability*float64(m.Suitability)

	if w.Floor > 0 && score < w.Floor {
		return w.Floor
	}
	return score
}

// 多目标遗传算法参数
type MOGAParameters struct {
	PopulationSize         int           // 种群大小
	MaxGenerations         int           // 最大迭代次数
	CrossoverRate          float64       // 交叉概率
	MutationRate           float64       // 初始变异概率
	MinMutationRate        float64       // 变异概率衰减的下限
	ConflictMutationFactor float64       // 冲突基因的变异概率倍数
	EliteCount             int           // 精英数量
	StagnationLimit        int           // 冲突数连续多少代没有下降就停止
	TimeLimit              time.Duration // 运行时间上限
	Weights                Weights       // 仅用于从第一前沿中挑选汇报结果
}

// 简单遗传算法参数
type GeneticParameters struct {
	PopulationSize int
	MaxGenerations int
	CrossoverRate  float64
	MutationRate   float64
	Weights        Weights
}

// 爬山算法参数
type HillClimbingParameters struct {
	MaxIterations      int
	Neighbors          int // 每次迭代采样的邻居数量
	NoImprovementLimit int
	Weights            Weights
}

// 蚁群算法参数
type AntColonyParameters struct {
	Ants              int
	MaxIterations     int
	EvaporationRate   float64
	Alpha             float64 // 信息素的重要程度
	Beta              float64 // 启发信息的重要程度
	Deposit           float64 // 信息素沉积系数
	InitialPheromone  float64
	ConflictHeuristic float64 // 冲突选择的启发值，不为 0 以保留探索
	Weights           Weights
}

type Parameters struct {
	Workers      int   // 并行评估的协程数量
	Seed         int64 // 为 0 时使用当前时间
	MOGA         MOGAParameters
	Genetic      GeneticParameters
	HillClimbing HillClimbingParameters
	AntColony    AntColonyParameters
}

func DefaultParameters() *Parameters {
	return &Parameters{
		Workers: 4,
		MOGA: MOGAParameters{
			PopulationSize:         50,
			MaxGenerations:         100,
			CrossoverRate:          0.8,
			MutationRate:           0.1,
			MinMutationRate:        0.02,
			ConflictMutationFactor: 3,
			EliteCount:             2,
			StagnationLimit:        30,
			TimeLimit:              60 * time.Second,
			Weights:                Weights{TeacherConflict: 50, SectionConflict: 50, LoadVariance: 2, Suitability: 1},
		},
		Genetic: GeneticParameters{
			PopulationSize: 30,
			MaxGenerations: 50,
			CrossoverRate:  0.7,
			MutationRate:   0.2,
			Weights:        Weights{Base: 1000, TeacherConflict: 15, SectionConflict: 15, Suitability: 2, Floor: 1},
		},
		HillClimbing: HillClimbingParameters{
			MaxIterations:      1000,
			Neighbors:          100,
			NoImprovementLimit: 50,
			Weights:            Weights{TeacherConflict: 10, SectionConflict: 10, LoadVariance: 2, Suitability: 1},
		},
		AntColony: AntColonyParameters{
			Ants:              20,
			MaxIterations:     50,
			EvaporationRate:   0.5,
			Alpha:             1,
			Beta:              2,
			Deposit:           1,
			InitialPheromone:  1,
			ConflictHeuristic: 0.01,
			Weights:           Weights{Base: 100, TeacherConflict: 10, SectionConflict: 10, LoadVariance: 2, Suitability: 1, Floor: 0.1},
		},
	}
}
