package scheduler

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// Requirement: 某个班级需要上的某门科目，每个需求对应染色体中的一个基因
type Requirement struct {
	SectionID int64
	SubjectID int64
}

// ConfigurationError 表示输入数据不足以构造排课问题
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("排课配置错误: %s", e.Reason)
}

/**
 * 排课问题：一次运行期间不可变的快照
 * 构造完成之后可以被多个评估协程同时读取
 */
type Problem struct {
	teacherIDs   []int64
	requirements []Requirement
	eligible     map[int64][]int64            // subjectID -> 可任教的教师（已应用回退策略）
	eligibleSet  map[int64]map[int64]struct{} // subjectID -> 可任教的教师集合
	fallback     map[int64]bool               // 该科目没有合格教师，回退到了全部教师
}

func NewProblem(teachers []*domain.Teacher, sections []*domain.Section, subjects []*domain.Subject) (*Problem, error) {
	if len(teachers) == 0 {
		return nil, &ConfigurationError{Reason: "没有任何教师"}
	}
	if len(sections) == 0 {
		return nil, &ConfigurationError{Reason: "没有任何班级"}
	}
	if len(subjects) == 0 {
		return nil, &ConfigurationError{Reason: "没有任何科目"}
	}

	p := &Problem{
		eligible:    make(map[int64][]int64, len(subjects)),
		eligibleSet: make(map[int64]map[int64]struct{}, len(subjects)),
		fallback:    make(map[int64]bool),
	}

	for _, teacher := range teachers {
		p.teacherIDs = append(p.teacherIDs, teacher.ID)
	}
	slices.Sort(p.teacherIDs)
	p.teacherIDs = slices.Compact(p.teacherIDs)

	subjectIDs := make([]int64, 0, len(subjects))
	for _, subject := range subjects {
		subjectIDs = append(subjectIDs, subject.ID)
	}
	slices.Sort(subjectIDs)
	subjectIDs = slices.Compact(subjectIDs)

	// 排课需求：按班级 ID、科目 ID 排序，保证同一份数据得到同样的基因顺序
	sortedSections := slices.Clone(sections)
	slices.SortFunc(sortedSections, func(a, b *domain.Section) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, section := range sortedSections {
		wanted := subjectIDs
		if len(section.SubjectIDs) > 0 {
			wanted = make([]int64, 0, len(section.SubjectIDs))
			for _, id := range section.SubjectIDs {
				if _, found := slices.BinarySearch(subjectIDs, id); found {
					wanted = append(wanted, id)
				}
			}
			slices.Sort(wanted)
			wanted = slices.Compact(wanted)
		}
		for _, subjectID := range wanted {
			p.requirements = append(p.requirements, Requirement{SectionID: section.ID, SubjectID: subjectID})
		}
	}
	if len(p.requirements) == 0 {
		return nil, &ConfigurationError{Reason: "没有任何排课需求"}
	}

	// 任教资格
	for _, subjectID := range subjectIDs {
		var ids []int64
		for _, teacher := range teachers {
			if slices.Contains(teacher.SubjectIDs, subjectID) {
				ids = append(ids, teacher.ID)
			}
		}
		slices.Sort(ids)
		ids = slices.Compact(ids)

		if len(ids) == 0 {
			slog.Warn("科目没有合格的教师，将允许所有教师任教", "subjectID", subjectID)
			ids = slices.Clone(p.teacherIDs)
			p.fallback[subjectID] = true
		}

		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		p.eligible[subjectID] = ids
		p.eligibleSet[subjectID] = set
	}

	return p, nil
}

// Requirements 返回排课需求的副本，顺序与基因顺序一致
func (p *Problem) Requirements() []Requirement {
	return slices.Clone(p.requirements)
}

func (p *Problem) TeacherIDs() []int64 {
	return slices.Clone(p.teacherIDs)
}

// EligibleTeachers 返回可以教授该科目的教师，没有合格教师时返回全部教师
func (p *Problem) EligibleTeachers(subjectID int64) []int64 {
	if ids, ok := p.eligible[subjectID]; ok {
		return slices.Clone(ids)
	}
	return slices.Clone(p.teacherIDs)
}

func (p *Problem) isEligible(subjectID, teacherID int64) bool {
	_, ok := p.eligibleSet[subjectID][teacherID]
	return ok
}

// isQualified 与 isEligible 的区别在于不计入回退策略
func (p *Problem) isQualified(subjectID, teacherID int64) bool {
	return !p.fallback[subjectID] && p.isEligible(subjectID, teacherID)
}

func (p *Problem) eligibleOf(subjectID int64) []int64 {
	if ids, ok := p.eligible[subjectID]; ok {
		return ids
	}
	return p.teacherIDs
}

type slotKey struct {
	id   int64
	day  int32
	slot int
}

/**
 * 评估一个候选课表
 * 冲突数：同一个 (教师/班级, day, slot) 上有 k 个安排时记 k-1 个冲突
 * 负载方差：只统计在课表中出现过的教师，按总体方差计算
 * 适合度：由合格教师承担的安排数量
 */
func (p *Problem) Evaluate(ch *Chromosome) Metrics {
	var m Metrics

	teacherSlots := make(map[slotKey]int, len(ch.genes))
	sectionSlots := make(map[slotKey]int, len(ch.genes))
	loads := make(map[int64]int)

	for _, gene := range ch.genes {
		teacherSlots[slotKey{gene.TeacherID, gene.Day, gene.Slot}]++
		sectionSlots[slotKey{gene.SectionID, gene.Day, gene.Slot}]++
		loads[gene.TeacherID]++
		if p.isEligible(gene.SubjectID, gene.TeacherID) {
			m.Suitability++
		}
	}

	for _, count := range teacherSlots {
		m.TeacherConflicts += count - 1
	}
	for _, count := range sectionSlots {
		m.SectionConflicts += count - 1
	}

	// 用整数累加再做一次除法，结果不受 map 遍历顺序影响
	if n := int64(len(loads)); n > 0 {
		var sum, sumSquares int64
		for _, load := range loads {
			sum += int64(load)
			sumSquares += int64(load) * int64(load)
		}
		m.LoadVariance = float64(n*sumSquares-sum*sum) / float64(n*n)
	}

	return m
}

// conflictFlags 标记每个基因是否参与了教师冲突或班级冲突
func (p *Problem) conflictFlags(ch *Chromosome) (teacherConflict, sectionConflict []bool) {
	teacherSlots := make(map[slotKey]int, len(ch.genes))
	sectionSlots := make(map[slotKey]int, len(ch.genes))
	for _, gene := range ch.genes {
		teacherSlots[slotKey{gene.TeacherID, gene.Day, gene.Slot}]++
		sectionSlots[slotKey{gene.SectionID, gene.Day, gene.Slot}]++
	}

	teacherConflict = make([]bool, len(ch.genes))
	sectionConflict = make([]bool, len(ch.genes))
	for i, gene := range ch.genes {
		teacherConflict[i] = teacherSlots[slotKey{gene.TeacherID, gene.Day, gene.Slot}] > 1
		sectionConflict[i] = sectionSlots[slotKey{gene.SectionID, gene.Day, gene.Slot}] > 1
	}
	return teacherConflict, sectionConflict
}

// RandomChromosome 为每个排课需求随机选择 day、slot 和合格教师
func (p *Problem) RandomChromosome(rng *rand.Rand) *Chromosome {
	genes := make([]Gene, len(p.requirements))
	for i, req := range p.requirements {
		teachers := p.eligibleOf(req.SubjectID)
		genes[i] = Gene{
			SectionID: req.SectionID,
			SubjectID: req.SubjectID,
			Day:       domain.WeekDays[rng.Intn(len(domain.WeekDays))],
			Slot:      rng.Intn(len(domain.TimeSlots)),
			TeacherID: teachers[rng.Intn(len(teachers))],
		}
	}
	return &Chromosome{genes: genes}
}

const (
	fieldDay = iota
	fieldSlot
	fieldTeacher
	fieldCount
)

// mutateField 随机改变基因的某一个字段，班级和科目永远不变
func (p *Problem) mutateField(rng *rand.Rand, gene *Gene, field int) {
	switch field {
	case fieldDay:
		gene.Day = otherDay(rng, gene.Day)
	case fieldSlot:
		gene.Slot = otherIndex(rng, len(domain.TimeSlots), gene.Slot)
	case fieldTeacher:
		gene.TeacherID = p.otherTeacher(rng, gene.SubjectID, gene.TeacherID)
	}
}

// otherIndex 在 [0, n) 中随机选择一个不等于 current 的下标，n 为 1 时只能返回 current
func otherIndex(rng *rand.Rand, n, current int) int {
	if n <= 1 {
		return 0
	}
	if current < 0 || current >= n {
		return rng.Intn(n)
	}
	idx := rng.Intn(n - 1)
	if idx >= current {
		idx++
	}
	return idx
}

func otherDay(rng *rand.Rand, current int32) int32 {
	return domain.WeekDays[otherIndex(rng, len(domain.WeekDays), slices.Index(domain.WeekDays, current))]
}

func (p *Problem) otherTeacher(rng *rand.Rand, subjectID, current int64) int64 {
	teachers := p.eligibleOf(subjectID)
	return teachers[otherIndex(rng, len(teachers), slices.Index(teachers, current))]
}
