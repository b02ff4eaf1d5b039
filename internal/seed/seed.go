package seed

import (
	"errors"
	"log/slog"
	"math/rand"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

// Repository 是写入种子数据需要的数据库操作
type Repository interface {
	GetAllSubjects() ([]*domain.Subject, error)
	CreateSubject(subject *domain.Subject) error
	CreateTeacher(teacher *domain.Teacher) error
	CreateSection(section *domain.Section) error
	CreateUser(user *domain.User) error
}

var realSubjects = []struct {
	Name        string
	Description string
}{
	{"语文", "阅读、写作与古诗文"},
	{"数学", "代数、几何与概率统计"},
	{"英语", "听说读写综合训练"},
	{"物理", "力学、电磁学与光学"},
	{"化学", "无机化学与有机化学基础"},
	{"体育", "体能训练与球类运动"},
}

var realSections = []string{"高一（1）班", "高一（2）班", "高二（1）班"}

/**
 * SeedRealData 插入一份固定的学校数据：
 * 六门科目、三个开设所有科目的班级，每门科目各有一位专任教师
 * 这份数据一定存在没有冲突的课表
 */
func SeedRealData(r Repository) error {
	subjects := make([]*domain.Subject, 0, len(realSubjects))
	for _, s := range realSubjects {
		subject := &domain.Subject{
			Name:        s.Name,
			Code:        utils.SubjectCode(s.Name),
			Description: s.Description,
		}
		if err := r.CreateSubject(subject); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.ConstraintName == "subjects_name_key" {
				slog.Warn("科目已存在，跳过", "name", s.Name)
				continue
			}
			return err
		}
		subjects = append(subjects, subject)
	}

	for _, subject := range subjects {
		teacher := &domain.Teacher{
			Name:       subject.Name + "老师",
			SubjectIDs: []int64{subject.ID},
		}
		if err := r.CreateTeacher(teacher); err != nil {
			return err
		}
	}

	for _, name := range realSections {
		// 不指定科目表示开设所有科目
		if err := r.CreateSection(&domain.Section{Name: name}); err != nil {
			return err
		}
	}

	slog.Info("插入数据完成", "subjects", len(subjects), "sections", len(realSections))
	return nil
}

// SeedRandomData 基于已有的科目插入随机的教师和班级
func SeedRandomData(r Repository, cfg *config.Config, rng *rand.Rand) error {
	subjects, err := r.GetAllSubjects()
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		return errors.New("数据库中没有任何科目，请先插入真实数据")
	}

	subjectIDs := make([]int64, len(subjects))
	for i, s := range subjects {
		subjectIDs[i] = s.ID
	}

	teachers := 0
	for range cfg.Seed.RandomTeachers {
		if err := r.CreateTeacher(utils.GenerateRandomTeacher(rng, subjectIDs)); err != nil {
			slog.Error("无法插入教师", "error", err)
			continue
		}
		teachers++
	}

	sections := 0
	for i := range cfg.Seed.RandomSections {
		if err := r.CreateSection(utils.GenerateRandomSection(rng, i+1, subjectIDs)); err != nil {
			slog.Error("无法插入班级", "error", err)
			continue
		}
		sections++
	}

	slog.Info("插入随机数据完成", "teachers", teachers, "sections", sections)
	return nil
}

// SeedRandomUsers 插入 n 个随机的普通用户
func SeedRandomUsers(r Repository, cfg *config.Config, rng *rand.Rand, n int) int {
	cnt := 0
	for range n {
		user, err := utils.GenerateRandomUser(rng, cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("无法生成随机用户", "error", err)
			continue
		}
		if err := r.CreateUser(user); err != nil {
			slog.Error("无法插入用户", "error", err)
			continue
		}
		cnt++
	}
	return cnt
}
