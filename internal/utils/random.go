package utils

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString(commonSurnames[rng.Intn(len(commonSurnames))])
	for range rng.Intn(2) + 1 {
		b.WriteString(commonNameCharacters[rng.Intn(len(commonNameCharacters))])
	}
	return b.String()
}

var digits = "0123456789"

// 取每个字拼音的随机前缀，再加上 1~3 位数字
func GenerateUsernameFromChineseName(rng *rand.Rand, chineseName string) string {
	var b strings.Builder
	for _, py := range pinyin.LazyConvert(chineseName, nil) {
		b.WriteString(py[:rng.Intn(len(py))+1])
	}
	for range rng.Intn(3) + 1 {
		b.WriteByte(digits[rng.Intn(len(digits))])
	}
	return b.String()
}

// SubjectCode 用科目名称每个字的拼音首字母生成科目代码，例如 "语文" -> "YW"
func SubjectCode(name string) string {
	var b strings.Builder
	for _, py := range pinyin.LazyConvert(name, nil) {
		b.WriteString(strings.ToUpper(py[:1]))
	}
	return b.String()
}

// 随机生成的用户都是普通用户，只能查看课表
func GenerateRandomUser(rng *rand.Rand, password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName(rng)
	username := GenerateUsernameFromChineseName(rng, fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleViewer,
	}, nil
}

// 使用 Fisher-Yates 洗牌算法来生成一个非空的随机子集
func GenerateRandomSubset(rng *rand.Rand, arr []int64) []int64 {
	arrCopy := append([]int64{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rng.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rng.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}

// 随机教师最多能教两门科目
func GenerateRandomTeacher(rng *rand.Rand, subjectIDs []int64) *domain.Teacher {
	subset := GenerateRandomSubset(rng, subjectIDs)
	return &domain.Teacher{
		Name:       GenerateRandomChineseName(rng) + "老师",
		SubjectIDs: subset[:min(len(subset), 2)],
	}
}

var gradeNames = []string{"初一", "初二", "初三", "高一", "高二", "高三"}

// 随机班级有一半的概率开设所有科目
func GenerateRandomSection(rng *rand.Rand, index int, subjectIDs []int64) *domain.Section {
	section := &domain.Section{
		Name: gradeNames[rng.Intn(len(gradeNames))] + "（" + strconv.Itoa(index) + "）班",
	}
	if rng.Intn(2) == 0 {
		section.SubjectIDs = GenerateRandomSubset(rng, subjectIDs)
	}
	return section
}
