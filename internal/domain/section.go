package domain

import "time"

type Section struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	SubjectIDs []int64   `json:"subjectIDs"` // 该班级需要开设的科目，为空表示开设所有科目
	CreatedAt  time.Time `json:"createdAt"`
	Version    int32     `json:"-"`
}
