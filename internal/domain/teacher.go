package domain

import "time"

type Teacher struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	SubjectIDs []int64   `json:"subjectIDs"` // 可以任教的科目，至少一个
	CreatedAt  time.Time `json:"createdAt"`
	Version    int32     `json:"-"`
}
