package handler

type ContextKey string

var (
	RoleCtxKey  ContextKey = "role"
	SubCtxKey   ContextKey = "sub"
	TeacherCtx  ContextKey = "teacher"
	StrategyCtx ContextKey = "strategy"
)
