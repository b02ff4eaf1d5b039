package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type OptimizationReportMailData struct {
	RunID                string  `json:"runID"`
	Strategy             string  `json:"strategy"`
	InsertedCount        int     `json:"insertedCount"`
	TeacherConflicts     int     `json:"teacherConflicts"`
	SectionConflicts     int     `json:"sectionConflicts"`
	LoadVariance         float64 `json:"loadVariance"`
	Suitability          int     `json:"suitability"`
	ExecutionTimeSeconds float64 `json:"executionTimeSeconds"`
}
