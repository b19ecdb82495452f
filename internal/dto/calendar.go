package dto

// WeekdayConfig describes one school day available for scheduling: when
// lessons start, how many slots the day holds and how long each lasts.
type WeekdayConfig struct {
	Weekday     int    `json:"weekday" validate:"required,min=1,max=6"`
	StartTime   string `json:"startTime" validate:"required"`
	ClassCount  int    `json:"classCount" validate:"required,min=1,max=16"`
	DurationMin int    `json:"durationMin" validate:"required,min=10,max=240"`
}

// SubjectDemand captures how many weekly slots a subject needs and which
// days it must avoid.
type SubjectDemand struct {
	SubjectID    string `json:"subjectId" validate:"required"`
	TeacherID    string `json:"teacherId" validate:"required"`
	WeeklyCount  int    `json:"weeklyClasses" validate:"required,min=1"`
	ExcludedDays []int  `json:"excludedDays" validate:"omitempty,dive,min=1,max=6"`
	Difficulty   int    `json:"difficulty" validate:"omitempty,min=1,max=10"`
}

// GenerateCalendarRequest instructs the generator to build a timetable
// proposal for a class within an academic period.
type GenerateCalendarRequest struct {
	SchoolID         string          `json:"-"`
	ClassID          string          `json:"classId" validate:"required"`
	AcademicPeriodID string          `json:"academicPeriodId" validate:"required"`
	Weekdays         []WeekdayConfig `json:"weekdays" validate:"required,min=1,dive"`
	Subjects         []SubjectDemand `json:"subjects" validate:"required,min=1,dive"`
}

// CalendarSlotProposal represents a generated slot.
type CalendarSlotProposal struct {
	Weekday     int    `json:"weekday"`
	Position    int    `json:"position"`
	StartsAt    string `json:"startsAt"`
	DurationMin int    `json:"durationMin"`
	SubjectID   string `json:"subjectId"`
	TeacherID   string `json:"teacherId"`
}

// ProposalConflict captures unmet demand discovered during generation.
type ProposalConflict struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// CalendarStats summarises generation quality.
type CalendarStats struct {
	Iterations  int     `json:"iterations"`
	GapPenalty  float64 `json:"gapPenalty"`
	LoadPenalty float64 `json:"loadPenalty"`
}

// GenerateCalendarResponse returns the built timetable proposal.
type GenerateCalendarResponse struct {
	ProposalID string                 `json:"proposalId"`
	Score      float64                `json:"score"`
	Slots      []CalendarSlotProposal `json:"slots"`
	Conflicts  []ProposalConflict     `json:"conflicts"`
	Stats      CalendarStats          `json:"stats"`
}

// SaveCalendarRequest persists a proposal as a school calendar version.
type SaveCalendarRequest struct {
	SchoolID   string `json:"-"`
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// CalendarQuery filters stored calendars by class and period.
type CalendarQuery struct {
	ClassID          string `form:"classId" json:"classId"`
	AcademicPeriodID string `form:"periodId" json:"periodId"`
}
