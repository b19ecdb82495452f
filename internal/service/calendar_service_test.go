package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/dto"
	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type mockCalendarRepo struct {
	calendars map[string]*models.SchoolCalendar
	slots     map[string][]models.CalendarSlot
	conflicts []models.CalendarConflict
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{
		calendars: make(map[string]*models.SchoolCalendar),
		slots:     make(map[string][]models.CalendarSlot),
	}
}

func (m *mockCalendarRepo) CreateVersioned(_ context.Context, calendar *models.SchoolCalendar, slots []models.CalendarSlot) error {
	version := 0
	for _, c := range m.calendars {
		if c.SchoolID == calendar.SchoolID && c.ClassID == calendar.ClassID && c.AcademicPeriodID == calendar.AcademicPeriodID && c.Version > version {
			version = c.Version
		}
	}
	calendar.ID = fmt.Sprintf("calendar-%d", len(m.calendars)+1)
	calendar.Version = version + 1
	copy := *calendar
	m.calendars[calendar.ID] = &copy
	m.slots[calendar.ID] = slots
	return nil
}

func (m *mockCalendarRepo) FindByID(_ context.Context, schoolID, id string) (*models.SchoolCalendar, error) {
	c, ok := m.calendars[id]
	if !ok || c.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (m *mockCalendarRepo) ListVersions(_ context.Context, schoolID, classID, periodID string) ([]models.SchoolCalendar, error) {
	var out []models.SchoolCalendar
	for _, c := range m.calendars {
		if c.SchoolID == schoolID && c.ClassID == classID && c.AcademicPeriodID == periodID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCalendarRepo) ListSlots(_ context.Context, calendarID string) ([]models.CalendarSlot, error) {
	return m.slots[calendarID], nil
}

func (m *mockCalendarRepo) Delete(_ context.Context, schoolID, id string) error {
	if _, ok := m.calendars[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.calendars, id)
	delete(m.slots, id)
	return nil
}

func (m *mockCalendarRepo) FindTeacherConflicts(_ context.Context, schoolID, periodID, excludeClassID string, slots []models.CalendarSlot) ([]models.CalendarConflict, error) {
	return m.conflicts, nil
}

type mockCalendarSections struct {
	sections map[string][]models.SectionDetail
}

func (m *mockCalendarSections) ListByClass(_ context.Context, schoolID, classID string) ([]models.SectionDetail, error) {
	return m.sections[classID], nil
}

type mockCalendarClasses struct {
	classes map[string]*models.Class
}

func (m *mockCalendarClasses) FindByID(_ context.Context, schoolID, id string) (*models.Class, error) {
	c, ok := m.classes[id]
	if !ok || c.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type mockCalendarPeriods struct {
	periods map[string]*models.AcademicPeriod
}

func (m *mockCalendarPeriods) FindByID(_ context.Context, schoolID, id string) (*models.AcademicPeriod, error) {
	p, ok := m.periods[id]
	if !ok || p.SchoolID != schoolID {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func newSection(classID, subjectID, teacherID string) models.SectionDetail {
	return models.SectionDetail{
		Section: models.Section{
			ID: subjectID + "-" + teacherID, SchoolID: "school-1",
			ClassID: classID, SubjectID: subjectID, TeacherID: teacherID,
		},
	}
}

func calendarFixture(t *testing.T) (*CalendarService, *mockCalendarRepo) {
	t.Helper()
	repo := newMockCalendarRepo()
	sections := &mockCalendarSections{sections: map[string][]models.SectionDetail{
		"class-1": {
			newSection("class-1", "math", "teacher-1"),
			newSection("class-1", "portuguese", "teacher-2"),
			newSection("class-1", "science", "teacher-1"),
		},
	}}
	classes := &mockCalendarClasses{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", SchoolID: "school-1", Name: "5A"},
	}}
	periods := &mockCalendarPeriods{periods: map[string]*models.AcademicPeriod{
		"period-1": {ID: "period-1", SchoolID: "school-1", Name: "2025/1"},
	}}
	svc := NewCalendarService(repo, sections, classes, periods, validator.New(), zap.NewNop(), CalendarConfig{ProposalTTL: time.Minute})
	return svc, repo
}

func generateRequest() dto.GenerateCalendarRequest {
	return dto.GenerateCalendarRequest{
		SchoolID:         "school-1",
		ClassID:          "class-1",
		AcademicPeriodID: "period-1",
		Weekdays: []dto.WeekdayConfig{
			{Weekday: 1, StartTime: "07:30", ClassCount: 3, DurationMin: 50},
			{Weekday: 2, StartTime: "07:30", ClassCount: 3, DurationMin: 50},
		},
		Subjects: []dto.SubjectDemand{
			{SubjectID: "math", TeacherID: "teacher-1", WeeklyCount: 3, Difficulty: 8},
			{SubjectID: "portuguese", TeacherID: "teacher-2", WeeklyCount: 3, Difficulty: 5},
		},
	}
}

func TestCalendarGenerateFillsEverySlotOnce(t *testing.T) {
	svc, _ := calendarFixture(t)

	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.Conflicts)
	assert.NotEmpty(t, resp.ProposalID)
	require.Len(t, resp.Slots, 6)

	occupied := make(map[string]bool)
	perSubject := make(map[string]int)
	for _, slot := range resp.Slots {
		key := fmt.Sprintf("%d-%d", slot.Weekday, slot.Position)
		assert.False(t, occupied[key], "slot %s assigned twice", key)
		occupied[key] = true
		assert.GreaterOrEqual(t, slot.Position, 1)
		assert.LessOrEqual(t, slot.Position, 3)
		perSubject[slot.SubjectID]++
	}
	assert.Equal(t, 3, perSubject["math"])
	assert.Equal(t, 3, perSubject["portuguese"])
	assert.Greater(t, resp.Score, 0.0)
}

func TestCalendarGenerateHonorsExcludedDays(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	req.Subjects[0].WeeklyCount = 2
	req.Subjects[0].ExcludedDays = []int{2}
	req.Subjects[1].WeeklyCount = 4
	req.Weekdays[0].ClassCount = 2
	req.Weekdays[1].ClassCount = 4

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Conflicts)
	for _, slot := range resp.Slots {
		if slot.SubjectID == "math" {
			assert.Equal(t, 1, slot.Weekday, "math must stay off weekday 2")
		}
	}
}

func TestCalendarGenerateReportsUnfulfilledDemand(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	// Math excludes both available days, so its demand cannot be met.
	req.Subjects[0].ExcludedDays = []int{1, 2}

	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Conflicts)
	assert.Equal(t, "UNFULFILLED_DEMAND", resp.Conflicts[0].Type)
	assert.Less(t, resp.Score, 100.0)
}

func TestCalendarGenerateComputesSlotTimes(t *testing.T) {
	svc, _ := calendarFixture(t)

	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	times := map[int]string{1: "07:30", 2: "08:20", 3: "09:10"}
	for _, slot := range resp.Slots {
		assert.Equal(t, times[slot.Position], slot.StartsAt)
		assert.Equal(t, 50, slot.DurationMin)
	}
}

func TestCalendarGenerateLoadMismatch(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	req.Subjects[0].WeeklyCount = 2

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarGenerateDuplicateWeekday(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	req.Weekdays[1].Weekday = 1

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarGenerateSubjectWithoutSection(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	req.Subjects[1].SubjectID = "arts"

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarGenerateWrongTeacher(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	req.Subjects[0].TeacherID = "teacher-2"

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarGenerateUnknownClass(t *testing.T) {
	svc, _ := calendarFixture(t)
	req := generateRequest()
	req.ClassID = "class-9"

	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCalendarSaveDraft(t *testing.T) {
	svc, repo := calendarFixture(t)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	id, err := svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: resp.ProposalID})
	require.NoError(t, err)

	stored := repo.calendars[id]
	require.NotNil(t, stored)
	assert.Equal(t, models.CalendarStatusDraft, stored.Status)
	assert.Equal(t, 1, stored.Version)
	assert.Len(t, repo.slots[id], 6)

	// The proposal is consumed on save.
	_, err = svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCalendarSaveIncrementsVersion(t *testing.T) {
	svc, repo := calendarFixture(t)

	first, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: first.ProposalID})
	require.NoError(t, err)

	second, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	id, err := svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: second.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calendars[id].Version)
}

func TestCalendarSavePublish(t *testing.T) {
	svc, repo := calendarFixture(t)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	id, err := svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: resp.ProposalID, Publish: true})
	require.NoError(t, err)
	assert.Equal(t, models.CalendarStatusPublished, repo.calendars[id].Status)
}

func TestCalendarSavePublishTeacherConflict(t *testing.T) {
	svc, repo := calendarFixture(t)
	repo.conflicts = []models.CalendarConflict{
		{Dimension: "teacher", Weekday: 1, Position: 1, TeacherID: "teacher-1"},
	}
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: resp.ProposalID, Publish: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.calendars)
}

func TestCalendarSaveWithConflictsRejected(t *testing.T) {
	svc, repo := calendarFixture(t)
	req := generateRequest()
	req.Subjects[0].ExcludedDays = []int{1, 2}
	resp, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Conflicts)

	_, err = svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-1", ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.calendars)
}

func TestCalendarSaveOtherSchool(t *testing.T) {
	svc, _ := calendarFixture(t)
	resp, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), dto.SaveCalendarRequest{SchoolID: "school-2", ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCalendarDeleteOnlyDrafts(t *testing.T) {
	svc, repo := calendarFixture(t)
	repo.calendars["cal-1"] = &models.SchoolCalendar{ID: "cal-1", SchoolID: "school-1", Status: models.CalendarStatusPublished}
	repo.calendars["cal-2"] = &models.SchoolCalendar{ID: "cal-2", SchoolID: "school-1", Status: models.CalendarStatusDraft}

	err := svc.Delete(context.Background(), "school-1", "cal-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "school-1", "cal-2"))
	assert.NotContains(t, repo.calendars, "cal-2")
}

func TestCalendarListRequiresClassAndPeriod(t *testing.T) {
	svc, _ := calendarFixture(t)

	_, err := svc.List(context.Background(), "school-1", dto.CalendarQuery{ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarGetSlotsOtherSchool(t *testing.T) {
	svc, repo := calendarFixture(t)
	repo.calendars["cal-1"] = &models.SchoolCalendar{ID: "cal-1", SchoolID: "school-2", Status: models.CalendarStatusDraft}

	_, err := svc.GetSlots(context.Background(), "school-1", "cal-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
