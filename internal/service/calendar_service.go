package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/escolaware/escola-api/internal/dto"
	"github.com/escolaware/escola-api/internal/models"
	appErrors "github.com/escolaware/escola-api/pkg/errors"
)

type calendarRepository interface {
	CreateVersioned(ctx context.Context, calendar *models.SchoolCalendar, slots []models.CalendarSlot) error
	FindByID(ctx context.Context, schoolID, id string) (*models.SchoolCalendar, error)
	ListVersions(ctx context.Context, schoolID, classID, periodID string) ([]models.SchoolCalendar, error)
	ListSlots(ctx context.Context, calendarID string) ([]models.CalendarSlot, error)
	Delete(ctx context.Context, schoolID, id string) error
	FindTeacherConflicts(ctx context.Context, schoolID, periodID, excludeClassID string, slots []models.CalendarSlot) ([]models.CalendarConflict, error)
}

type calendarSectionReader interface {
	ListByClass(ctx context.Context, schoolID, classID string) ([]models.SectionDetail, error)
}

type calendarClassReader interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Class, error)
}

type calendarPeriodReader interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.AcademicPeriod, error)
}

// CalendarService builds timetable proposals and persists versioned
// school calendars.
type CalendarService struct {
	calendars calendarRepository
	sections  calendarSectionReader
	classes   calendarClassReader
	periods   calendarPeriodReader
	validator *validator.Validate
	logger    *zap.Logger
	store     *calendarProposalStore
}

// CalendarConfig governs generator behaviour.
type CalendarConfig struct {
	ProposalTTL time.Duration
}

// NewCalendarService wires generator dependencies.
func NewCalendarService(
	calendars calendarRepository,
	sections calendarSectionReader,
	classes calendarClassReader,
	periods calendarPeriodReader,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg CalendarConfig,
) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &CalendarService{
		calendars: calendars,
		sections:  sections,
		classes:   classes,
		periods:   periods,
		validator: validate,
		logger:    logger,
		store:     newCalendarProposalStore(cfg.ProposalTTL),
	}
}

// Generate runs the constraint-based scheduling pipeline and caches the
// resulting proposal.
func (s *CalendarService) Generate(ctx context.Context, req dto.GenerateCalendarRequest) (*dto.GenerateCalendarResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar generation payload")
	}
	if err := s.ensureClassAndPeriod(ctx, req.SchoolID, req.ClassID, req.AcademicPeriodID); err != nil {
		return nil, err
	}

	days, err := normalizeWeekdays(req.Weekdays)
	if err != nil {
		return nil, err
	}

	expectedLoad := 0
	for _, day := range days {
		expectedLoad += day.ClassCount
	}
	totalLoad := 0
	for _, demand := range req.Subjects {
		totalLoad += demand.WeeklyCount
	}
	if totalLoad != expectedLoad {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subjects weeklyClasses (%d) must equal total weekly slots (%d)", totalLoad, expectedLoad))
	}

	sections, err := s.sections.ListByClass(ctx, req.SchoolID, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class sections")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class has no sections to schedule")
	}
	if err := validateSubjectDemands(req.Subjects, mapSections(sections)); err != nil {
		return nil, err
	}

	state := newCalendarState(days)
	conflicts := seedCalendarSlots(state, req.Subjects)
	iterations := state.repairGaps(12)

	slots := state.exportSlots()
	gapPenalty := calendarGapPenalty(days, slots)
	loadPenalty := calendarLoadPenalty(len(days), state.teacherLoads())
	conflictPenalty := float64(len(conflicts))
	score := math.Max(0, 100-(conflictPenalty*100+gapPenalty*2+loadPenalty*5))

	proposal := calendarProposal{
		ProposalID:       uuid.NewString(),
		SchoolID:         req.SchoolID,
		ClassID:          req.ClassID,
		AcademicPeriodID: req.AcademicPeriodID,
		Score:            score,
		Slots:            slots,
		Conflicts:        conflicts,
		Stats:            dto.CalendarStats{Iterations: iterations, GapPenalty: gapPenalty, LoadPenalty: loadPenalty},
		Weekdays:         days,
		RequestedAt:      time.Now().UTC(),
	}
	s.store.Save(proposal)

	return &dto.GenerateCalendarResponse{
		ProposalID: proposal.ProposalID,
		Score:      score,
		Slots:      slots,
		Conflicts:  conflicts,
		Stats:      proposal.Stats,
	}, nil
}

// Save persists a cached proposal as the next calendar version for its
// class and period, optionally publishing it right away.
func (s *CalendarService) Save(ctx context.Context, req dto.SaveCalendarRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save calendar payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok || proposal.SchoolID != req.SchoolID {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if len(proposal.Conflicts) > 0 {
		return "", appErrors.Clone(appErrors.ErrConflict, "proposal contains unresolved conflicts")
	}

	meta, err := json.Marshal(map[string]any{
		"score":     proposal.Score,
		"stats":     proposal.Stats,
		"generated": proposal.RequestedAt,
		"weekdays":  proposal.Weekdays,
		"algorithm": "heuristic_v1",
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode calendar metadata")
	}

	slots := make([]models.CalendarSlot, 0, len(proposal.Slots))
	for _, slot := range proposal.Slots {
		slots = append(slots, models.CalendarSlot{
			Weekday:     slot.Weekday,
			Position:    slot.Position,
			StartsAt:    slot.StartsAt,
			DurationMin: slot.DurationMin,
			SubjectID:   slot.SubjectID,
			TeacherID:   slot.TeacherID,
		})
	}

	status := models.CalendarStatusDraft
	if req.Publish {
		conflicts, err := s.calendars.FindTeacherConflicts(ctx, proposal.SchoolID, proposal.AcademicPeriodID, proposal.ClassID, slots)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher conflicts")
		}
		if len(conflicts) > 0 {
			conflictErr := &models.CalendarConflictError{Message: "teachers are already booked in published calendars", Conflicts: conflicts}
			return "", appErrors.Wrap(conflictErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "conflict detected")
		}
		status = models.CalendarStatusPublished
	}

	record := &models.SchoolCalendar{
		SchoolID:         proposal.SchoolID,
		ClassID:          proposal.ClassID,
		AcademicPeriodID: proposal.AcademicPeriodID,
		Status:           status,
		Meta:             types.JSONText(meta),
	}
	if err := s.calendars.CreateVersioned(ctx, record, slots); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist calendar")
	}

	s.store.Delete(req.ProposalID)
	return record.ID, nil
}

// List returns stored calendar versions for a class-period tuple.
func (s *CalendarService) List(ctx context.Context, schoolID string, query dto.CalendarQuery) ([]models.SchoolCalendar, error) {
	if query.ClassID == "" || query.AcademicPeriodID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId and periodId are required")
	}
	list, err := s.calendars.ListVersions(ctx, schoolID, query.ClassID, query.AcademicPeriodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendars")
	}
	return list, nil
}

// GetSlots returns slot detail for a stored calendar.
func (s *CalendarService) GetSlots(ctx context.Context, schoolID, calendarID string) ([]models.CalendarSlot, error) {
	if _, err := s.calendars.FindByID(ctx, schoolID, calendarID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	slots, err := s.calendars.ListSlots(ctx, calendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar slots")
	}
	return slots, nil
}

// Delete removes a draft calendar version.
func (s *CalendarService) Delete(ctx context.Context, schoolID, calendarID string) error {
	record, err := s.calendars.FindByID(ctx, schoolID, calendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if record.Status != models.CalendarStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft calendars can be deleted")
	}
	if err := s.calendars.Delete(ctx, schoolID, calendarID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete calendar")
	}
	return nil
}

func (s *CalendarService) ensureClassAndPeriod(ctx context.Context, schoolID, classID, periodID string) error {
	if s.classes != nil {
		if _, err := s.classes.FindByID(ctx, schoolID, classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	}
	if s.periods != nil {
		if _, err := s.periods.FindByID(ctx, schoolID, periodID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
		}
	}
	return nil
}

func mapSections(sections []models.SectionDetail) map[string]map[string]bool {
	result := make(map[string]map[string]bool)
	for _, section := range sections {
		if result[section.SubjectID] == nil {
			result[section.SubjectID] = make(map[string]bool)
		}
		result[section.SubjectID][section.TeacherID] = true
	}
	return result
}

func validateSubjectDemands(demands []dto.SubjectDemand, sections map[string]map[string]bool) error {
	for _, demand := range demands {
		teachers, ok := sections[demand.SubjectID]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s has no section in this class", demand.SubjectID))
		}
		if !teachers[demand.TeacherID] {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s is not responsible for subject %s in this class", demand.TeacherID, demand.SubjectID))
		}
	}
	return nil
}

func normalizeWeekdays(configs []dto.WeekdayConfig) ([]dto.WeekdayConfig, error) {
	seen := make(map[int]bool, len(configs))
	days := make([]dto.WeekdayConfig, 0, len(configs))
	for _, day := range configs {
		if seen[day.Weekday] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d configured twice", day.Weekday))
		}
		if _, err := time.Parse("15:04", day.StartTime); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d startTime must be HH:MM", day.Weekday))
		}
		seen[day.Weekday] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Weekday < days[j].Weekday })
	return days, nil
}

func slotStartTime(day dto.WeekdayConfig, position int) string {
	start, err := time.Parse("15:04", day.StartTime)
	if err != nil {
		return day.StartTime
	}
	return start.Add(time.Duration(position-1) * time.Duration(day.DurationMin) * time.Minute).Format("15:04")
}

func seedCalendarSlots(state *calendarState, demands []dto.SubjectDemand) []dto.ProposalConflict {
	conflicts := make([]dto.ProposalConflict, 0)
	sorted := make([]dto.SubjectDemand, len(demands))
	copy(sorted, demands)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Difficulty == sorted[j].Difficulty {
			return sorted[i].WeeklyCount > sorted[j].WeeklyCount
		}
		return sorted[i].Difficulty > sorted[j].Difficulty
	})

	for _, demand := range sorted {
		for i := 0; i < demand.WeeklyCount; i++ {
			if state.Assign(demand) {
				continue
			}
			conflicts = append(conflicts, dto.ProposalConflict{
				Type:    "UNFULFILLED_DEMAND",
				Message: fmt.Sprintf("unable to schedule subject %s for teacher %s", demand.SubjectID, demand.TeacherID),
				Meta: map[string]any{
					"subjectId": demand.SubjectID,
					"teacherId": demand.TeacherID,
				},
			})
		}
	}
	return conflicts
}

// --- Proposal cache ---

type calendarProposal struct {
	ProposalID       string
	SchoolID         string
	ClassID          string
	AcademicPeriodID string
	Score            float64
	Slots            []dto.CalendarSlotProposal
	Conflicts        []dto.ProposalConflict
	Stats            dto.CalendarStats
	Weekdays         []dto.WeekdayConfig
	RequestedAt      time.Time
}

type calendarProposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]calendarProposal
}

func newCalendarProposalStore(ttl time.Duration) *calendarProposalStore {
	return &calendarProposalStore{
		ttl:   ttl,
		items: make(map[string]calendarProposal),
	}
}

func (s *calendarProposalStore) Save(proposal calendarProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *calendarProposalStore) Get(id string) (calendarProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return calendarProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return calendarProposal{}, false
	}
	return proposal, true
}

func (s *calendarProposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// --- Scheduler state & helpers ---

type calendarSlotKey struct {
	Day      int
	Position int
}

type calendarState struct {
	days       []dto.WeekdayConfig
	byDay      map[int]dto.WeekdayConfig
	classSlots map[calendarSlotKey]dto.CalendarSlotProposal
	dayLoad    map[int]int
	busy       map[string]map[calendarSlotKey]bool
}

func newCalendarState(days []dto.WeekdayConfig) *calendarState {
	byDay := make(map[int]dto.WeekdayConfig, len(days))
	for _, day := range days {
		byDay[day.Weekday] = day
	}
	return &calendarState{
		days:       days,
		byDay:      byDay,
		classSlots: make(map[calendarSlotKey]dto.CalendarSlotProposal),
		dayLoad:    make(map[int]int),
		busy:       make(map[string]map[calendarSlotKey]bool),
	}
}

func (s *calendarState) Assign(demand dto.SubjectDemand) bool {
	excluded := make(map[int]bool, len(demand.ExcludedDays))
	for _, day := range demand.ExcludedDays {
		excluded[day] = true
	}

	dayOrder := make([]dto.WeekdayConfig, len(s.days))
	copy(dayOrder, s.days)
	sort.SliceStable(dayOrder, func(i, j int) bool {
		return s.dayLoad[dayOrder[i].Weekday] < s.dayLoad[dayOrder[j].Weekday]
	})

	for _, day := range dayOrder {
		if excluded[day.Weekday] {
			continue
		}
		for position := 1; position <= day.ClassCount; position++ {
			if s.canPlace(demand.TeacherID, day.Weekday, position) {
				s.place(demand, day, position)
				return true
			}
		}
	}
	return false
}

func (s *calendarState) canPlace(teacherID string, day, position int) bool {
	config, ok := s.byDay[day]
	if !ok || position < 1 || position > config.ClassCount {
		return false
	}
	key := calendarSlotKey{Day: day, Position: position}
	if _, exists := s.classSlots[key]; exists {
		return false
	}
	return !s.busy[teacherID][key]
}

func (s *calendarState) place(demand dto.SubjectDemand, day dto.WeekdayConfig, position int) {
	key := calendarSlotKey{Day: day.Weekday, Position: position}
	s.classSlots[key] = dto.CalendarSlotProposal{
		Weekday:     day.Weekday,
		Position:    position,
		StartsAt:    slotStartTime(day, position),
		DurationMin: day.DurationMin,
		SubjectID:   demand.SubjectID,
		TeacherID:   demand.TeacherID,
	}
	if s.busy[demand.TeacherID] == nil {
		s.busy[demand.TeacherID] = make(map[calendarSlotKey]bool)
	}
	s.busy[demand.TeacherID][key] = true
	s.dayLoad[day.Weekday]++
}

// repairGaps compacts holes inside each day by pulling later slots
// forward while the teacher stays free at the target position.
func (s *calendarState) repairGaps(maxIterations int) int {
	iterations := 0
	for iterations < maxIterations {
		moved := false
		for _, day := range s.days {
			positions := s.positionsForDay(day.Weekday)
			if len(positions) < 2 {
				continue
			}
			for i := 0; i < len(positions)-1; i++ {
				current := positions[i]
				next := positions[i+1]
				if next-current <= 1 {
					continue
				}
				target := current + 1
				slot := s.classSlots[calendarSlotKey{Day: day.Weekday, Position: next}]
				if s.canPlace(slot.TeacherID, day.Weekday, target) {
					s.moveSlot(day, next, target)
					moved = true
					break
				}
			}
			if moved {
				break
			}
		}
		if !moved {
			break
		}
		iterations++
	}
	return iterations
}

func (s *calendarState) positionsForDay(day int) []int {
	var positions []int
	for key := range s.classSlots {
		if key.Day == day {
			positions = append(positions, key.Position)
		}
	}
	sort.Ints(positions)
	return positions
}

func (s *calendarState) moveSlot(day dto.WeekdayConfig, from, to int) {
	key := calendarSlotKey{Day: day.Weekday, Position: from}
	slot := s.classSlots[key]
	delete(s.classSlots, key)
	delete(s.busy[slot.TeacherID], key)

	slot.Position = to
	slot.StartsAt = slotStartTime(day, to)
	target := calendarSlotKey{Day: day.Weekday, Position: to}
	s.classSlots[target] = slot
	s.busy[slot.TeacherID][target] = true
}

func (s *calendarState) exportSlots() []dto.CalendarSlotProposal {
	slots := make([]dto.CalendarSlotProposal, 0, len(s.classSlots))
	for _, slot := range s.classSlots {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday == slots[j].Weekday {
			return slots[i].Position < slots[j].Position
		}
		return slots[i].Weekday < slots[j].Weekday
	})
	return slots
}

// teacherLoads reports per-teacher slot counts by weekday.
func (s *calendarState) teacherLoads() map[string]map[int]int {
	result := make(map[string]map[int]int, len(s.busy))
	for teacherID, keys := range s.busy {
		perDay := make(map[int]int)
		for key := range keys {
			perDay[key.Day]++
		}
		result[teacherID] = perDay
	}
	return result
}

// --- Metrics helpers ---

func calendarGapPenalty(days []dto.WeekdayConfig, slots []dto.CalendarSlotProposal) float64 {
	var penalty float64
	for _, day := range days {
		var positions []int
		for _, slot := range slots {
			if slot.Weekday == day.Weekday {
				positions = append(positions, slot.Position)
			}
		}
		if len(positions) <= 1 {
			continue
		}
		sort.Ints(positions)
		for i := 0; i < len(positions)-1; i++ {
			diff := positions[i+1] - positions[i]
			if diff > 1 {
				penalty += float64(diff - 1)
			}
		}
		penalty += float64(day.ClassCount - len(positions))
	}
	return penalty
}

// calendarLoadPenalty punishes teachers whose weekly load piles onto
// single days beyond an even spread.
func calendarLoadPenalty(dayCount int, loads map[string]map[int]int) float64 {
	if dayCount == 0 {
		return 0
	}
	var penalty float64
	for _, perDay := range loads {
		weekly := 0
		for _, count := range perDay {
			weekly += count
		}
		share := (weekly + dayCount - 1) / dayCount
		for _, count := range perDay {
			if count > share {
				penalty += float64(count - share)
			}
		}
	}
	return penalty
}
