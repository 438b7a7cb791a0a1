package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

// Day-of-month boundaries. Each phase runs from its start day at 00:00 up to,
// but excluding, the next boundary.
const (
	submissionStartDay = 1
	votingStartDay     = 21
	judgingStartDay    = 28
	announcementDay    = 30
)

// CycleService owns AwardCycle rows and the calendar arithmetic around them.
type CycleService struct {
	db    *gorm.DB
	loc   *time.Location
	clock func() time.Time
}

func NewCycleService(db *gorm.DB, loc *time.Location) *CycleService {
	if loc == nil {
		loc = time.UTC
	}
	return &CycleService{db: db, loc: loc, clock: time.Now}
}

// SetClock replaces the wall clock. Tests use it to pin "now".
func (s *CycleService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Now returns the current time in the cycle timezone.
func (s *CycleService) Now() time.Time {
	return s.clock().In(s.loc)
}

func (s *CycleService) Location() *time.Location {
	return s.loc
}

// MonthOf returns the (month, year) that t falls in, in the cycle timezone.
func (s *CycleService) MonthOf(t time.Time) (int, int) {
	t = t.In(s.loc)
	return int(t.Month()), t.Year()
}

// BuildCycle computes the phase boundaries for a month. Boundaries past the
// end of a short month collapse onto the first instant of the next month.
func BuildCycle(month, year int, loc *time.Location) models.AwardCycle {
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc).Day()
	day := func(d int) time.Time {
		if d > lastDay {
			d = lastDay + 1
		}
		return time.Date(year, time.Month(month), d, 0, 0, 0, 0, loc)
	}

	c := models.AwardCycle{
		Month:            month,
		Year:             year,
		SubmissionStart:  day(submissionStartDay),
		SubmissionEnd:    day(votingStartDay),
		VotingStart:      day(votingStartDay),
		VotingEnd:        day(judgingStartDay),
		JudgingStart:     day(judgingStartDay),
		JudgingEnd:       day(announcementDay),
		AnnouncementDate: day(announcementDay),
		Status:           models.CycleSubmissionOpen,
	}
	return c
}

// PhaseAt returns the status implied by t for cycle c.
func PhaseAt(c *models.AwardCycle, t time.Time) models.CycleStatus {
	switch {
	case t.Before(c.VotingStart):
		return models.CycleSubmissionOpen
	case t.Before(c.JudgingStart):
		return models.CycleVoting
	case t.Before(c.JudgingEnd):
		return models.CycleJudging
	default:
		return models.CycleCompleted
	}
}

// SubmissionOpenAt reports whether t lies inside the submission window.
func SubmissionOpenAt(c *models.AwardCycle, t time.Time) bool {
	return !t.Before(c.SubmissionStart) && t.Before(c.SubmissionEnd)
}

// VotingOpenAt reports whether t lies inside the voting window.
func VotingOpenAt(c *models.AwardCycle, t time.Time) bool {
	return !t.Before(c.VotingStart) && t.Before(c.VotingEnd)
}

func (s *CycleService) Get(month, year int) (*models.AwardCycle, error) {
	var cycle models.AwardCycle
	err := s.db.Where("month = ? AND year = ?", month, year).First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCycleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// Current returns the cycle for the month containing now.
func (s *CycleService) Current() (*models.AwardCycle, error) {
	return s.Get(s.MonthOf(s.Now()))
}

// Create creates the cycle for the current month. When it already exists the
// stored record is returned untouched with created=false.
func (s *CycleService) Create() (*models.AwardCycle, bool, error) {
	month, year := s.MonthOf(s.Now())
	return s.CreateFor(month, year)
}

// CreateFor creates the cycle for an explicit month. A unique-constraint
// violation from a concurrent insert is reported as "already exists".
func (s *CycleService) CreateFor(month, year int) (*models.AwardCycle, bool, error) {
	if month < 1 || month > 12 {
		return nil, false, newValidationError(fmt.Errorf("month: must be between 1 and 12"))
	}
	if year < 2000 || year > 9999 {
		return nil, false, newValidationError(fmt.Errorf("year: out of range"))
	}

	existing, err := s.Get(month, year)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrCycleNotFound) {
		return nil, false, err
	}

	cycle := BuildCycle(month, year, s.loc)
	cycle.Status = PhaseAt(&cycle, s.Now())

	if err := s.db.Create(&cycle).Error; err != nil {
		if models.IsUniqueViolation(err) {
			existing, getErr := s.Get(month, year)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create cycle: %w", err)
	}

	logger.Infof("[Cycle] Created award cycle %02d/%d", month, year)
	LogInfo("Cycle", "Create", fmt.Sprintf("Created award cycle %02d/%d", month, year), nil, "", "", map[string]interface{}{
		"cycle_id": cycle.ID,
		"status":   cycle.Status,
	})
	return &cycle, true, nil
}

// SyncStatus persists the phase implied by the clock on the current cycle.
func (s *CycleService) SyncStatus() (*models.AwardCycle, error) {
	cycle, err := s.Current()
	if err != nil {
		return nil, err
	}

	phase := PhaseAt(cycle, s.Now())
	if phase == cycle.Status {
		return cycle, nil
	}

	prev := cycle.Status
	if err := s.db.Model(cycle).Update("status", phase).Error; err != nil {
		return nil, err
	}
	cycle.Status = phase

	logger.Infof("[Cycle] %02d/%d moved %s -> %s", cycle.Month, cycle.Year, prev, phase)
	LogInfo("Cycle", "Sync", fmt.Sprintf("Cycle %02d/%d moved from %s to %s", cycle.Month, cycle.Year, prev, phase), nil, "", "", nil)
	return cycle, nil
}

// List returns all cycles, newest first.
func (s *CycleService) List() ([]models.AwardCycle, error) {
	var cycles []models.AwardCycle
	if err := s.db.Order("year DESC, month DESC").Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

// CycleInfo is a cycle with the phase derived from the clock, which may be
// ahead of the stored status between scheduler runs.
type CycleInfo struct {
	*models.AwardCycle
	Phase           models.CycleStatus `json:"phase"`
	SubmissionsOpen bool               `json:"submissionsOpen"`
	VotingOpen      bool               `json:"votingOpen"`
}

func (s *CycleService) Info(c *models.AwardCycle) *CycleInfo {
	now := s.Now()
	return &CycleInfo{
		AwardCycle:      c,
		Phase:           PhaseAt(c, now),
		SubmissionsOpen: SubmissionOpenAt(c, now),
		VotingOpen:      VotingOpenAt(c, now),
	}
}
