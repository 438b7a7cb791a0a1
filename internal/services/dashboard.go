package services

import (
	"errors"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db       *gorm.DB
	cycles   *CycleService
	projects *ProjectService
	votes    *VotingService
}

func NewDashboardService(db *gorm.DB, cycles *CycleService, projects *ProjectService, votes *VotingService) *DashboardService {
	return &DashboardService{db: db, cycles: cycles, projects: projects, votes: votes}
}

type VotedProject struct {
	ProjectID uint                 `json:"projectId"`
	Title     string               `json:"title"`
	Slug      string               `json:"slug"`
	Status    models.ProjectStatus `json:"status"`
	VotedAt   time.Time            `json:"votedAt"`
}

type UserDashboard struct {
	User          *models.User   `json:"user"`
	Projects      []ProjectView  `json:"projects"`
	VotedProjects []VotedProject `json:"votedProjects"`
	Cycle         *CycleInfo     `json:"cycle"`
}

// UserDashboard gathers the signed-in user's projects and this cycle's votes.
func (s *DashboardService) UserDashboard(userID uint) (*UserDashboard, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	projects, err := s.projects.ByOwner(userID)
	if err != nil {
		return nil, err
	}

	month, year := s.cycles.MonthOf(s.cycles.Now())
	votes, err := s.votes.VotesByUser(userID, month, year)
	if err != nil {
		return nil, err
	}
	voted := make([]VotedProject, 0, len(votes))
	for _, v := range votes {
		if v.Project == nil {
			continue
		}
		voted = append(voted, VotedProject{
			ProjectID: v.ProjectID,
			Title:     v.Project.Title,
			Slug:      v.Project.Slug,
			Status:    v.Project.Status,
			VotedAt:   v.CreatedAt,
		})
	}

	dash := &UserDashboard{User: &user, Projects: projects, VotedProjects: voted}
	cycle, err := s.cycles.Current()
	switch {
	case err == nil:
		dash.Cycle = s.cycles.Info(cycle)
	case !errors.Is(err, ErrCycleNotFound):
		return nil, err
	}
	return dash, nil
}

type AdminStats struct {
	Month             int                `json:"month"`
	Year              int                `json:"year"`
	Users             int64              `json:"users"`
	Projects          int64              `json:"projects"`
	CycleProjects     int64              `json:"cycleProjects"`
	CycleVotes        int64              `json:"cycleVotes"`
	PendingComments   int64              `json:"pendingComments"`
	Subscribers       int64              `json:"subscribers"`
	ScoredProjects    int64              `json:"scoredProjects"`
	CategoryBreakdown []CategoryCount    `json:"categoryBreakdown"`
	TopVoted          []LeaderboardEntry `json:"topVoted"`
	Cycle             *CycleInfo         `json:"cycle,omitempty"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// AdminStats summarises the platform for the current month unless month
// and year are given.
func (s *DashboardService) AdminStats(month, year int) (*AdminStats, error) {
	if month == 0 || year == 0 {
		month, year = s.cycles.MonthOf(s.cycles.Now())
	}
	stats := &AdminStats{Month: month, Year: year}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Users, s.db.Model(&models.User{})},
		{&stats.Projects, s.db.Model(&models.Project{}).Where("status <> ?", models.ProjectDraft)},
		{&stats.CycleProjects, s.db.Model(&models.Project{}).Where("submission_month = ? AND submission_year = ?", month, year)},
		{&stats.CycleVotes, s.db.Model(&models.Vote{}).Where("month = ? AND year = ?", month, year)},
		{&stats.PendingComments, s.db.Model(&models.Comment{}).Where("is_approved = ?", false)},
		{&stats.Subscribers, s.db.Model(&models.NewsletterSubscriber{}).Where("is_active = ?", true)},
		{&stats.ScoredProjects, s.db.Model(&models.JudgeScore{}).
			Joins("JOIN projects ON projects.id = judge_scores.project_id").
			Where("judge_scores.is_complete = ? AND projects.submission_month = ? AND projects.submission_year = ?", true, month, year).
			Distinct("judge_scores.project_id")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&models.Project{}).
		Select("category, COUNT(*) AS count").
		Where("submission_month = ? AND submission_year = ?", month, year).
		Group("category").
		Order("count DESC, category ASC").
		Scan(&stats.CategoryBreakdown).Error; err != nil {
		return nil, err
	}

	top, err := s.votes.Leaderboard(month, year, 5)
	if err != nil {
		return nil, err
	}
	stats.TopVoted = top

	if cycle, err := s.cycles.Get(month, year); err == nil {
		stats.Cycle = s.cycles.Info(cycle)
	}
	return stats, nil
}
