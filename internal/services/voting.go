package services

import (
	"errors"
	"fmt"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

// VotingService enforces one community vote per user, project and cycle.
// Votes are keyed by the month/year stamped on the project, never by the
// wall clock.
type VotingService struct {
	db  *gorm.DB
	hub *SSEHub
}

// NewVotingService returns a voting service. hub may be nil.
func NewVotingService(db *gorm.DB, hub *SSEHub) *VotingService {
	return &VotingService{db: db, hub: hub}
}

func (s *VotingService) publish(projectID uint, count int64) {
	if s.hub != nil {
		s.hub.Publish(VoteEvent{ProjectID: projectID, VoteCount: count})
	}
}

type VoteResult struct {
	Vote      *models.Vote `json:"vote,omitempty"`
	Voted     bool         `json:"voted"`
	VoteCount int64        `json:"voteCount"`
}

func (s *VotingService) loadProject(projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Select("id", "user_id", "status", "submission_month", "submission_year").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Cast records userID's vote. The checks run in order: project exists, it
// is SUBMITTED, the voter is not the owner, and no vote exists yet.
func (s *VotingService) Cast(userID, projectID uint) (*VoteResult, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectSubmitted {
		return nil, ErrProjectNotVotable
	}
	if project.UserID == userID {
		return nil, ErrSelfVote
	}

	voted, err := s.hasVote(userID, project)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	vote := models.Vote{
		UserID:    userID,
		ProjectID: project.ID,
		Month:     project.SubmissionMonth,
		Year:      project.SubmissionYear,
	}
	if err := s.db.Omit("Project").Create(&vote).Error; err != nil {
		// lost the race against a concurrent cast
		if models.IsUniqueViolation(err) {
			return nil, ErrAlreadyVoted
		}
		return nil, fmt.Errorf("cast vote: %w", err)
	}

	count, err := s.Count(project.ID)
	if err != nil {
		return nil, err
	}

	logger.Debug().Uint("user_id", userID).Uint("project_id", project.ID).Int64("count", count).Msg("[Vote] cast")
	s.publish(project.ID, count)
	return &VoteResult{Vote: &vote, Voted: true, VoteCount: count}, nil
}

// Retract removes userID's vote and returns the new count.
func (s *VotingService) Retract(userID, projectID uint) (int64, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return 0, err
	}

	result := s.db.Where("user_id = ? AND project_id = ? AND month = ? AND year = ?",
		userID, project.ID, project.SubmissionMonth, project.SubmissionYear).
		Delete(&models.Vote{})
	if result.Error != nil {
		return 0, fmt.Errorf("retract vote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrVoteNotFound
	}

	count, err := s.Count(project.ID)
	if err != nil {
		return 0, err
	}
	logger.Debug().Uint("user_id", userID).Uint("project_id", project.ID).Int64("count", count).Msg("[Vote] retracted")
	s.publish(project.ID, count)
	return count, nil
}

// Toggle casts when no vote exists and retracts otherwise.
func (s *VotingService) Toggle(userID, projectID uint) (*VoteResult, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}
	voted, err := s.hasVote(userID, project)
	if err != nil {
		return nil, err
	}
	if !voted {
		return s.Cast(userID, projectID)
	}
	count, err := s.Retract(userID, projectID)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Voted: false, VoteCount: count}, nil
}

func (s *VotingService) hasVote(userID uint, project *models.Project) (bool, error) {
	var count int64
	err := s.db.Model(&models.Vote{}).
		Where("user_id = ? AND project_id = ? AND month = ? AND year = ?",
			userID, project.ID, project.SubmissionMonth, project.SubmissionYear).
		Count(&count).Error
	return count > 0, err
}

func (s *VotingService) HasVoted(userID, projectID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	project, err := s.loadProject(projectID)
	if err != nil {
		return false, err
	}
	return s.hasVote(userID, project)
}

func (s *VotingService) Count(projectID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Vote{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// CountMany returns vote counts keyed by project id. Projects without votes
// are absent from the map.
func (s *VotingService) CountMany(projectIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProjectID uint
		Count     int64
	}
	err := s.db.Model(&models.Vote{}).
		Select("project_id, COUNT(*) AS count").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ProjectID] = r.Count
	}
	return counts, nil
}

// VotedProjectIDs returns the subset of projectIDs that userID voted for.
func (s *VotingService) VotedProjectIDs(userID uint, projectIDs []uint) (map[uint]bool, error) {
	voted := make(map[uint]bool)
	if userID == 0 || len(projectIDs) == 0 {
		return voted, nil
	}
	var ids []uint
	if err := s.db.Model(&models.Vote{}).
		Where("user_id = ? AND project_id IN ?", userID, projectIDs).
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}

// VotesByUser lists the user's votes for a cycle, with the projects loaded.
// month/year of zero mean all cycles.
func (s *VotingService) VotesByUser(userID uint, month, year int) ([]models.Vote, error) {
	query := s.db.Preload("Project").Where("user_id = ?", userID)
	if month > 0 && year > 0 {
		query = query.Where("month = ? AND year = ?", month, year)
	}
	var votes []models.Vote
	if err := query.Order("created_at DESC, id DESC").Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

type LeaderboardEntry struct {
	ProjectID uint   `json:"projectId"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	VoteCount int64  `json:"voteCount"`
}

// Leaderboard ranks a cycle's projects by community votes. The first entry
// is the People's Choice candidate; the flag itself is set by an admin.
func (s *VotingService) Leaderboard(month, year, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []LeaderboardEntry
	err := s.db.Table("projects").
		Select("projects.id AS project_id, projects.title, projects.slug, COUNT(votes.id) AS vote_count").
		Joins("LEFT JOIN votes ON votes.project_id = projects.id").
		Where("projects.submission_month = ? AND projects.submission_year = ?", month, year).
		Where("projects.status <> ?", models.ProjectDraft).
		Group("projects.id, projects.title, projects.slug").
		Order("vote_count DESC, projects.id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
