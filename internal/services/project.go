package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	"gorm.io/gorm"
)

// ProjectView is a project with its aggregates for display.
type ProjectView struct {
	models.Project
	VoteCount    int64            `json:"voteCount"`
	AverageScore *float64         `json:"averageScore"`
	HasVoted     bool             `json:"hasVoted"`
	Comments     []models.Comment `json:"comments,omitempty"`
}

type ProjectListRequest struct {
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
	Category string `form:"category"`
	Month    int    `form:"month"`
	Year     int    `form:"year"`
	Search   string `form:"search"`
	Sort     string `form:"sort"` // newest, oldest, votes
	Status   string `form:"status"`
}

type ProjectListResponse struct {
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Items  []ProjectView `json:"items"`
}

type ProjectService struct {
	db     *gorm.DB
	votes  *VotingService
	scores *ScoringService
}

func NewProjectService(db *gorm.DB, votes *VotingService, scores *ScoringService) *ProjectService {
	return &ProjectService{db: db, votes: votes, scores: scores}
}

// publicUser limits the preloaded owner to what anonymous visitors may see.
func publicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "image")
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns submitted projects for the public gallery. Drafts are never
// listed.
func (s *ProjectService) List(req *ProjectListRequest, viewerID uint) (*ProjectListResponse, error) {
	req.Limit, req.Offset = normalizePage(req.Limit, req.Offset)

	query := s.db.Model(&models.Project{}).Where("status <> ?", models.ProjectDraft)
	if req.Category != "" {
		query = query.Where("category = ?", strings.ToLower(req.Category))
	}
	if req.Month > 0 {
		query = query.Where("submission_month = ?", req.Month)
	}
	if req.Year > 0 {
		query = query.Where("submission_year = ?", req.Year)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	switch req.Sort {
	case "oldest":
		query = query.Order("submitted_at ASC, id ASC")
	case "votes":
		query = query.Order("(SELECT COUNT(*) FROM votes WHERE votes.project_id = projects.id) DESC, id DESC")
	default:
		query = query.Order("submitted_at DESC, id DESC")
	}

	var projects []models.Project
	if err := query.Preload("User", publicUser).
		Offset(req.Offset).Limit(req.Limit).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	items, err := s.withAggregates(projects, viewerID)
	if err != nil {
		return nil, err
	}
	return &ProjectListResponse{Total: total, Limit: req.Limit, Offset: req.Offset, Items: items}, nil
}

func (s *ProjectService) withAggregates(projects []models.Project, viewerID uint) ([]ProjectView, error) {
	ids := make([]uint, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	counts, err := s.votes.CountMany(ids)
	if err != nil {
		return nil, err
	}
	averages, err := s.scores.AverageScores(ids)
	if err != nil {
		return nil, err
	}
	voted, err := s.votes.VotedProjectIDs(viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ProjectView, len(projects))
	for i, p := range projects {
		views[i] = ProjectView{Project: p, VoteCount: counts[p.ID], HasVoted: voted[p.ID]}
		if avg, ok := averages[p.ID]; ok {
			avg := avg
			views[i].AverageScore = &avg
		}
	}
	return views, nil
}

// Find looks a project up by numeric id or by slug.
func (s *ProjectService) Find(idOrSlug string) (*models.Project, error) {
	var project models.Project
	query := s.db
	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}
	if err := query.First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// GetDetail loads the full project page. Drafts and team member emails are
// visible to the owner only.
func (s *ProjectService) GetDetail(idOrSlug string, viewerID uint) (*ProjectView, error) {
	project, err := s.Find(idOrSlug)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectDraft && project.UserID != viewerID {
		return nil, ErrProjectNotFound
	}

	err = s.db.
		Preload("User", publicUser).
		Preload("TeamMembers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		First(project, project.ID).Error
	if err != nil {
		return nil, err
	}

	if project.UserID != viewerID {
		for i := range project.TeamMembers {
			project.TeamMembers[i].Email = ""
		}
	}

	view := &ProjectView{Project: *project}
	if view.VoteCount, err = s.votes.Count(project.ID); err != nil {
		return nil, err
	}
	if view.AverageScore, err = s.scores.AverageScore(project.ID); err != nil {
		return nil, err
	}
	if view.HasVoted, err = s.votes.HasVoted(viewerID, project.ID); err != nil {
		return nil, err
	}
	if err := s.db.Preload("User", publicUser).
		Where("project_id = ? AND is_approved = ?", project.ID, true).
		Order("created_at ASC, id ASC").
		Find(&view.Comments).Error; err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a project and everything attached to it. Owners may delete
// their own projects; admins may delete any.
func (s *ProjectService) Delete(userID uint, isAdmin bool, projectID uint) error {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if !isAdmin && project.UserID != userID {
		return ErrNotProjectOwner
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&project).Error
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	logger.Infof("[Project] Project %d deleted by user %d (admin=%t)", project.ID, userID, isAdmin)
	LogInfo("Project", "Delete", fmt.Sprintf("Project %q deleted", project.Title), uintPtr(userID), "", "", map[string]interface{}{
		"project_id": project.ID,
		"admin":      isAdmin,
	})
	return nil
}

type AdminProjectListRequest struct {
	Status string `form:"status"`
	Month  int    `form:"month"`
	Year   int    `form:"year"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// AdminList returns submissions of every status with owner contact details.
func (s *ProjectService) AdminList(req *AdminProjectListRequest) (*ProjectListResponse, error) {
	req.Limit, req.Offset = normalizePage(req.Limit, req.Offset)

	query := s.db.Model(&models.Project{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Month > 0 {
		query = query.Where("submission_month = ?", req.Month)
	}
	if req.Year > 0 {
		query = query.Where("submission_year = ?", req.Year)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := query.Preload("User").Preload("TeamMembers").
		Order("submitted_at DESC, id DESC").
		Offset(req.Offset).Limit(req.Limit).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	items, err := s.withAggregates(projects, 0)
	if err != nil {
		return nil, err
	}
	return &ProjectListResponse{Total: total, Limit: req.Limit, Offset: req.Offset, Items: items}, nil
}

// UpdateStatus moves a project through the editorial workflow.
func (s *ProjectService) UpdateStatus(adminID, projectID uint, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, newValidationError(fmt.Errorf("status: unknown project status %q", status))
	}
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	prev := project.Status
	if err := s.db.Model(&project).Update("status", status).Error; err != nil {
		return nil, err
	}
	project.Status = status

	logger.Infof("[Project] Admin %d moved project %d from %s to %s", adminID, project.ID, prev, status)
	LogInfo("Project", "UpdateStatus", fmt.Sprintf("Project %q moved from %s to %s", project.Title, prev, status), uintPtr(adminID), "", "", nil)
	return &project, nil
}

// Winners lists awarded projects, newest cycle first. Zero month/year
// returns every cycle.
func (s *ProjectService) Winners(month, year int) ([]ProjectView, error) {
	query := s.db.Model(&models.Project{}).
		Where("is_winner = ? OR is_peoples_choice = ? OR is_standout = ?", true, true, true)
	if month > 0 {
		query = query.Where("submission_month = ?", month)
	}
	if year > 0 {
		query = query.Where("submission_year = ?", year)
	}

	var projects []models.Project
	if err := query.Preload("User", publicUser).
		Order("submission_year DESC, submission_month DESC, is_winner DESC, is_peoples_choice DESC, id ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return s.withAggregates(projects, 0)
}

// ByOwner lists a user's own projects, drafts included.
func (s *ProjectService) ByOwner(userID uint) ([]ProjectView, error) {
	var projects []models.Project
	if err := s.db.Where("user_id = ?", userID).Order("submitted_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return s.withAggregates(projects, userID)
}
