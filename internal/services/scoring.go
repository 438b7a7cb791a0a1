package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	validation "github.com/go-ozzo/ozzo-validation"
	"gorm.io/gorm"
)

// Judging criteria weights, in percent.
const (
	weightVibeProcess = 40
	weightOriginality = 25
	weightExecution   = 20
	weightWowFactor   = 15
)

type ScoreInput struct {
	VibeProcess int    `json:"vibeProcess"`
	Originality int    `json:"originality"`
	Execution   int    `json:"execution"`
	WowFactor   int    `json:"wowFactor"`
	Feedback    string `json:"feedback"`
	IsComplete  bool   `json:"isComplete"`
}

func (in ScoreInput) Validate() error {
	score := []validation.Rule{validation.Min(0), validation.Max(100)}
	return validation.ValidateStruct(&in,
		validation.Field(&in.VibeProcess, score...),
		validation.Field(&in.Originality, score...),
		validation.Field(&in.Execution, score...),
		validation.Field(&in.WowFactor, score...),
		validation.Field(&in.Feedback, validation.RuneLength(0, 5000)),
	)
}

// TotalScore weights the four 0-100 sub-scores into a 0-100 total, rounded
// to two decimals.
func TotalScore(vibeProcess, originality, execution, wowFactor int) float64 {
	sum := vibeProcess*weightVibeProcess + originality*weightOriginality +
		execution*weightExecution + wowFactor*weightWowFactor
	return math.Round(float64(sum)) / 100
}

type ScoringService struct {
	db       *gorm.DB
	notifier Notifier
	baseURL  string
}

func NewScoringService(db *gorm.DB, notifier Notifier, baseURL string) *ScoringService {
	return &ScoringService{db: db, notifier: notifier, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upsert creates or replaces judgeID's score for projectID.
func (s *ScoringService) Upsert(judgeID, projectID uint, in ScoreInput) (*models.JudgeScore, error) {
	in.Feedback = strings.TrimSpace(in.Feedback)
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	var exists int64
	if err := s.db.Model(&models.Project{}).Where("id = ?", projectID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrProjectNotFound
	}

	var score models.JudgeScore
	err := s.db.Where("judge_id = ? AND project_id = ?", judgeID, projectID).First(&score).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	score.JudgeID = judgeID
	score.ProjectID = projectID
	score.VibeProcess = in.VibeProcess
	score.Originality = in.Originality
	score.Execution = in.Execution
	score.WowFactor = in.WowFactor
	score.TotalScore = TotalScore(in.VibeProcess, in.Originality, in.Execution, in.WowFactor)
	score.Feedback = in.Feedback
	score.IsComplete = in.IsComplete

	if err := s.db.Omit("Judge").Save(&score).Error; err != nil {
		if models.IsUniqueViolation(err) {
			// a concurrent first save by the same judge; apply ours on top
			return s.Upsert(judgeID, projectID, in)
		}
		return nil, fmt.Errorf("save judge score: %w", err)
	}

	logger.Infof("[Scoring] Judge %d scored project %d: %.2f (complete=%t)", judgeID, projectID, score.TotalScore, score.IsComplete)
	return &score, nil
}

// AverageScore is the mean total over complete scores, or nil when there
// are none.
func (s *ScoringService) AverageScore(projectID uint) (*float64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := s.db.Model(&models.JudgeScore{}).
		Select("COALESCE(AVG(total_score), 0) AS avg, COUNT(*) AS count").
		Where("project_id = ? AND is_complete = ?", projectID, true).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Count == 0 {
		return nil, nil
	}
	avg := roundScore(row.Avg)
	return &avg, nil
}

// AverageScores is AverageScore for many projects. Projects without
// complete scores are absent.
func (s *ScoringService) AverageScores(projectIDs []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ProjectID uint
		Avg       float64
	}
	err := s.db.Model(&models.JudgeScore{}).
		Select("project_id, AVG(total_score) AS avg").
		Where("project_id IN ? AND is_complete = ?", projectIDs, true).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ProjectID] = roundScore(r.Avg)
	}
	return out, nil
}

func (s *ScoringService) ListScores(projectID uint) ([]models.JudgeScore, error) {
	var scores []models.JudgeScore
	if err := s.db.Preload("Judge").Where("project_id = ?", projectID).Order("id ASC").Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

type RankingEntry struct {
	ProjectID       uint                 `json:"projectId"`
	Title           string               `json:"title"`
	Slug            string               `json:"slug"`
	Status          models.ProjectStatus `json:"status"`
	AverageScore    *float64             `json:"averageScore"`
	JudgeCount      int64                `json:"judgeCount"`
	IsWinner        bool                 `json:"isWinner"`
	IsPeoplesChoice bool                 `json:"isPeoplesChoice"`
	IsStandout      bool                 `json:"isStandout"`
}

// Ranking lists a cycle's projects by average judge score, highest first.
// Unscored projects come last. Ties keep id order.
func (s *ScoringService) Ranking(month, year int) ([]RankingEntry, error) {
	var rows []struct {
		ProjectID       uint
		Title           string
		Slug            string
		Status          models.ProjectStatus
		Avg             *float64
		JudgeCount      int64
		IsWinner        bool
		IsPeoplesChoice bool
		IsStandout      bool
	}
	err := s.db.Table("projects").
		Select(`projects.id AS project_id, projects.title, projects.slug, projects.status,
			AVG(judge_scores.total_score) AS avg, COUNT(judge_scores.id) AS judge_count,
			projects.is_winner, projects.is_peoples_choice, projects.is_standout`).
		Joins("LEFT JOIN judge_scores ON judge_scores.project_id = projects.id AND judge_scores.is_complete = ?", true).
		Where("projects.submission_month = ? AND projects.submission_year = ?", month, year).
		Where("projects.status <> ?", models.ProjectDraft).
		Group("projects.id, projects.title, projects.slug, projects.status, projects.is_winner, projects.is_peoples_choice, projects.is_standout").
		Order("projects.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]RankingEntry, 0, len(rows))
	for _, r := range rows {
		e := RankingEntry{
			ProjectID:       r.ProjectID,
			Title:           r.Title,
			Slug:            r.Slug,
			Status:          r.Status,
			JudgeCount:      r.JudgeCount,
			IsWinner:        r.IsWinner,
			IsPeoplesChoice: r.IsPeoplesChoice,
			IsStandout:      r.IsStandout,
		}
		if r.Avg != nil && r.JudgeCount > 0 {
			avg := roundScore(*r.Avg)
			e.AverageScore = &avg
		}
		entries = append(entries, e)
	}
	sortRanking(entries)
	return entries, nil
}

func sortRanking(entries []RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].AverageScore, entries[j].AverageScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// AwardsInput is the admin's editorial decision. Nil fields are unchanged.
type AwardsInput struct {
	IsWinner        *bool                `json:"isWinner"`
	IsPeoplesChoice *bool                `json:"isPeoplesChoice"`
	IsStandout      *bool                `json:"isStandout"`
	Status          models.ProjectStatus `json:"status"`
	AwardName       string               `json:"awardName"`
}

// SetAwards applies award flags. The owner is notified when the project
// becomes a winner.
func (s *ScoringService) SetAwards(adminID, projectID uint, in AwardsInput) (*models.Project, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, newValidationError(fmt.Errorf("status: unknown project status %q", in.Status))
	}

	var project models.Project
	if err := s.db.Preload("User").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	wasWinner := project.IsWinner
	updates := map[string]interface{}{}
	if in.IsWinner != nil {
		updates["is_winner"] = *in.IsWinner
		project.IsWinner = *in.IsWinner
	}
	if in.IsPeoplesChoice != nil {
		updates["is_peoples_choice"] = *in.IsPeoplesChoice
		project.IsPeoplesChoice = *in.IsPeoplesChoice
	}
	if in.IsStandout != nil {
		updates["is_standout"] = *in.IsStandout
		project.IsStandout = *in.IsStandout
	}
	if in.Status != "" {
		updates["status"] = in.Status
		project.Status = in.Status
	}
	if len(updates) == 0 {
		return &project, nil
	}

	if err := s.db.Model(&models.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update awards: %w", err)
	}

	logger.Infof("[Scoring] Admin %d updated awards for project %d: %v", adminID, project.ID, updates)
	LogInfo("Scoring", "SetAwards", fmt.Sprintf("Awards updated for project %q", project.Title), uintPtr(adminID), "", "", updates)

	if !wasWinner && project.IsWinner && project.User != nil {
		award := in.AwardName
		if award == "" {
			award = "the Vibe Coding Award winner"
		}
		s.notifier.Dispatch(models.KindWinnerNotification, project.User.Email, map[string]interface{}{
			"Name":         project.User.Name,
			"ProjectTitle": project.Title,
			"AwardName":    award,
			"MonthName":    monthName(project.SubmissionMonth),
			"Year":         project.SubmissionYear,
			"WinnersURL":   s.baseURL + "/winners",
		})
	}
	return &project, nil
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
