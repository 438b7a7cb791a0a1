package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/Davide9292/Vibe-Coding-Award-sub000/pkg/logger"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	minDescriptionLength   = 50
	minVibeNarrativeLength = 100
	maxListItems           = 10
)

// Identity is the signed-in caller as known to the session.
type Identity struct {
	UserID uint
	Email  string
	Name   string
	Image  string
}

type TeamMemberInput struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	GitHub string `json:"github"`
}

func (m TeamMemberInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&m.Role, validation.RuneLength(0, 100)),
		validation.Field(&m.Email, is.Email),
		validation.Field(&m.GitHub, validation.RuneLength(0, 100)),
	)
}

// httpURL accepts absolute http(s) URLs only; empty values pass.
var httpURL = []validation.Rule{
	is.RequestURL,
	validation.Match(regexp.MustCompile(`(?i)^https?://`)).Error("must be an http or https URL"),
}

type MediaInput struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

func (m MediaInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Type, validation.Required, validation.In(models.MediaImage, models.MediaVideo)),
		validation.Field(&m.URL, append([]validation.Rule{validation.Required}, httpURL...)...),
		validation.Field(&m.Caption, validation.RuneLength(0, 300)),
	)
}

// ProjectInput is the submission form.
type ProjectInput struct {
	Title               string            `json:"title"`
	Description         string            `json:"description"`
	VibeNarrative       string            `json:"vibeNarrative"`
	Category            string            `json:"category"`
	Tags                []string          `json:"tags"`
	AITools             []string          `json:"aiTools"`
	DemoURL             string            `json:"demoUrl"`
	RepoURL             string            `json:"repoUrl"`
	VideoURL            string            `json:"videoUrl"`
	DownloadURL         string            `json:"downloadUrl"`
	AIGeneratedPercent  int               `json:"aiGeneratedPercent"`
	AIRefactoredPercent int               `json:"aiRefactoredPercent"`
	HumanWrittenPercent int               `json:"humanWrittenPercent"`
	TeamMembers         []TeamMemberInput `json:"teamMembers"`
	Media               []MediaInput      `json:"media"`
}

// Normalize trims every text field and drops blank list entries.
func (in *ProjectInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.VibeNarrative = strings.TrimSpace(in.VibeNarrative)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.DemoURL = strings.TrimSpace(in.DemoURL)
	in.RepoURL = strings.TrimSpace(in.RepoURL)
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	in.DownloadURL = strings.TrimSpace(in.DownloadURL)
	in.Tags = compactStrings(in.Tags)
	in.AITools = compactStrings(in.AITools)
	for i := range in.TeamMembers {
		m := &in.TeamMembers[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Role = strings.TrimSpace(m.Role)
		m.Email = strings.TrimSpace(m.Email)
		m.GitHub = strings.TrimPrefix(strings.TrimSpace(m.GitHub), "@")
	}
	for i := range in.Media {
		m := &in.Media[i]
		m.Type = strings.ToUpper(strings.TrimSpace(m.Type))
		m.URL = strings.TrimSpace(m.URL)
		m.Caption = strings.TrimSpace(m.Caption)
	}
}

func (in ProjectInput) Validate() error {
	categories := make([]interface{}, len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = c
	}
	percent := []validation.Rule{validation.Min(0), validation.Max(100)}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Description, validation.Required, validation.RuneLength(minDescriptionLength, 5000)),
		validation.Field(&in.VibeNarrative, validation.Required, validation.RuneLength(minVibeNarrativeLength, 10000)),
		validation.Field(&in.Category, validation.Required, validation.In(categories...)),
		validation.Field(&in.Tags, validation.Length(0, maxListItems)),
		validation.Field(&in.AITools, validation.Required.Error("select at least one AI tool"), validation.Length(1, maxListItems)),
		validation.Field(&in.DemoURL, httpURL...),
		validation.Field(&in.RepoURL, httpURL...),
		validation.Field(&in.VideoURL, httpURL...),
		validation.Field(&in.DownloadURL, httpURL...),
		validation.Field(&in.AIGeneratedPercent, percent...),
		validation.Field(&in.AIRefactoredPercent, percent...),
		validation.Field(&in.HumanWrittenPercent, percent...),
		validation.Field(&in.TeamMembers, validation.Length(0, maxListItems)),
		validation.Field(&in.Media, validation.Length(0, maxListItems)),
	)
	if err != nil {
		return err
	}

	// the breakdown is optional; when given it has to add up
	sum := in.AIGeneratedPercent + in.AIRefactoredPercent + in.HumanWrittenPercent
	if sum != 0 && sum != 100 {
		return validation.Errors{"humanWrittenPercent": errors.New("percentages must add up to 100")}
	}
	return nil
}

// SubmitResult is returned to the submitter.
type SubmitResult struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Slug        string               `json:"slug"`
	Status      models.ProjectStatus `json:"status"`
	SubmittedAt time.Time            `json:"submittedAt"`
	Month       int                  `json:"submissionMonth"`
	Year        int                  `json:"submissionYear"`
	Warning     string               `json:"warning,omitempty"`
}

type SubmissionService struct {
	db       *gorm.DB
	cycles   *CycleService
	notifier Notifier
	baseURL  string
}

func NewSubmissionService(db *gorm.DB, cycles *CycleService, notifier Notifier, baseURL string) *SubmissionService {
	return &SubmissionService{db: db, cycles: cycles, notifier: notifier, baseURL: strings.TrimRight(baseURL, "/")}
}

// Submit validates in, then creates the project with its team and media in
// one transaction. Nothing is written when validation fails.
func (s *SubmissionService) Submit(id Identity, in ProjectInput) (*SubmitResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	user, err := s.ResolveUser(id)
	if err != nil {
		return nil, err
	}

	now := s.cycles.Now()
	month, year := s.cycles.MonthOf(now)
	warning := s.windowWarning(now, month, year)
	if warning != "" {
		logger.Warn().Uint("user_id", user.ID).Int("month", month).Int("year", year).Msg("[Submission] " + warning)
	}

	project := models.Project{
		UserID:          user.ID,
		Status:          models.ProjectSubmitted,
		SubmissionMonth: month,
		SubmissionYear:  year,
		SubmittedAt:     now,
		TeamMembers:     teamMembersFrom(in.TeamMembers),
		Media:           mediaFrom(in.Media),
	}
	applyInput(&project, &in)

	if err := s.create(&project); err != nil {
		return nil, err
	}

	logger.Infof("[Submission] Project %d %q submitted by user %d for %02d/%d", project.ID, project.Title, user.ID, month, year)
	LogInfo("Submission", "Submit", fmt.Sprintf("Project %q submitted", project.Title), uintPtr(user.ID), "", "", map[string]interface{}{
		"project_id": project.ID,
		"month":      month,
		"year":       year,
	})

	s.notifier.Dispatch(models.KindSubmissionConfirmation, user.Email, map[string]interface{}{
		"Name":         user.Name,
		"ProjectTitle": project.Title,
		"MonthName":    monthName(month),
		"Year":         year,
		"ProjectURL":   s.projectURL(project.Slug),
	})

	return &SubmitResult{
		ID:          project.ID,
		Title:       project.Title,
		Slug:        project.Slug,
		Status:      project.Status,
		SubmittedAt: project.SubmittedAt,
		Month:       month,
		Year:        year,
		Warning:     warning,
	}, nil
}

// create inserts the project graph. A slug collision from a concurrent
// submission gets a fresh suffix and another try.
func (s *SubmissionService) create(project *models.Project) error {
	base := project.Title
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		project.Slug, err = s.uniqueSlug(base, attempt > 0)
		if err != nil {
			return err
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			return tx.Omit("User").Create(project).Error
		})
		if err == nil {
			return nil
		}
		if !models.IsUniqueViolation(err) {
			break
		}
		project.ID = 0
		for i := range project.TeamMembers {
			project.TeamMembers[i].ID = 0
		}
		for i := range project.Media {
			project.Media[i].ID = 0
		}
	}
	return fmt.Errorf("create project: %w", err)
}

func (s *SubmissionService) uniqueSlug(title string, forceSuffix bool) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "project"
	} else if allDigits(base) {
		// numeric path segments resolve as ids
		base = "project-" + base
	}
	if len(base) > 200 {
		base = strings.Trim(base[:200], "-")
	}
	if !forceSuffix {
		var count int64
		if err := s.db.Model(&models.Project{}).Where("slug = ?", base).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return base, nil
		}
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *SubmissionService) windowWarning(now time.Time, month, year int) string {
	cycle, err := s.cycles.Get(month, year)
	if errors.Is(err, ErrCycleNotFound) {
		return fmt.Sprintf("no award cycle exists for %02d/%d; the project is stamped for that month anyway", month, year)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("[Submission] cycle lookup failed")
		return ""
	}
	if !SubmissionOpenAt(cycle, now) {
		return fmt.Sprintf("the submission window for %02d/%d is closed; the project is stamped for that month anyway", month, year)
	}
	return ""
}

// ResolveUser finds the caller by id, then by email, and creates the account
// when neither matches.
func (s *SubmissionService) ResolveUser(id Identity) (*models.User, error) {
	return resolveUser(s.db, id)
}

func resolveUser(db *gorm.DB, id Identity) (*models.User, error) {
	var user models.User
	if id.UserID != 0 {
		err := db.First(&user, id.UserID).Error
		if err == nil {
			return activeUser(&user)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, ErrUserNotFound
	}
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return activeUser(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Email:    email,
		Name:     strings.TrimSpace(id.Name),
		Image:    id.Image,
		Role:     models.RoleUser,
		Provider: "email",
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		if models.IsUniqueViolation(err) {
			if err := db.Where("email = ?", email).First(&user).Error; err != nil {
				return nil, err
			}
			return activeUser(&user)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Infof("[Submission] Auto-provisioned user %d (%s)", user.ID, email)
	return &user, nil
}

func activeUser(u *models.User) (*models.User, error) {
	if !u.IsActive {
		return nil, ErrUserDisabled
	}
	return u, nil
}

// Update edits a project while its month's submission window is open.
// Only the owner may edit; team and media lists are replaced wholesale.
func (s *SubmissionService) Update(userID, projectID uint, in ProjectInput) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if project.UserID != userID {
		return nil, ErrNotProjectOwner
	}
	if !s.Editable(&project) {
		return nil, ErrProjectLocked
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}
	applyInput(&project, &in)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("User", "TeamMembers", "Media").Save(&project).Error; err != nil {
			return err
		}
		members := teamMembersFrom(in.TeamMembers)
		for i := range members {
			members[i].ProjectID = project.ID
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}
		media := mediaFrom(in.Media)
		for i := range media {
			media[i].ProjectID = project.ID
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}
		project.TeamMembers = members
		project.Media = media
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	logger.Infof("[Submission] Project %d updated by owner %d", project.ID, userID)
	return &project, nil
}

// Editable reports whether the owner may still change p.
func (s *SubmissionService) Editable(p *models.Project) bool {
	if p.Status != models.ProjectSubmitted {
		return false
	}
	now := s.cycles.Now()
	cycle, err := s.cycles.Get(p.SubmissionMonth, p.SubmissionYear)
	if err != nil {
		c := BuildCycle(p.SubmissionMonth, p.SubmissionYear, s.cycles.Location())
		cycle = &c
	}
	return SubmissionOpenAt(cycle, now)
}

func (s *SubmissionService) projectURL(slug string) string {
	return s.baseURL + "/projects/" + slug
}

func applyInput(p *models.Project, in *ProjectInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.VibeNarrative = in.VibeNarrative
	p.Category = in.Category
	p.Tags = in.Tags
	p.AITools = in.AITools
	p.DemoURL = in.DemoURL
	p.RepoURL = in.RepoURL
	p.VideoURL = in.VideoURL
	p.DownloadURL = in.DownloadURL
	p.AIGeneratedPercent = in.AIGeneratedPercent
	p.AIRefactoredPercent = in.AIRefactoredPercent
	p.HumanWrittenPercent = in.HumanWrittenPercent
}

func teamMembersFrom(in []TeamMemberInput) []models.TeamMember {
	out := make([]models.TeamMember, 0, len(in))
	for _, m := range in {
		out = append(out, models.TeamMember{Name: m.Name, Role: m.Role, Email: m.Email, GitHub: m.GitHub})
	}
	return out
}

func mediaFrom(in []MediaInput) []models.Media {
	out := make([]models.Media, 0, len(in))
	for i, m := range in {
		out = append(out, models.Media{Type: m.Type, URL: m.URL, Caption: m.Caption, Order: i})
	}
	return out
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
