package models

import "time"

// Notification kinds; each has exactly one EmailTemplate row named after it.
const (
	KindSubmissionConfirmation = "submission-confirmation"
	KindWinnerNotification     = "winner-notification"
	KindMonthlyNewsletter      = "monthly-newsletter"
)

// EmailTemplate bodies are html/template sources rendered with the
// notification's variables.
type EmailTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Subject   string    `gorm:"size:300;not null" json:"subject"`
	HTMLBody  string    `gorm:"column:html_body;type:text;not null" json:"htmlBody"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (EmailTemplate) TableName() string { return "email_templates" }

// DefaultEmailTemplates are seeded on first start and used as fallback when
// a row is missing or inactive.
func DefaultEmailTemplates() []EmailTemplate {
	return []EmailTemplate{
		{
			Name:     KindSubmissionConfirmation,
			Subject:  `Your project "{{.ProjectTitle}}" has been submitted`,
			IsActive: true,
			HTMLBody: `<html><body style="font-family: Arial, sans-serif;">
<h2>Thanks for submitting, {{or .Name "there"}}!</h2>
<p>We received <strong>{{.ProjectTitle}}</strong> for the {{.MonthName}} {{.Year}} Vibe Coding Award.</p>
<p>Community voting opens on the 21st. Share your project page to gather votes:</p>
<p><a href="{{.ProjectURL}}">{{.ProjectURL}}</a></p>
<hr><p style="color: #888; font-size: 12px;">Vibe Coding Award</p>
</body></html>`,
		},
		{
			Name:     KindWinnerNotification,
			Subject:  `Congratulations! "{{.ProjectTitle}}" won the {{.MonthName}} {{.Year}} Vibe Coding Award`,
			IsActive: true,
			HTMLBody: `<html><body style="font-family: Arial, sans-serif;">
<h2>Congratulations, {{or .Name "there"}}!</h2>
<p><strong>{{.ProjectTitle}}</strong> has been selected as {{or .AwardName "a winner"}} for {{.MonthName}} {{.Year}}.</p>
<p>The announcement goes live on the winners page:</p>
<p><a href="{{.WinnersURL}}">{{.WinnersURL}}</a></p>
<p>We will be in touch about the prize shortly.</p>
<hr><p style="color: #888; font-size: 12px;">Vibe Coding Award</p>
</body></html>`,
		},
		{
			Name:     KindMonthlyNewsletter,
			Subject:  `Vibe Coding Award: {{.MonthName}} {{.Year}} update`,
			IsActive: true,
			HTMLBody: `<html><body style="font-family: Arial, sans-serif;">
<h2>{{.MonthName}} {{.Year}} at the Vibe Coding Award</h2>
{{with .Intro}}<p>{{.}}</p>{{end}}
{{if .Winners}}<h3>Winners</h3>
<ul>{{range .Winners}}<li><a href="{{.URL}}">{{.Title}}</a>{{with .Award}} ({{.}}){{end}}</li>{{end}}</ul>{{end}}
<p><a href="{{.SiteURL}}">Browse this month's projects</a></p>
<hr><p style="color: #888; font-size: 12px;">You are receiving this because you subscribed.
<a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</body></html>`,
		},
	}
}
