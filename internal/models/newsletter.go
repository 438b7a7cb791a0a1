package models

import "time"

// NewsletterSubscriber is independent of User; anyone with an email may subscribe.
type NewsletterSubscriber struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Token          string     `gorm:"uniqueIndex;size:36;not null" json:"-"`
	IsActive       bool       `gorm:"default:true;index" json:"isActive"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt"`
}

func (NewsletterSubscriber) TableName() string { return "newsletter_subscribers" }
