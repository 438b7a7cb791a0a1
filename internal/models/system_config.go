package models

import "time"

// SystemConfig is a runtime-tunable setting stored in the database.
type SystemConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:config_key;uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:20;default:string" json:"type"`             // string, int, bool
	Group     string    `gorm:"column:config_group;size:50;index" json:"group"` // email, auth, system
	Label     string    `gorm:"size:200" json:"label"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SystemConfig) TableName() string { return "system_configs" }
