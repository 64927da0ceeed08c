// Package models defines the GORM models persisted by Windstorm.
package models

// SetupRole stores the per-guild role allowed to manage sessions. It outlives
// any session and is read on every gated command.
type SetupRole struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	GuildID string `gorm:"size:32;uniqueIndex;not null"`
	RoleID  string `gorm:"size:32;not null"`
}
