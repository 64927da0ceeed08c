package db

import (
	"errors"
	"fmt"

	"github.com/Merethin/Windstorm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetupRoleStore persists the per-guild setup role mapping.
type SetupRoleStore struct {
	db *gorm.DB
}

// NewSetupRoleStore creates a SetupRoleStore.
func NewSetupRoleStore(gdb *gorm.DB) (*SetupRoleStore, error) {
	if gdb == nil {
		return nil, fmt.Errorf("db: setup role store: db is required")
	}
	return &SetupRoleStore{db: gdb}, nil
}

// Set writes or updates the setup role for a guild.
func (s *SetupRoleStore) Set(guildID, roleID string) error {
	row := models.SetupRole{GuildID: guildID, RoleID: roleID}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role_id"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("db: set setup role for guild %s: %w", guildID, result.Error)
	}
	return nil
}

// Get returns the setup role for a guild, or ok=false if none is configured.
func (s *SetupRoleStore) Get(guildID string) (string, bool, error) {
	var row models.SetupRole
	err := s.db.Where("guild_id = ?", guildID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("db: get setup role for guild %s: %w", guildID, err)
	}
	return row.RoleID, true, nil
}
