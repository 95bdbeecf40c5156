// Package domain defines the persistence models for life areas, goals and
// progress entries. These types are mapped with GORM and form the core data
// layer of the life-tracking API.
package domain

import (
	"time"
)

// Goal statuses accepted by the goals.status check constraint.
const (
	GoalStatusActive    = "active"
	GoalStatusPaused    = "paused"
	GoalStatusCompleted = "completed"
	GoalStatusArchived  = "archived"
)

// GoalStatuses lists every valid goal status in display order.
var GoalStatuses = []string{GoalStatusActive, GoalStatusPaused, GoalStatusCompleted, GoalStatusArchived}

// Priority bounds enforced by the goals.priority check constraint.
const (
	MinPriority = 1
	MaxPriority = 5
)

// LifeArea groups goals under a user-defined heading such as "Health" or
// "Career". Area names are unique per user.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: owner; part of the (user_id, name) unique index.
//   - Name: display name, NFC-normalised by the service layer.
//   - Color: "#rrggbb" hex colour.
//   - Icon: optional short icon identifier.
//   - SortOrder: user-controlled ordering, ascending.
type LifeArea struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_area_user_name,priority:1"`
	Name      string    `json:"name"       gorm:"type:varchar(100);not null;uniqueIndex:ux_area_user_name,priority:2"`
	Color     string    `json:"color"      gorm:"type:varchar(7);not null"`
	Icon      string    `json:"icon,omitempty" gorm:"type:varchar(32)"`
	SortOrder int       `json:"sort_order" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for LifeArea.
func (LifeArea) TableName() string { return "life_areas" }

// Goal is a measurable target inside a life area. Progress entries move
// CurrentValue towards TargetValue; reaching it completes the goal.
//
// Fields:
//   - AreaID: owning life area; goals are cascade-deleted with it.
//   - Status: one of GoalStatuses (DB check).
//   - Priority: 1 (highest) .. 5 (DB check).
//   - DueDate: optional calendar date.
//   - CompletedAt: set when the goal transitions to completed.
type Goal struct {
	ID           string     `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string     `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_goals,priority:1"`
	AreaID       string     `json:"area_id"       gorm:"type:char(36);not null;index"`
	Title        string     `json:"title"         gorm:"type:varchar(200);not null"`
	Description  string     `json:"description,omitempty" gorm:"type:text"`
	Status       string     `json:"status"        gorm:"type:varchar(16);not null;index:idx_user_goals,priority:2;check:status IN ('active','paused','completed','archived')"`
	Priority     int        `json:"priority"      gorm:"not null;check:priority BETWEEN 1 AND 5"`
	TargetValue  float64    `json:"target_value"  gorm:"not null"`
	CurrentValue float64    `json:"current_value" gorm:"not null"`
	Unit         string     `json:"unit,omitempty" gorm:"type:varchar(32)"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Area LifeArea `json:"-" gorm:"foreignKey:AreaID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Goal.
func (Goal) TableName() string { return "goals" }

// Progress reports CurrentValue / TargetValue clamped to [0, 1].
func (g Goal) Progress() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue / g.TargetValue
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// ProgressEntry records one measurement logged against a goal.
type ProgressEntry struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	GoalID     string    `json:"goal_id"     gorm:"type:char(36);not null;index:idx_goal_entries,priority:1"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index"`
	Value      float64   `json:"value"       gorm:"not null"`
	Note       string    `json:"note,omitempty" gorm:"type:varchar(500)"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null;index:idx_goal_entries,priority:2"`
	CreatedAt  time.Time `json:"created_at"`

	Goal Goal `json:"-" gorm:"foreignKey:GoalID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ProgressEntry.
func (ProgressEntry) TableName() string { return "progress_entries" }
