package models

// User represents the user model in the database
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// CycleAnchorDay is the day of the month (1-31) on which the user's
	// budget cycles begin.
	CycleAnchorDay int `gorm:"not null;default:1" json:"cycle_anchor_day"`

	Budgets    []Budget   `gorm:"foreignKey:UserID" json:"-"`
	Categories []Category `gorm:"foreignKey:UserID" json:"-"`
}
