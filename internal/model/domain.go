package model

import "time"

// Domain groups tasks by life area (work, health, errands, etc.).
type Domain struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_domain_name,unique"`
	Name      string `gorm:"index:idx_user_domain_name,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:DomainID"`
}
