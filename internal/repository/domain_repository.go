package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
)

// DomainRepository manages the life areas tasks are filed under.
type DomainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// GetOrCreate resolves a domain by name, creating it on first use. An
// empty name means "no domain" and returns nil without touching the store.
func (r *DomainRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.Domain, error) {
	if name == "" {
		return nil, nil
	}

	var domain model.Domain
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND name = ?", userID, name).First(&domain).Error
	switch {
	case err == nil:
		return &domain, nil
	case err == gorm.ErrRecordNotFound:
		domain = model.Domain{UserID: userID, Name: name}
		if err := db.Create(&domain).Error; err != nil {
			return nil, fmt.Errorf("create domain: %w", err)
		}
		return &domain, nil
	default:
		return nil, fmt.Errorf("find domain: %w", err)
	}
}

func (r *DomainRepository) ListByUser(ctx context.Context, userID uint) ([]model.Domain, error) {
	var domains []model.Domain
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&domains).Error; err != nil {
		return nil, err
	}
	return domains, nil
}

func (r *DomainRepository) GetByID(ctx context.Context, id uint) (*model.Domain, error) {
	var domain model.Domain
	if err := r.db.WithContext(ctx).First(&domain, id).Error; err != nil {
		return nil, err
	}
	return &domain, nil
}
