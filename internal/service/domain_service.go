package service

import (
	"context"

	"github.com/aleksandr-bogdanov/whendoist/internal/model"
	"github.com/aleksandr-bogdanov/whendoist/internal/repository"
)

// DomainService provides helpers around the life areas tasks are filed
// under.
type DomainService struct {
	repo *repository.DomainRepository
}

func NewDomainService(repo *repository.DomainRepository) *DomainService {
	return &DomainService{repo: repo}
}

func (s *DomainService) List(ctx context.Context, user *model.User) ([]model.Domain, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

// Names returns an id → name lookup for rendering task lines.
func (s *DomainService) Names(ctx context.Context, user *model.User) (map[uint]string, error) {
	domains, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(domains))
	for _, d := range domains {
		names[d.ID] = d.Name
	}
	return names, nil
}
