package services

import (
	"context"
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// SiteService administers groups and flat pages.
type SiteService struct {
	groups    repositories.GroupRepository
	flatPages repositories.FlatPageRepository
}

// NewSiteService creates a new SiteService
func NewSiteService(groups repositories.GroupRepository, flatPages repositories.FlatPageRepository) *SiteService {
	return &SiteService{groups: groups, flatPages: flatPages}
}

// CreateGroup validates and stores a group.
func (s *SiteService) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.groups.Create(ctx, group)
}

// SaveFlatPage validates and stores a page, replacing any page at the same URL.
func (s *SiteService) SaveFlatPage(ctx context.Context, page *models.FlatPage) error {
	if err := page.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.flatPages.Save(ctx, page)
}

// FlatPage returns the page stored at url.
func (s *SiteService) FlatPage(ctx context.Context, url string) (*models.FlatPage, error) {
	page, err := s.flatPages.GetByURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("flat page %q: %w", url, err)
	}
	return page, nil
}
