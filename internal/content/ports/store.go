package ports

import (
	"context"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/content/domain"
)

// Store persists CMS documents and typed settings.
type Store interface {
	ListFAQs(ctx context.Context) ([]domain.FAQ, error)
	SaveFAQ(ctx context.Context, faq domain.FAQ) error
	GetFAQ(ctx context.Context, id string) (*domain.FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error

	GetPage(ctx context.Context, slug string) (*domain.Page, error)
	SavePage(ctx context.Context, page domain.Page) error
	ListPages(ctx context.Context) ([]domain.Page, error)

	// GetSetting decodes the setting stored under key into dst and fails
	// with ErrSettingNotFound when nothing was saved yet.
	GetSetting(ctx context.Context, key string, dst any) error
	SaveSetting(ctx context.Context, key string, value any) error
}

var (
	ErrFAQNotFound     = apperr.NotFound("faq entry not found")
	ErrPageNotFound    = apperr.NotFound("page not found")
	ErrSettingNotFound = apperr.NotFound("setting not found")
	ErrUnknownSetting  = apperr.NotFound("unknown setting")
)
