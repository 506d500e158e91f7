package app

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/content/domain"
	"github.com/dejobratic/cafe/internal/content/ports"
)

type Service struct {
	store ports.Store
	now   func() time.Time
}

func NewService(store ports.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// ListFAQs returns entries ordered by position.
func (s *Service) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	faqs, err := s.store.ListFAQs(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(faqs, func(a, b domain.FAQ) int { return a.Position - b.Position })
	return faqs, nil
}

type FAQInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

func (s *Service) CreateFAQ(ctx context.Context, input FAQInput) (*domain.FAQ, error) {
	faq := domain.FAQ{ID: uuid.NewString()}
	return s.saveFAQ(ctx, faq, input)
}

func (s *Service) UpdateFAQ(ctx context.Context, id string, input FAQInput) (*domain.FAQ, error) {
	faq, err := s.store.GetFAQ(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.saveFAQ(ctx, *faq, input)
}

func (s *Service) saveFAQ(ctx context.Context, faq domain.FAQ, input FAQInput) (*domain.FAQ, error) {
	faq.Question = strings.TrimSpace(input.Question)
	faq.Answer = strings.TrimSpace(input.Answer)
	faq.Position = input.Position
	faq.UpdatedAt = s.now()
	if err := faq.Validate(); err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	if err := s.store.SaveFAQ(ctx, faq); err != nil {
		return nil, err
	}
	return &faq, nil
}

func (s *Service) DeleteFAQ(ctx context.Context, id string) error {
	return s.store.DeleteFAQ(ctx, id)
}

// Contact returns the café contact details, empty until an admin saves them.
func (s *Service) Contact(ctx context.Context) (domain.ContactInfo, error) {
	var info domain.ContactInfo
	err := s.store.GetSetting(ctx, domain.SettingContact, &info)
	if err != nil && !errors.Is(err, ports.ErrSettingNotFound) {
		return domain.ContactInfo{}, err
	}
	return info, nil
}

func (s *Service) PutContact(ctx context.Context, info domain.ContactInfo) (domain.ContactInfo, error) {
	info.Email = strings.TrimSpace(info.Email)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	info.Hours = strings.TrimSpace(info.Hours)
	info.UpdatedAt = s.now()

	if err := s.store.SaveSetting(ctx, domain.SettingContact, info); err != nil {
		return domain.ContactInfo{}, err
	}
	return info, nil
}

func (s *Service) Page(ctx context.Context, slug string) (*domain.Page, error) {
	if !domain.ValidSlug(slug) {
		return nil, ports.ErrPageNotFound
	}
	return s.store.GetPage(ctx, slug)
}

type PageInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PutPage creates or replaces the page at slug.
func (s *Service) PutPage(ctx context.Context, slug string, input PageInput) (*domain.Page, error) {
	if !domain.ValidSlug(slug) {
		return nil, apperr.Invalid("slug must be lower-case words separated by dashes")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.Invalid("title is required")
	}

	page := domain.Page{Slug: slug, Title: title, Body: input.Body, UpdatedAt: s.now()}
	if err := s.store.SavePage(ctx, page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) ListPages(ctx context.Context) ([]domain.Page, error) {
	return s.store.ListPages(ctx)
}

// PaymentSettings returns the stored settings, or the defaults.
func (s *Service) PaymentSettings(ctx context.Context) (domain.PaymentSettings, error) {
	settings := domain.DefaultPaymentSettings()
	err := s.store.GetSetting(ctx, domain.SettingPayment, &settings)
	if err != nil && !errors.Is(err, ports.ErrSettingNotFound) {
		return domain.PaymentSettings{}, err
	}
	return settings, nil
}

// PutPaymentSettings saves settings. An empty secret keeps the stored one.
func (s *Service) PutPaymentSettings(ctx context.Context, settings domain.PaymentSettings) (domain.PaymentSettings, error) {
	settings.Currency = strings.TrimSpace(settings.Currency)
	if settings.GatewayKeySecret == "" {
		current, err := s.PaymentSettings(ctx)
		if err != nil {
			return domain.PaymentSettings{}, err
		}
		settings.GatewayKeySecret = current.GatewayKeySecret
	}
	if err := settings.Validate(); err != nil {
		return domain.PaymentSettings{}, apperr.Invalid(err.Error())
	}

	if err := s.store.SaveSetting(ctx, domain.SettingPayment, settings); err != nil {
		return domain.PaymentSettings{}, err
	}
	return settings, nil
}

func (s *Service) TaxSettings(ctx context.Context) (domain.TaxSettings, error) {
	var settings domain.TaxSettings
	err := s.store.GetSetting(ctx, domain.SettingTax, &settings)
	if err != nil && !errors.Is(err, ports.ErrSettingNotFound) {
		return domain.TaxSettings{}, err
	}
	return settings, nil
}

func (s *Service) PutTaxSettings(ctx context.Context, settings domain.TaxSettings) (domain.TaxSettings, error) {
	if err := settings.Validate(); err != nil {
		return domain.TaxSettings{}, apperr.Invalid(err.Error())
	}
	if err := s.store.SaveSetting(ctx, domain.SettingTax, settings); err != nil {
		return domain.TaxSettings{}, err
	}
	return settings, nil
}

// Setting returns the admin view of the setting stored under key.
func (s *Service) Setting(ctx context.Context, key string) (any, error) {
	switch key {
	case domain.SettingPayment:
		settings, err := s.PaymentSettings(ctx)
		return settings.Masked(), err
	case domain.SettingTax:
		return s.TaxSettings(ctx)
	default:
		return nil, ports.ErrUnknownSetting
	}
}

// PutSetting decodes raw into the type registered for key and saves it.
func (s *Service) PutSetting(ctx context.Context, key string, raw json.RawMessage) (any, error) {
	switch key {
	case domain.SettingPayment:
		var settings domain.PaymentSettings
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, apperr.Invalid("invalid payment settings")
		}
		saved, err := s.PutPaymentSettings(ctx, settings)
		return saved.Masked(), err
	case domain.SettingTax:
		var settings domain.TaxSettings
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, apperr.Invalid("invalid tax settings")
		}
		return s.PutTaxSettings(ctx, settings)
	default:
		return nil, ports.ErrUnknownSetting
	}
}
