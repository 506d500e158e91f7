package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dejobratic/cafe/internal/content/domain"
	"github.com/dejobratic/cafe/internal/content/ports"
)

const (
	faqCollection      = "faqs"
	pageCollection     = "pages"
	settingsCollection = "settings"
)

type Store struct {
	faqs     *mongo.Collection
	pages    *mongo.Collection
	settings *mongo.Collection
	registry *bsoncodec.Registry
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		faqs:     db.Collection(faqCollection),
		pages:    db.Collection(pageCollection),
		settings: db.Collection(settingsCollection),
		registry: NewRegistry(),
	}
}

// CreateIndexes creates the indexes the listing queries rely on.
func (s *Store) CreateIndexes(ctx context.Context) error {
	_, err := s.faqs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "position", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create faq position index: %w", err)
	}
	return nil
}

func (s *Store) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	cursor, err := s.faqs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find faqs: %w", err)
	}

	faqs := []domain.FAQ{}
	if err := cursor.All(ctx, &faqs); err != nil {
		return nil, fmt.Errorf("decode faqs: %w", err)
	}
	return faqs, nil
}

func (s *Store) SaveFAQ(ctx context.Context, faq domain.FAQ) error {
	_, err := s.faqs.ReplaceOne(ctx, bson.M{"_id": faq.ID}, faq, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save faq: %w", err)
	}
	return nil
}

func (s *Store) GetFAQ(ctx context.Context, id string) (*domain.FAQ, error) {
	var faq domain.FAQ
	if err := s.faqs.FindOne(ctx, bson.M{"_id": id}).Decode(&faq); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrFAQNotFound
		}
		return nil, fmt.Errorf("find faq: %w", err)
	}
	return &faq, nil
}

func (s *Store) DeleteFAQ(ctx context.Context, id string) error {
	result, err := s.faqs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrFAQNotFound
	}
	return nil
}

func (s *Store) GetPage(ctx context.Context, slug string) (*domain.Page, error) {
	var page domain.Page
	if err := s.pages.FindOne(ctx, bson.M{"_id": slug}).Decode(&page); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrPageNotFound
		}
		return nil, fmt.Errorf("find page: %w", err)
	}
	return &page, nil
}

func (s *Store) SavePage(ctx context.Context, page domain.Page) error {
	_, err := s.pages.ReplaceOne(ctx, bson.M{"_id": page.Slug}, page, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	return nil
}

func (s *Store) ListPages(ctx context.Context) ([]domain.Page, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"body": 0})

	cursor, err := s.pages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find pages: %w", err)
	}

	pages := []domain.Page{}
	if err := cursor.All(ctx, &pages); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	return pages, nil
}

// Settings are stored as {_id: key, value: <document>, updated_at}.
func (s *Store) GetSetting(ctx context.Context, key string, dst any) error {
	raw, err := s.settings.FindOne(ctx, bson.M{"_id": key}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ports.ErrSettingNotFound
		}
		return fmt.Errorf("find setting %s: %w", key, err)
	}

	value, err := raw.LookupErr("value")
	if err != nil {
		return fmt.Errorf("setting %s has no value: %w", key, err)
	}
	if err := value.UnmarshalWithRegistry(s.registry, dst); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) SaveSetting(ctx context.Context, key string, value any) error {
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	if _, err := s.settings.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
