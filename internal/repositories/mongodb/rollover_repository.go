package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ repositories.RolloverRepository = (*RolloverRepository)(nil)

// RolloverRepository implements the repositories.RolloverRepository interface
type RolloverRepository struct {
	collection *mongo.Collection
}

// NewRolloverRepository creates a new RolloverRepository
func NewRolloverRepository(db *mongo.Database) *RolloverRepository {
	return &RolloverRepository{
		collection: db.Collection(rolloversCollection),
	}
}

// Create records a tier rollover.
func (r *RolloverRepository) Create(ctx context.Context, rollover *models.TierRollover) error {
	if _, err := r.collection.InsertOne(ctx, rollover); err != nil {
		return fmt.Errorf("failed to create tier rollover record: %w", err)
	}
	return nil
}

// FindBySourceDay finds the rollovers a day produced.
func (r *RolloverRepository) FindBySourceDay(ctx context.Context, day int64) ([]*models.TierRollover, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sourceDay": day}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rollovers []*models.TierRollover
	if err := cursor.All(ctx, &rollovers); err != nil {
		return nil, fmt.Errorf("failed to decode tier rollovers: %w", err)
	}
	if rollovers == nil {
		rollovers = []*models.TierRollover{}
	}
	return rollovers, nil
}
