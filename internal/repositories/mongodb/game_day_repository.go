package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ repositories.GameDayRepository = (*GameDayRepository)(nil)

// GameDayRepository implements the repositories.GameDayRepository interface
type GameDayRepository struct {
	collection *mongo.Collection
}

// NewGameDayRepository creates a new GameDayRepository
func NewGameDayRepository(db *mongo.Database) *GameDayRepository {
	return &GameDayRepository{
		collection: db.Collection(gameDaysCollection),
	}
}

// FindByDay finds a game-day by its number
func (r *GameDayRepository) FindByDay(ctx context.Context, day int64) (*models.GameDay, error) {
	var gd models.GameDay
	if err := findOne(ctx, r.collection, bson.M{"_id": day}, &gd); err != nil {
		return nil, err
	}
	return &gd, nil
}

// Save creates or replaces a game-day
func (r *GameDayRepository) Save(ctx context.Context, day *models.GameDay) error {
	return upsertByID(ctx, r.collection, day.Day, day)
}

// FindOldestUndrawnWithTickets finds the earliest day up to upTo that sold tickets and has not
// been drawn.
func (r *GameDayRepository) FindOldestUndrawnWithTickets(ctx context.Context, upTo int64) (*models.GameDay, error) {
	filter := bson.M{
		"_id":         bson.M{"$lte": upTo},
		"drawn":       false,
		"ticketIds.0": bson.M{"$exists": true},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	var gd models.GameDay
	if err := findOne(ctx, r.collection, filter, &gd, opts); err != nil {
		return nil, err
	}
	return &gd, nil
}

// FindDrawnUndistributed lists drawn days still waiting for distribution, oldest first
func (r *GameDayRepository) FindDrawnUndistributed(ctx context.Context) ([]*models.GameDay, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"drawn": true, "distributed": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var days []*models.GameDay
	if err := cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	if days == nil {
		days = []*models.GameDay{}
	}
	return days, nil
}
