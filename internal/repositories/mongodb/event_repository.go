package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ repositories.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection: db.Collection(eventsCollection),
	}
}

func (r *EventRepository) Create(ctx context.Context, event *models.LedgerEvent) error {
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

func (r *EventRepository) FindByDay(ctx context.Context, day int64) ([]*models.LedgerEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"day": day}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.LedgerEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.LedgerEvent{}
	}
	return events, nil
}
