package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ repositories.RandomnessRepository = (*RandomnessRepository)(nil)

// RandomnessRepository stores randomness requests keyed by the oracle's request ID
type RandomnessRepository struct {
	collection *mongo.Collection
}

func NewRandomnessRepository(db *mongo.Database) *RandomnessRepository {
	return &RandomnessRepository{collection: db.Collection(randomnessCollection)}
}

func (r *RandomnessRepository) Create(ctx context.Context, req *models.RandomnessRequest) error {
	_, err := r.collection.InsertOne(ctx, req)
	return err
}

func (r *RandomnessRepository) FindByID(ctx context.Context, requestID string) (*models.RandomnessRequest, error) {
	var req models.RandomnessRequest
	if err := findOne(ctx, r.collection, bson.M{"_id": requestID}, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RandomnessRepository) Update(ctx context.Context, req *models.RandomnessRequest) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": req.RequestID}, req)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// FindByStatus lists requests in a status, oldest first
func (r *RandomnessRepository) FindByStatus(ctx context.Context, status models.RandomnessStatus) ([]*models.RandomnessRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reqs []*models.RandomnessRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []*models.RandomnessRequest{}
	}
	return reqs, nil
}
