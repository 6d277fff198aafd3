package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository implements repositories.SettingsRepository
type SettingsRepository struct {
	collection *mongo.Collection
	audit      *mongo.Collection
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{
		collection: db.Collection(stateCollection),
		audit:      db.Collection(auditCollection),
	}
}

// Get retrieves the current game settings
func (r *SettingsRepository) Get(ctx context.Context) (*models.GameSettings, error) {
	var settings models.GameSettings
	if err := findOne(ctx, r.collection, bson.M{"_id": settingsID}, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save replaces the game settings
func (r *SettingsRepository) Save(ctx context.Context, settings *models.GameSettings) error {
	return upsertByID(ctx, r.collection, settingsID, settings)
}

func (r *SettingsRepository) AppendAudit(ctx context.Context, entry *models.SettingsAudit) error {
	_, err := r.audit.InsertOne(ctx, entry)
	return err
}

// ListAudit returns up to limit audit entries, newest first
func (r *SettingsRepository) ListAudit(ctx context.Context, limit int) ([]*models.SettingsAudit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.audit.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.SettingsAudit
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.SettingsAudit{}
	}
	return entries, nil
}
