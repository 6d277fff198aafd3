package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

// Singleton documents in the state collection.
const (
	balancesID  = "balances"
	schedulerID = "scheduler"
	settingsID  = "settings"
)

var (
	_ repositories.BalancesRepository  = (*BalancesRepository)(nil)
	_ repositories.SchedulerRepository = (*SchedulerRepository)(nil)
)

// BalancesRepository stores the pool ledger as one document.
type BalancesRepository struct {
	collection *mongo.Collection
}

func NewBalancesRepository(db *mongo.Database) *BalancesRepository {
	return &BalancesRepository{collection: db.Collection(stateCollection)}
}

func (r *BalancesRepository) Get(ctx context.Context) (*models.Balances, error) {
	var b models.Balances
	err := findOne(ctx, r.collection, bson.M{"_id": balancesID}, &b)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.Balances{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BalancesRepository) Save(ctx context.Context, balances *models.Balances) error {
	return upsertByID(ctx, r.collection, balancesID, balances)
}

// SchedulerRepository stores the draw scheduler state as one document.
type SchedulerRepository struct {
	collection *mongo.Collection
}

func NewSchedulerRepository(db *mongo.Database) *SchedulerRepository {
	return &SchedulerRepository{collection: db.Collection(stateCollection)}
}

func (r *SchedulerRepository) Get(ctx context.Context) (*models.SchedulerState, error) {
	var st models.SchedulerState
	if err := findOne(ctx, r.collection, bson.M{"_id": schedulerID}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *SchedulerRepository) Save(ctx context.Context, state *models.SchedulerState) error {
	return upsertByID(ctx, r.collection, schedulerID, state)
}

