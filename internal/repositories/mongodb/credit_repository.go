package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
)

var _ repositories.CreditRepository = (*CreditRepository)(nil)

// CreditRepository stores free-ticket credits keyed by checksummed address
type CreditRepository struct {
	collection *mongo.Collection
}

func NewCreditRepository(db *mongo.Database) *CreditRepository {
	return &CreditRepository{collection: db.Collection(creditsCollection)}
}

func (r *CreditRepository) FindByOwner(ctx context.Context, owner string) (*models.PlayerCredit, error) {
	var credit models.PlayerCredit
	if err := findOne(ctx, r.collection, bson.M{"_id": owner}, &credit); err != nil {
		return nil, err
	}
	return &credit, nil
}

func (r *CreditRepository) Save(ctx context.Context, credit *models.PlayerCredit) error {
	return upsertByID(ctx, r.collection, credit.Owner, credit)
}
