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

// Compile-time check to ensure TicketRepository implements the interface
var _ repositories.TicketRepository = (*TicketRepository)(nil)

// TicketRepository handles MongoDB operations for tickets
type TicketRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{
		collection: db.Collection(ticketsCollection),
		counters:   db.Collection(countersCollection),
	}
}

// NextID increments the ticket counter. Inside a transaction an aborted purchase gives its
// number back, so IDs stay gapless.
func (r *TicketRepository) NextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx, bson.M{"_id": ticketsCollection}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment ticket counter: %w", err)
	}
	return counter.Seq, nil
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	_, err := r.collection.InsertOne(ctx, ticket)
	return err
}

func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindByDay returns a day's tickets in purchase order.
func (r *TicketRepository) FindByDay(ctx context.Context, day int64) ([]*models.Ticket, error) {
	return r.find(ctx, bson.M{"day": day}, 0)
}

// FindByOwner returns up to limit of owner's tickets, oldest first.
func (r *TicketRepository) FindByOwner(ctx context.Context, owner string, limit int) ([]*models.Ticket, error) {
	return r.find(ctx, bson.M{"owner": owner}, limit)
}

func (r *TicketRepository) find(ctx context.Context, filter bson.M, limit int) ([]*models.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	return tickets, nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": ticket.ID}, ticket)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
