package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/ArowuTest/daily-lotto-settlement/internal/repositories"
	pkgmongo "github.com/ArowuTest/daily-lotto-settlement/pkg/mongodb"
)

const (
	ticketsCollection    = "tickets"
	gameDaysCollection   = "game_days"
	countersCollection   = "counters"
	stateCollection      = "state"
	randomnessCollection = "randomness_requests"
	auditCollection      = "settings_audit"
	rolloversCollection  = "tier_rollovers"
	creditsCollection    = "player_credits"
	eventsCollection     = "ledger_events"
	adminUsersCollection = "admin_users"
)

// NewStore wires every repository against db. Transactions run on client sessions, so the
// deployment must be a replica set.
func NewStore(client *pkgmongo.Client, dbName string) *repositories.Store {
	db := client.Database(dbName)
	return &repositories.Store{
		Tx:         &Transactor{client: client.Mongo()},
		Tickets:    NewTicketRepository(db),
		Days:       NewGameDayRepository(db),
		Balances:   NewBalancesRepository(db),
		Scheduler:  NewSchedulerRepository(db),
		Randomness: NewRandomnessRepository(db),
		Settings:   NewSettingsRepository(db),
		Rollovers:  NewRolloverRepository(db),
		Credits:    NewCreditRepository(db),
		Events:     NewEventRepository(db),
		AdminUsers: NewAdminUserRepository(db),
	}
}

// Transactor runs callbacks inside a majority-acknowledged snapshot transaction.
type Transactor struct {
	client *mongo.Client
}

var _ repositories.Transactor = (*Transactor)(nil)

// WithTransaction joins the session already carried by ctx, or starts one. The driver retries
// fn on transient transaction errors, so fn must be safe to run more than once.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	opts := options.Transaction().
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Snapshot())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// EnsureIndexes creates the indexes the repositories query by. Creating them also creates the
// collections, which must exist before the first transaction writes to them.
func EnsureIndexes(ctx context.Context, client *pkgmongo.Client, dbName string) error {
	db := client.Database(dbName)
	indexes := map[string][]mongo.IndexModel{
		ticketsCollection: {
			{Keys: bson.D{{Key: "day", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}}},
		},
		gameDaysCollection: {
			{Keys: bson.D{{Key: "drawn", Value: 1}, {Key: "distributed", Value: 1}}},
		},
		randomnessCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: 1}}},
			{Keys: bson.D{{Key: "day", Value: 1}}},
		},
		auditCollection: {
			{Keys: bson.D{{Key: "at", Value: -1}}},
		},
		rolloversCollection: {
			{Keys: bson.D{{Key: "sourceDay", Value: 1}}},
		},
		eventsCollection: {
			{Keys: bson.D{{Key: "day", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		adminUsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	for _, name := range []string{countersCollection, stateCollection, creditsCollection} {
		if err := db.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 48
}

// findOne decodes the first match into out, mapping a miss to repositories.ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repositories.ErrNotFound
	}
	return err
}

// upsertByID replaces the document with the given _id, inserting it when missing.
func upsertByID(ctx context.Context, coll *mongo.Collection, id interface{}, doc interface{}) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}
