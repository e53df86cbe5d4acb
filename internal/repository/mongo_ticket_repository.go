package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/trouble-ticket/internal/domain"
)

// maxModifyAttempts bounds the compare-and-swap retries of Modify.
const maxModifyAttempts = 8

var errModifyContention = errors.New("repository: ticket modified concurrently, retries exhausted")

// mongoTicket is the stored document. Version increments on every write and
// guards the compare-and-swap in Modify.
type mongoTicket struct {
	ID                     string     `bson:"_id"`
	Href                   string     `bson:"href"`
	Description            string     `bson:"description"`
	Severity               string     `bson:"severity"`
	Priority               int        `bson:"priority"`
	Type                   string     `bson:"type"`
	Status                 string     `bson:"status"`
	CreationDate           time.Time  `bson:"creationDate"`
	ExpectedResolutionDate *time.Time `bson:"expectedResolutionDate"`
	ResolutionDate         *time.Time `bson:"resolutionDate"`
	LastUpdate             time.Time  `bson:"lastUpdate"`
	Channel                *string    `bson:"channel"`
	ExternalID             *string    `bson:"externalId"`
	Version                int64      `bson:"version"`
}

type mongoTicketRepository struct {
	col *mongo.Collection
}

// NewMongoTicketRepository wraps the given collection.
func NewMongoTicketRepository(col *mongo.Collection) TicketRepository {
	return &mongoTicketRepository{col: col}
}

// EnsureMongoIndexes creates the secondary indexes used by list queries.
func EnsureMongoIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "severity", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "creationDate", Value: 1}, {Key: "_id", Value: 1}}},
	})
	return err
}

func (r *mongoTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	truncateToMillis(ticket)
	_, err := r.col.InsertOne(ctx, toMongoTicket(ticket, 1))
	return err
}

func (r *mongoTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	doc, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket := doc.toDomain()
	return &ticket, nil
}

func (r *mongoTicketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := bson.M{}
	if filter.Severity != nil {
		query["severity"] = string(*filter.Severity)
	}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "creationDate", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(effectiveLimit(filter.Limit)))
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoTicket
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]domain.Ticket, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}

// Modify replaces the document only if its version is unchanged since it was
// read, retrying on contention. Each successful replace is one atomic write.
func (r *mongoTicketRepository) Modify(ctx context.Context, id string, mutate MutateFunc) (*domain.Ticket, error) {
	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		doc, err := r.find(ctx, id)
		if err != nil {
			return nil, err
		}
		ticket := doc.toDomain()
		if err := mutate(&ticket); err != nil {
			return nil, err
		}
		truncateToMillis(&ticket)

		res, err := r.col.ReplaceOne(ctx,
			bson.M{"_id": id, "version": doc.Version},
			toMongoTicket(&ticket, doc.Version+1),
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return &ticket, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errModifyContention, id)
}

func (r *mongoTicketRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTicketRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func (r *mongoTicketRepository) find(ctx context.Context, id string) (*mongoTicket, error) {
	var doc mongoTicket
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func toMongoTicket(ticket *domain.Ticket, version int64) mongoTicket {
	return mongoTicket{
		ID:                     ticket.ID,
		Href:                   ticket.Href,
		Description:            ticket.Description,
		Severity:               string(ticket.Severity),
		Priority:               ticket.Priority,
		Type:                   string(ticket.Type),
		Status:                 string(ticket.Status),
		CreationDate:           ticket.CreationDate,
		ExpectedResolutionDate: ticket.ExpectedResolutionDate,
		ResolutionDate:         ticket.ResolutionDate,
		LastUpdate:             ticket.LastUpdate,
		Channel:                ticket.Channel,
		ExternalID:             ticket.ExternalID,
		Version:                version,
	}
}

func (d mongoTicket) toDomain() domain.Ticket {
	ticket := domain.Ticket{
		ID:                     d.ID,
		Href:                   d.Href,
		Description:            d.Description,
		Severity:               domain.Severity(d.Severity),
		Priority:               d.Priority,
		Type:                   domain.TicketType(d.Type),
		Status:                 domain.TicketStatus(d.Status),
		CreationDate:           d.CreationDate,
		ExpectedResolutionDate: d.ExpectedResolutionDate,
		ResolutionDate:         d.ResolutionDate,
		LastUpdate:             d.LastUpdate,
		Channel:                d.Channel,
		ExternalID:             d.ExternalID,
	}
	normalizeTimes(&ticket)
	return ticket
}

// truncateToMillis drops sub-millisecond precision, which BSON dates cannot
// hold, so the returned ticket matches what a later read yields.
func truncateToMillis(ticket *domain.Ticket) {
	ticket.CreationDate = ticket.CreationDate.Truncate(time.Millisecond)
	ticket.LastUpdate = ticket.LastUpdate.Truncate(time.Millisecond)
	if ticket.ExpectedResolutionDate != nil {
		v := ticket.ExpectedResolutionDate.Truncate(time.Millisecond)
		ticket.ExpectedResolutionDate = &v
	}
	if ticket.ResolutionDate != nil {
		v := ticket.ResolutionDate.Truncate(time.Millisecond)
		ticket.ResolutionDate = &v
	}
}
