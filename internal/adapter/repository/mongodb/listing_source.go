package mongodb

import (
	"context"
	"fmt"

	"github.com/Dumpyard00/campus-swap-link/internal/catalog/domain"
	"github.com/Dumpyard00/campus-swap-link/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("catalog-service/mongodb")

// ListingSource reads the whole listing collection for a snapshot reload. It never writes.
type ListingSource struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingSource(db *mongo.Database, collectionName string, log *logger.Logger) *ListingSource {
	return &ListingSource{
		collection: db.Collection(collectionName),
		logger:     log.Named("MongoListingSource"),
	}
}

func (s *ListingSource) Name() string {
	return "mongo"
}

func (s *ListingSource) Fetch(ctx context.Context) ([]domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingSource.Fetch")
	defer span.End()

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to query listings", zap.Error(err))
		return nil, fmt.Errorf("%w: find listings: %v", domain.ErrSnapshotSource, err)
	}
	defer cursor.Close(ctx)

	listings := make([]domain.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			span.RecordError(err)
			s.logger.Error("Failed to decode listing document", zap.Error(err))
			return nil, fmt.Errorf("%w: decode listing: %v", domain.ErrSnapshotSource, err)
		}
		listings = append(listings, toDomainListing(doc))
	}
	if err := cursor.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: cursor: %v", domain.ErrSnapshotSource, err)
	}

	span.SetAttributes(attribute.Int("catalog.listings", len(listings)))
	s.logger.Debug("Listings fetched", zap.Int("count", len(listings)))
	return listings, nil
}

// Seed replaces the collection contents with listings, numbering positions in slice order.
// The service itself never calls it; it exists for fixtures and integration tests.
func Seed(ctx context.Context, coll *mongo.Collection, listings []domain.Listing) error {
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}
	if len(listings) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(listings))
	for i, l := range listings {
		docs = append(docs, toListingDocument(int64(i), l))
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert listings: %w", err)
	}
	return nil
}
