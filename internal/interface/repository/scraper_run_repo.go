package repository

import (
	"context"
	"time"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScraperRunRepository implements ScraperRunRepository
type MongoScraperRunRepository struct {
	collection *mongo.Collection
}

// NewMongoScraperRunRepository creates a new scraper run repository
func NewMongoScraperRunRepository(db *mongo.Database) repository.ScraperRunRepository {
	collection := db.Collection("scraperRuns")

	// Create indexes for better performance
	ctx := context.Background()

	runIDIndex := mongo.IndexModel{
		Keys:    bson.M{"runId": 1},
		Options: options.Index().SetUnique(true),
	}

	// Compound index for per-cinema history queries
	cinemaStartedIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "cinemaId", Value: 1},
			{Key: "startedAt", Value: -1},
		},
	}

	// Index on status for anomaly dashboards
	statusIndex := mongo.IndexModel{
		Keys: bson.M{"status": 1},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		runIDIndex,
		cinemaStartedIndex,
		statusIndex,
	})

	return &MongoScraperRunRepository{
		collection: collection,
	}
}

// Append writes a completed run record. Runs are append-only.
func (r *MongoScraperRunRepository) Append(ctx context.Context, run *entity.ScraperRun) error {
	if run.ID == "" {
		run.ID = primitive.NewObjectID().Hex()
	}

	_, err := r.collection.InsertOne(ctx, run)
	return err
}

// FindLatestByCinema returns the most recent run for a cinema
func (r *MongoScraperRunRepository) FindLatestByCinema(ctx context.Context, cinemaID uint) (*entity.ScraperRun, error) {
	opts := options.FindOne().SetSort(bson.M{"startedAt": -1})

	var run entity.ScraperRun
	err := r.collection.FindOne(ctx, bson.M{"cinemaId": cinemaID}, opts).Decode(&run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindByCinemaAround returns the latest run that started on the given
// calendar day (UTC). Used to look up "same weekday one week prior".
func (r *MongoScraperRunRepository) FindByCinemaAround(ctx context.Context, cinemaID uint, day time.Time) (*entity.ScraperRun, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	filter := bson.M{
		"cinemaId": cinemaID,
		"startedAt": bson.M{
			"$gte": dayStart,
			"$lt":  dayEnd,
		},
	}
	opts := options.FindOne().SetSort(bson.M{"startedAt": -1})

	var run entity.ScraperRun
	err := r.collection.FindOne(ctx, filter, opts).Decode(&run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindByCinemaSince returns all runs for a cinema since the given time,
// oldest first. Used by baseline recalculation.
func (r *MongoScraperRunRepository) FindByCinemaSince(ctx context.Context, cinemaID uint, since time.Time) ([]*entity.ScraperRun, error) {
	filter := bson.M{
		"cinemaId":  cinemaID,
		"startedAt": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.M{"startedAt": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []*entity.ScraperRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// UpdateResolution sets the resolution flags on an existing run. This
// is the only mutation allowed after a run is written.
func (r *MongoScraperRunRepository) UpdateResolution(ctx context.Context, runID string, resolution entity.Resolution) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"runId": runID},
		bson.M{"$set": bson.M{
			"resolution": resolution,
		}},
	)
	return err
}
