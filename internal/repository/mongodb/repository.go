package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/repository"
)

const (
	emissionsCollection = "emissions"
	communityCollection = "community"
	profilesCollection  = "users"
)

// Repository stores survey results, the community totals and user
// profiles in MongoDB. The community transaction requires a replica set.
type Repository struct {
	client    *mongo.Client
	emissions *mongo.Collection
	community *mongo.Collection
	profiles  *mongo.Collection
	logger    *zap.Logger
	now       func() time.Time
}

// NewRepository connects to MongoDB and prepares the collections.
func NewRepository(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	r := &Repository{
		client:    client,
		emissions: db.Collection(emissionsCollection),
		community: db.Collection(communityCollection),
		profiles:  db.Collection(profilesCollection),
		logger:    logger,
		now:       time.Now,
	}

	if err := r.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

// EnsureIndexes creates the per-user month key and the recency index.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.emissions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "month", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_month"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "month", Value: -1}, {Key: "lastUpdated", Value: -1}},
			Options: options.Index().SetName("user_recent"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create emissions indexes: %w", err)
	}
	return nil
}

// GetEmissions loads the document for a user and month key.
func (r *Repository) GetEmissions(ctx context.Context, userID, month string) (*models.EmissionsDocument, error) {
	var doc models.EmissionsDocument
	err := r.emissions.FindOne(ctx, bson.M{"userId": userID, "month": month}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find emissions %s/%s: %w", userID, month, err)
	}
	return &doc, nil
}

// LatestEmissions loads the user's most recent document.
func (r *Repository) LatestEmissions(ctx context.Context, userID string) (*models.EmissionsDocument, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "month", Value: -1}, {Key: "lastUpdated", Value: -1}})

	var doc models.EmissionsDocument
	err := r.emissions.FindOne(ctx, bson.M{"userId": userID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest emissions for %s: %w", userID, err)
	}
	return &doc, nil
}

// UpsertEmissions merges update into the document for a user and month key.
// Nested survey answers are set field by field so fields absent from the
// update keep their stored values.
func (r *Repository) UpsertEmissions(ctx context.Context, userID, month string, update models.EmissionsUpdate) error {
	set := bson.M{
		"totalEmissions":   update.TotalEmissions,
		"monthlyEmissions": update.MonthlyEmissions,
		"lastUpdated":      update.LastUpdated,
	}
	if err := flattenSurveyData(set, update.SurveyData); err != nil {
		return err
	}
	if err := flattenInto(set, "surveyEmissions", update.SurveyEmissions); err != nil {
		return err
	}

	filter := bson.M{"userId": userID, "month": month}
	res, err := r.emissions.UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert emissions %s/%s: %w", userID, month, err)
	}

	r.logger.Debug("emissions upserted",
		zap.String("user_id", userID),
		zap.String("month", month),
		zap.Bool("inserted", res.UpsertedCount > 0),
	)
	return nil
}

// RunCommunityTransaction applies fn to the community totals inside a
// transaction. The driver retries fn when the write conflicts with a
// concurrent transaction, so every increment is applied to the latest value.
func (r *Repository) RunCommunityTransaction(ctx context.Context, fn repository.CommunityUpdateFunc) (models.CommunityEmissionsData, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return models.CommunityEmissionsData{}, fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"_id": repository.CommunityDocumentID}

		var current models.CommunityEmissionsData
		exists := true
		err := r.community.FindOne(sc, filter).Decode(&current)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			exists = false
			current = models.CommunityEmissionsData{LastUpdated: r.now()}
		case err != nil:
			return nil, fmt.Errorf("read community totals: %w", err)
		}

		next, err := fn(current, exists)
		if err != nil {
			return nil, err
		}

		update := bson.M{"$set": bson.M{
			"emissions_calculated": next.EmissionsCalculated,
			"emissions_offset":     next.EmissionsOffset,
			"last_updated":         next.LastUpdated,
		}}
		if _, err := r.community.UpdateOne(sc, filter, update, options.Update().SetUpsert(true)); err != nil {
			return nil, fmt.Errorf("write community totals: %w", err)
		}
		return next, nil
	})
	if err != nil {
		return models.CommunityEmissionsData{}, fmt.Errorf("community transaction failed: %w", err)
	}

	next, ok := result.(models.CommunityEmissionsData)
	if !ok {
		return models.CommunityEmissionsData{}, fmt.Errorf("community transaction returned %T", result)
	}
	return next, nil
}

// GetCommunity reads the community totals. A missing document reads as
// zero totals updated now.
func (r *Repository) GetCommunity(ctx context.Context) (models.CommunityEmissionsData, error) {
	var data models.CommunityEmissionsData
	err := r.community.FindOne(ctx, bson.M{"_id": repository.CommunityDocumentID}).Decode(&data)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CommunityEmissionsData{LastUpdated: r.now()}, nil
	}
	if err != nil {
		return models.CommunityEmissionsData{}, fmt.Errorf("failed to read community totals: %w", err)
	}
	return data, nil
}

// CreateProfileIfAbsent inserts profile unless a profile with the same id
// exists. It reports whether a document was created.
func (r *Repository) CreateProfileIfAbsent(ctx context.Context, profile models.UserProfile) (bool, error) {
	fields, err := toDocument(profile)
	if err != nil {
		return false, err
	}
	delete(fields, "_id")

	res, err := r.profiles.UpdateOne(ctx,
		bson.M{"_id": profile.ID},
		bson.M{"$setOnInsert": fields},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create profile %s: %w", profile.ID, err)
	}
	return res.UpsertedCount > 0, nil
}

// GetProfile loads a user profile.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile %s: %w", userID, err)
	}
	return &profile, nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func flattenInto(set bson.M, prefix string, v interface{}) error {
	fields, err := toDocument(v)
	if err != nil {
		return err
	}
	for key, value := range fields {
		set[prefix+"."+key] = value
	}
	return nil
}

// flattenSurveyData sets the answered survey fields. A location answer always
// writes the state alongside the country, clearing a stale state when the
// new location has none.
func flattenSurveyData(set bson.M, data models.SurveyData) error {
	if err := flattenInto(set, "surveyData", data); err != nil {
		return err
	}
	if data.Country != "" {
		set["surveyData.state"] = data.State
	}
	return nil
}

func toDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return doc, nil
}
