package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
)

const mongoRulesCollection = "alert_rules"

// mongoRule is the persisted document shape, matching the field names the
// original watchlist app stored.
type mongoRule struct {
	ID              string     `bson:"_id"`
	OwnerID         string     `bson:"userId"`
	Name            string     `bson:"alertName"`
	Symbol          string     `bson:"symbol"`
	Company         string     `bson:"company"`
	Condition       string     `bson:"condition"`
	Threshold       string     `bson:"threshold"`
	Frequency       string     `bson:"frequency"`
	LastTriggeredAt *time.Time `bson:"lastTriggeredAt,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt"`
}

// MongoStore implements RuleStore on MongoDB.
type MongoStore struct {
	client *mongo.Client
	rules  *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the rules collection.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetConnectTimeout(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(connectCtx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{
		client: client,
		rules:  client.Database(dbName).Collection(mongoRulesCollection),
	}
	s.createIndexes(connectCtx)

	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "symbol", Value: 1}}},
	}
	// Index creation is best effort; queries still work without them.
	s.rules.Indexes().CreateMany(ctx, indexes)
}

// ActiveRules returns every stored rule ordered by creation time.
func (s *MongoStore) ActiveRules(ctx context.Context) ([]models.AlertRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.rules.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRules(ctx, cursor)
}

// RecordFired stamps a rule's last-triggered time; the filter on _id makes
// the update conditional on the rule still existing.
func (s *MongoStore) RecordFired(ctx context.Context, ruleID string, firedAt time.Time) error {
	result, err := s.rules.UpdateOne(ctx,
		bson.M{"_id": ruleID},
		bson.M{"$set": bson.M{"lastTriggeredAt": firedAt.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to record fire: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// CreateRule validates, normalizes and inserts a rule.
func (s *MongoStore) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = NewRuleID()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	if _, err := s.rules.InsertOne(ctx, toMongoRule(rule)); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// UpdateRule updates the owner-editable fields of a rule.
func (s *MongoStore) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}

	result, err := s.rules.UpdateOne(ctx,
		bson.M{"_id": rule.ID, "userId": rule.OwnerID},
		bson.M{"$set": bson.M{
			"alertName": rule.Name,
			"condition": string(rule.Condition),
			"threshold": rule.Threshold.String(),
			"frequency": string(rule.Frequency),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// DeleteRule removes a rule owned by ownerID.
func (s *MongoStore) DeleteRule(ctx context.Context, ownerID, ruleID string) error {
	result, err := s.rules.DeleteOne(ctx, bson.M{"_id": ruleID, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// ListRules returns the rules owned by ownerID, newest first.
func (s *MongoStore) ListRules(ctx context.Context, ownerID string) ([]models.AlertRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.rules.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRules(ctx, cursor)
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toMongoRule(rule *models.AlertRule) mongoRule {
	return mongoRule{
		ID:              rule.ID,
		OwnerID:         rule.OwnerID,
		Name:            rule.Name,
		Symbol:          rule.Symbol,
		Company:         rule.Company,
		Condition:       string(rule.Condition),
		Threshold:       rule.Threshold.String(),
		Frequency:       string(rule.Frequency),
		LastTriggeredAt: rule.LastTriggeredAt,
		CreatedAt:       rule.CreatedAt,
	}
}

func decodeRules(ctx context.Context, cursor *mongo.Cursor) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	for cursor.Next(ctx) {
		var doc mongoRule
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode rule: %w", err)
		}

		threshold, err := decimal.NewFromString(doc.Threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to parse threshold for rule %s: %w", doc.ID, err)
		}

		rules = append(rules, models.AlertRule{
			ID:              doc.ID,
			OwnerID:         doc.OwnerID,
			Name:            doc.Name,
			Symbol:          doc.Symbol,
			Company:         doc.Company,
			Condition:       models.Condition(doc.Condition),
			Threshold:       threshold,
			Frequency:       models.Frequency(doc.Frequency),
			LastTriggeredAt: doc.LastTriggeredAt,
			CreatedAt:       doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return rules, nil
		}
		return nil, err
	}
	return rules, nil
}
