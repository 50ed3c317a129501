package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

const collectionChains = "chains"

// ChainRepository implements ports.ChainRepository using MongoDB. Counter
// writes are single-document updates guarded by their filter, so they are
// atomic without transactions.
type ChainRepository struct {
	col *mongo.Collection
}

func NewChainRepository(db *mongo.Database) *ChainRepository {
	return &ChainRepository{col: db.Collection(collectionChains)}
}

type mongoChainStats struct {
	Views       int64   `bson:"views"`
	Clicks      int64   `bson:"clicks"`
	Conversions int64   `bson:"conversions"`
	Revenue     float64 `bson:"revenue"`
}

type mongoChainSettings struct {
	IsPublic         bool `bson:"is_public"`
	ShowParticipants bool `bson:"show_participants"`
	ShowCountdown    bool `bson:"show_countdown"`
	Featured         bool `bson:"featured"`
}

type mongoChain struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	UserID              primitive.ObjectID `bson:"user_id"`
	Name                string             `bson:"name"`
	Emoji               string             `bson:"emoji"`
	Description         string             `bson:"description"`
	Category            string             `bson:"category"`
	PriceInitial        float64            `bson:"price_initial"`
	PriceFinal          float64            `bson:"price_final"`
	Discount            float64            `bson:"discount"`
	URL                 string             `bson:"url"`
	ExpiresAt           time.Time          `bson:"expires_at"`
	ExpiresInDays       int                `bson:"expires_in_days"`
	MaxParticipants     int64              `bson:"max_participants"`
	CurrentParticipants int64              `bson:"current_participants"`
	Status              string             `bson:"status"`
	Stats               mongoChainStats    `bson:"stats"`
	Settings            mongoChainSettings `bson:"settings"`
	Order               int                `bson:"order"`
	CreatedAt           time.Time          `bson:"created_at"`
	UpdatedAt           time.Time          `bson:"updated_at"`
}

func toMongoChain(c *domain.Chain) (mongoChain, error) {
	userID, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return mongoChain{}, fmt.Errorf("chain owner id %q: %w", c.UserID, err)
	}
	return mongoChain{
		UserID:              userID,
		Name:                c.Name,
		Emoji:               c.Emoji,
		Description:         c.Description,
		Category:            string(c.Category),
		PriceInitial:        c.PriceInitial,
		PriceFinal:          c.PriceFinal,
		Discount:            c.Discount,
		URL:                 c.URL,
		ExpiresAt:           c.ExpiresAt.UTC(),
		ExpiresInDays:       c.ExpiresInDays,
		MaxParticipants:     c.MaxParticipants,
		CurrentParticipants: c.CurrentParticipants,
		Status:              string(c.Status),
		Stats:               mongoChainStats(c.Stats),
		Settings:            mongoChainSettings(c.Settings),
		Order:               c.Order,
		CreatedAt:           c.CreatedAt.UTC(),
		UpdatedAt:           c.UpdatedAt.UTC(),
	}, nil
}

func (m mongoChain) toDomain() *domain.Chain {
	return &domain.Chain{
		ID:                  m.ID.Hex(),
		UserID:              m.UserID.Hex(),
		Name:                m.Name,
		Emoji:               m.Emoji,
		Description:         m.Description,
		Category:            domain.Category(m.Category),
		PriceInitial:        m.PriceInitial,
		PriceFinal:          m.PriceFinal,
		Discount:            m.Discount,
		URL:                 m.URL,
		ExpiresAt:           m.ExpiresAt.UTC(),
		ExpiresInDays:       m.ExpiresInDays,
		MaxParticipants:     m.MaxParticipants,
		CurrentParticipants: m.CurrentParticipants,
		Status:              domain.ChainStatus(m.Status),
		Stats:               domain.ChainStats(m.Stats),
		Settings:            domain.ChainSettings(m.Settings),
		Order:               m.Order,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

// ownedFilter matches id when it belongs to userID. ok is false when either
// id is malformed, in which case nothing can match.
func ownedFilter(id, userID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "user_id": uid}, true
}

func (r *ChainRepository) Create(ctx context.Context, c *domain.Chain) error {
	doc, err := toMongoChain(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert chain: %w", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *ChainRepository) FindByID(ctx context.Context, id string) (*domain.Chain, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrChainNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ChainRepository) FindOwned(ctx context.Context, id, userID string) (*domain.Chain, error) {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return nil, domain.ErrChainNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *ChainRepository) findOne(ctx context.Context, filter bson.M) (*domain.Chain, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoChain
	if err := r.col.FindOne(ctx, filter).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChainNotFound
		}
		return nil, fmt.Errorf("find chain: %w", err)
	}
	return mc.toDomain(), nil
}

// editableFields is the $set document of an owner edit. Counters, order and
// createdAt are left out so concurrent engagement is never overwritten.
func editableFields(c *domain.Chain) bson.M {
	return bson.M{
		"name":             c.Name,
		"emoji":            c.Emoji,
		"description":      c.Description,
		"category":         string(c.Category),
		"price_initial":    c.PriceInitial,
		"price_final":      c.PriceFinal,
		"discount":         c.Discount,
		"url":              c.URL,
		"expires_at":       c.ExpiresAt.UTC(),
		"expires_in_days":  c.ExpiresInDays,
		"max_participants": c.MaxParticipants,
		"status":           string(c.Status),
		"settings":         mongoChainSettings(c.Settings),
		"updated_at":       c.UpdatedAt.UTC(),
	}
}

func (r *ChainRepository) Update(ctx context.Context, c *domain.Chain) (*domain.Chain, error) {
	filter, ok := ownedFilter(c.ID, c.UserID)
	if !ok {
		return nil, domain.ErrChainNotFound
	}
	// The cap may not drop below participants that joined since the read.
	filter["current_participants"] = bson.M{"$lte": c.MaxParticipants}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mc mongoChain
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": editableFields(c)}, opts).Decode(&mc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrOverCap(ctx, c.ID, c.UserID)
		}
		return nil, fmt.Errorf("update chain: %w", err)
	}
	return mc.toDomain(), nil
}

func (r *ChainRepository) missOrOverCap(ctx context.Context, id, userID string) error {
	if _, err := r.FindOwned(ctx, id, userID); err != nil {
		return err
	}
	return domain.Invalid("maxParticipants cannot be lower than the current participant count")
}

func (r *ChainRepository) Delete(ctx context.Context, id, userID string) error {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return domain.ErrChainNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete chain: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrChainNotFound
	}
	return nil
}

func (r *ChainRepository) Count(ctx context.Context, userID string, status domain.ChainStatus) (int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, fmt.Errorf("count chains: owner id %q: %w", userID, err)
	}
	filter := bson.M{"user_id": uid}
	if status != "" {
		filter["status"] = string(status)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count chains: %w", err)
	}
	return n, nil
}

var sortColumns = map[ports.ChainSortField]string{
	ports.SortCreatedAt:  "created_at",
	ports.SortUpdatedAt:  "updated_at",
	ports.SortName:       "name",
	ports.SortOrder:      "order",
	ports.SortExpiresAt:  "expires_at",
	ports.SortPriceFinal: "price_final",
	ports.SortViews:      "stats.views",
	ports.SortClicks:     "stats.clicks",
}

// listFilter translates a ChainListFilter into a Mongo query.
func listFilter(f ports.ChainListFilter) (bson.M, error) {
	uid, err := primitive.ObjectIDFromHex(f.UserID)
	if err != nil {
		return nil, fmt.Errorf("list chains: owner id %q: %w", f.UserID, err)
	}
	filter := bson.M{"user_id": uid}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.PublicOnly {
		filter["settings.is_public"] = true
	}
	return filter, nil
}

// sortDoc orders by the requested column with _id as a stable tie-breaker.
func sortDoc(s ports.ChainSort) bson.D {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = "created_at"
	}
	dir := 1
	if s.Desc {
		dir = -1
	}
	return bson.D{{Key: col, Value: dir}, {Key: "_id", Value: dir}}
}

func (r *ChainRepository) List(ctx context.Context, f ports.ChainListFilter) ([]*domain.Chain, int64, error) {
	filter, err := listFilter(f)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count chains: %w", err)
	}

	opts := options.Find().SetSort(sortDoc(f.Sort)).SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find chains: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoChain
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode chains: %w", err)
	}

	chains := make([]*domain.Chain, 0, len(docs))
	for _, d := range docs {
		chains = append(chains, d.toDomain())
	}
	return chains, total, nil
}

func (r *ChainRepository) SetOrder(ctx context.Context, id, userID string, order int) (bool, error) {
	filter, ok := ownedFilter(id, userID)
	if !ok {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"order": order}})
	if err != nil {
		return false, fmt.Errorf("set chain order: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *ChainRepository) IncrementActive(ctx context.Context, id string, counter ports.EngagementCounter) (*domain.Chain, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrChainNotFound
	}
	var field string
	switch counter {
	case ports.CounterViews:
		field = "stats.views"
	case ports.CounterClicks:
		field = "stats.clicks"
	default:
		return nil, fmt.Errorf("unknown engagement counter %q", counter)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": string(domain.ChainActive)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mc mongoChain
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{field: 1}}, opts).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrChainNotFound
		}
		return nil, fmt.Errorf("increment %s: %w", field, err)
	}
	return mc.toDomain(), nil
}

func (r *ChainRepository) AddParticipant(ctx context.Context, id string) (*domain.Chain, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrChainNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":   oid,
		"$expr": bson.M{"$lt": bson.A{"$current_participants", "$max_participants"}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mc mongoChain
	err = r.col.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"current_participants": 1}}, opts).Decode(&mc)
	if err == nil {
		return mc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("add participant: %w", err)
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrCapacityExceeded
}

func (r *ChainRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":     string(domain.ChainActive),
		"expires_at": bson.M{"$lt": now.UTC()},
	}
	update := bson.M{"$set": bson.M{
		"status":     string(domain.ChainExpired),
		"updated_at": now.UTC(),
	}}

	res, err := r.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("expire chains: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *ChainRepository) Totals(ctx context.Context, userID string) (ports.ChainTotals, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ports.ChainTotals{}, fmt.Errorf("chain totals: owner id %q: %w", userID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, totalsPipeline(uid))
	if err != nil {
		return ports.ChainTotals{}, fmt.Errorf("aggregate chain totals: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Views   int64   `bson:"views"`
		Clicks  int64   `bson:"clicks"`
		Revenue float64 `bson:"revenue"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return ports.ChainTotals{}, fmt.Errorf("decode chain totals: %w", err)
	}
	if len(rows) == 0 {
		return ports.ChainTotals{}, nil
	}
	return ports.ChainTotals{Views: rows[0].Views, Clicks: rows[0].Clicks, Revenue: rows[0].Revenue}, nil
}

func totalsPipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"views":   bson.M{"$sum": "$stats.views"},
			"clicks":  bson.M{"$sum": "$stats.clicks"},
			"revenue": bson.M{"$sum": "$stats.revenue"},
		}}},
	}
}

// EnsureIndexes creates the owner and sweep indexes on the chains collection.
func (r *ChainRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "order", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
