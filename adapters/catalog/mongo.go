// Package catalog provides implementations of the product-catalog
// collaborator consumed by the tool dispatcher.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
)

const defaultSearchLimit = 10

// Client wraps the MongoDB client and database handle.
type Client struct {
	*mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

// NewClient connects to MongoDB and verifies the connection.
func NewClient(uri, dbName string, logger *zap.Logger) (*Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB", zap.String("database", dbName))

	return &Client{
		Client:   client,
		Database: client.Database(dbName),
		logger:   logger,
	}, nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.Client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		return err
	}
	c.logger.Info("Disconnected from MongoDB")
	return nil
}

// MongoCatalog implements repositories.Catalog over the products and
// fitments collections.
type MongoCatalog struct {
	products *mongo.Collection
	fitments *mongo.Collection
}

// NewMongoCatalog creates a catalog over the given database.
func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{
		products: db.Collection("products"),
		fitments: db.Collection("fitments"),
	}
}

type productDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	SKU            string             `bson:"sku"`
	ItemName       string             `bson:"item_name"`
	Family         string             `bson:"family,omitempty"`
	Category       string             `bson:"category,omitempty"`
	Capacity       string             `bson:"capacity,omitempty"`
	Color          string             `bson:"color,omitempty"`
	NeckThreadSize string             `bson:"neck_thread_size,omitempty"`
	ApplicatorType string             `bson:"applicator_type,omitempty"`
	UnitPrice      *float64           `bson:"unit_price,omitempty"`
	BulkPrice      *float64           `bson:"bulk_price,omitempty"`
	Slug           string             `bson:"slug,omitempty"`
}

func (d productDoc) card() entities.ProductCard {
	return entities.ProductCard{
		SKU:            d.SKU,
		ItemName:       d.ItemName,
		Family:         d.Family,
		Category:       d.Category,
		Capacity:       d.Capacity,
		Color:          d.Color,
		NeckThreadSize: d.NeckThreadSize,
		UnitPrice:      d.UnitPrice,
		BulkPrice:      d.BulkPrice,
		Slug:           d.Slug,
	}
}

// Search implements repositories.Catalog. Keyword terms are matched against
// the item name; every term must match.
func (c *MongoCatalog) Search(ctx context.Context, query repositories.SearchQuery) ([]entities.ProductCard, error) {
	filter := bson.M{}

	var terms []bson.M
	for _, term := range strings.Fields(query.Term) {
		terms = append(terms, bson.M{
			"item_name": bson.M{"$regex": primitive.Regex{Pattern: regexEscape(term), Options: "i"}},
		})
	}
	if len(terms) > 0 {
		filter["$and"] = terms
	}
	if query.Category != "" {
		filter["category"] = query.Category
	}
	if query.Family != "" {
		filter["family"] = query.Family
	}
	if query.ApplicatorFilter != "" {
		var applicators []string
		for _, a := range strings.Split(query.ApplicatorFilter, ",") {
			if a = strings.TrimSpace(a); a != "" {
				applicators = append(applicators, a)
			}
		}
		if len(applicators) > 0 {
			filter["applicator_type"] = bson.M{"$in": applicators}
		}
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	cursor, err := c.products.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var cards []entities.ProductCard
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		cards = append(cards, doc.card())
	}
	return cards, cursor.Err()
}

// ProductBySKU implements repositories.Catalog.
func (c *MongoCatalog) ProductBySKU(ctx context.Context, sku string) (*entities.ProductCard, error) {
	var doc productDoc
	err := c.products.FindOne(ctx, bson.M{"sku": sku}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up product %s: %w", sku, err)
	}
	card := doc.card()
	return &card, nil
}

// FamilyOverview implements repositories.Catalog by folding the family's
// products into an aggregate view.
func (c *MongoCatalog) FamilyOverview(ctx context.Context, family string) (*repositories.FamilyOverview, error) {
	cursor, err := c.products.Find(ctx, bson.M{"family": family})
	if err != nil {
		return nil, fmt.Errorf("family overview query failed: %w", err)
	}
	defer cursor.Close(ctx)

	overview := &repositories.FamilyOverview{Family: family}
	capacities := map[string]bool{}
	colors := map[string]bool{}
	threads := map[string]bool{}
	applicators := map[string]bool{}

	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		overview.ProductCount++
		if doc.Capacity != "" {
			capacities[doc.Capacity] = true
		}
		if doc.Color != "" {
			colors[doc.Color] = true
		}
		if doc.NeckThreadSize != "" {
			threads[doc.NeckThreadSize] = true
		}
		if doc.ApplicatorType != "" {
			applicators[doc.ApplicatorType] = true
		}
		if doc.UnitPrice != nil {
			price := *doc.UnitPrice
			if overview.PriceMin == 0 || price < overview.PriceMin {
				overview.PriceMin = price
			}
			if price > overview.PriceMax {
				overview.PriceMax = price
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if overview.ProductCount == 0 {
		return nil, nil
	}

	overview.Capacities = sortedKeys(capacities)
	overview.Colors = sortedKeys(colors)
	overview.ThreadSizes = sortedKeys(threads)
	overview.Applicators = sortedKeys(applicators)
	return overview, nil
}

// Fitments implements repositories.Catalog.
func (c *MongoCatalog) Fitments(ctx context.Context, threadSize string) ([]repositories.Fitment, error) {
	cursor, err := c.fitments.Find(ctx, bson.M{"thread_size": threadSize})
	if err != nil {
		return nil, fmt.Errorf("fitment query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var fitments []repositories.Fitment
	for cursor.Next(ctx) {
		var f repositories.Fitment
		if err := cursor.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode fitment: %w", err)
		}
		fitments = append(fitments, f)
	}
	return fitments, cursor.Err()
}

// Components implements repositories.Catalog: every component product whose
// thread size matches the bottle's neck.
func (c *MongoCatalog) Components(ctx context.Context, bottleSKU string) ([]entities.ProductCard, error) {
	bottle, err := c.ProductBySKU(ctx, bottleSKU)
	if err != nil {
		return nil, err
	}
	if bottle == nil || bottle.NeckThreadSize == "" {
		return nil, nil
	}

	cursor, err := c.products.Find(ctx, bson.M{
		"category":         "Component",
		"neck_thread_size": bottle.NeckThreadSize,
	})
	if err != nil {
		return nil, fmt.Errorf("component query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var cards []entities.ProductCard
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode component: %w", err)
		}
		cards = append(cards, doc.card())
	}
	return cards, cursor.Err()
}

// Stats implements repositories.Catalog with a pair of group aggregations.
func (c *MongoCatalog) Stats(ctx context.Context) (*repositories.CatalogStats, error) {
	stats := &repositories.CatalogStats{
		ByFamily:   map[string]int{},
		ByCategory: map[string]int{},
	}

	total, err := c.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("catalog count failed: %w", err)
	}
	stats.TotalProducts = int(total)

	for _, group := range []struct {
		field string
		into  map[string]int
	}{
		{"$family", stats.ByFamily},
		{"$category", stats.ByCategory},
	} {
		cursor, err := c.products.Aggregate(ctx, mongo.Pipeline{
			{{Key: "$group", Value: bson.M{"_id": group.field, "count": bson.M{"$sum": 1}}}},
		})
		if err != nil {
			return nil, fmt.Errorf("catalog aggregation failed: %w", err)
		}
		var rows []struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode aggregation: %w", err)
		}
		for _, row := range rows {
			if row.ID != "" {
				group.into[row.ID] = row.Count
			}
		}
	}
	return stats, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func regexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
