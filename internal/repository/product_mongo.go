package repository

import (
	"context"
	"errors"
	"fmt"

	"shelflife/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoProductRepository is the document-store backend. Products live in one
// collection partitioned by the userId field; ids are the same uuid strings
// the postgres backend uses, stored as _id.
type mongoProductRepository struct {
	col *mongo.Collection
}

// NewMongoProductRepository wraps a collection and ensures the owner-scope
// index exists.
func NewMongoProductRepository(ctx context.Context, col *mongo.Collection) (ProductRepository, error) {
	idx := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "expiryDate", Value: 1}},
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("failed to create product index: %w", err)
	}
	return &mongoProductRepository{col: col}, nil
}

func (r *mongoProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	if _, err := r.col.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *mongoProductRepository) Update(ctx context.Context, product *domain.Product) error {
	filter := bson.M{"_id": product.ID, "userId": product.UserID}
	set := bson.M{
		"brand":     product.Brand,
		"name":      product.Name,
		"notes":     product.Notes,
		"photo":     product.Photo,
		"updatedAt": product.UpdatedAt,
	}
	// Absent dates are unset rather than stored as empty strings so the
	// expiry index stays meaningful.
	unset := bson.M{}
	for field, value := range map[string]string{
		"expiryDate":   product.ExpiryDate,
		"openedDate":   product.OpenedDate,
		"purchaseDate": product.PurchaseDate,
	} {
		if value == "" {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	var product domain.Product
	err := r.col.FindOne(ctx, bson.M{"_id": id, "userId": ownerID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

func (r *mongoProductRepository) List(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cur.Close(ctx)

	products := []*domain.Product{}
	for cur.Next(ctx) {
		var product domain.Product
		if err := cur.Decode(&product); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		// Mongo round-trips time.Time at millisecond precision in UTC.
		product.CreatedAt = product.CreatedAt.UTC()
		product.UpdatedAt = product.UpdatedAt.UTC()
		products = append(products, &product)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
