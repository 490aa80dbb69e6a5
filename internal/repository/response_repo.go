package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medform/internal/model"
)

var ErrResponseNotFound = errors.New("response not found")

// ResponseRepository stores submitted questionnaires
type ResponseRepository interface {
	Create(ctx context.Context, response *model.Response) error
	GetByID(ctx context.Context, id string) (*model.Response, error)
	// List returns responses inside the filter window, newest first
	List(ctx context.Context, filter model.ResponseFilter) ([]*model.Response, error)
}

type responseRepository struct {
	collection *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) ResponseRepository {
	return &responseRepository{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepository) Create(ctx context.Context, response *model.Response) error {
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		response.ID = oid.Hex()
	}
	return nil
}

func (r *responseRepository) GetByID(ctx context.Context, id string) (*model.Response, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrResponseNotFound
	}

	var response model.Response
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, ErrResponseNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&response)
	return &response, nil
}

func (r *responseRepository) List(ctx context.Context, filter model.ResponseFilter) ([]*model.Response, error) {
	query := bson.M{}
	window := bson.M{}
	if !filter.From.IsZero() {
		window["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		window["$lte"] = filter.To
	}
	if len(window) > 0 {
		query["createdAt"] = window
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	responses := []*model.Response{}
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	for _, r := range responses {
		normalize(r)
	}
	return responses, nil
}

// normalize turns BSON arrays and embedded documents decoded into
// interface{} back into plain slices and maps
func normalize(r *model.Response) {
	for _, m := range []map[string]interface{}{r.Answers, r.Computed, r.Meta} {
		for k, v := range m {
			m[k] = plainBSON(v)
		}
	}
	r.CreatedAt = r.CreatedAt.UTC()
}

func plainBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = plainBSON(item)
		}
		return out
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = plainBSON(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = plainBSON(item)
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
