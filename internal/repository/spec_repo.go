package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medform/internal/model"
)

var ErrSpecNotPublished = errors.New("no published specification")

// SpecRepo handles MongoDB operations for published specifications
type SpecRepo interface {
	// Publish stores doc, replacing any earlier document with the same version
	Publish(ctx context.Context, doc *model.PublishedSpec) error
	// Latest returns the most recently published version of a questionnaire
	Latest(ctx context.Context, questionnaireID string) (*model.PublishedSpec, error)
	Versions(ctx context.Context, questionnaireID string) ([]*model.PublishedSpec, error)
}

type specRepo struct {
	collection *mongo.Collection
}

// NewSpecRepo creates a new specification repository
func NewSpecRepo(db *mongo.Database) SpecRepo {
	return &specRepo{
		collection: db.Collection("specifications"),
	}
}

func (r *specRepo) Publish(ctx context.Context, doc *model.PublishedSpec) error {
	if doc.PublishedAt.IsZero() {
		doc.PublishedAt = time.Now().UTC()
	}

	filter := bson.M{"questionnaireId": doc.QuestionnaireID, "version": doc.Version}
	update := bson.M{"$set": bson.M{
		"document":    doc.Document,
		"publishedAt": doc.PublishedAt,
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *specRepo) Latest(ctx context.Context, questionnaireID string) (*model.PublishedSpec, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "publishedAt", Value: -1}})

	var doc model.PublishedSpec
	err := r.collection.FindOne(ctx, bson.M{"questionnaireId": questionnaireID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrSpecNotPublished
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *specRepo) Versions(ctx context.Context, questionnaireID string) ([]*model.PublishedSpec, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "publishedAt", Value: -1}}).
		SetProjection(bson.M{"document": 0})
	cursor, err := r.collection.Find(ctx, bson.M{"questionnaireId": questionnaireID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []*model.PublishedSpec{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
