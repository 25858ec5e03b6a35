package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"imagegallery/models"
)

type mongoImage struct {
	ObjectID           bson.ObjectID `bson:"_id,omitempty"`
	models.ImageRecord `bson:",inline"`
}

// MongoRepository stores metadata as one document per image. A unique
// index on image_id rejects duplicate appends. Search and tag listing run
// on the server.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository ensures the indexes the repository relies on exist.
func NewMongoRepository(ctx context.Context, coll *mongo.Collection) (*MongoRepository, error) {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "image_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "upload_date", Value: -1}, {Key: "_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "tags", Value: 1}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	return &MongoRepository{coll: coll}, nil
}

func (r *MongoRepository) Append(ctx context.Context, rec models.ImageRecord) error {
	doc := mongoImage{ImageRecord: rec.Metadata()}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (models.ImageRecord, error) {
	var doc mongoImage
	err := r.coll.FindOne(ctx, bson.D{{Key: "image_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ImageRecord{}, ErrNotFound
		}
		return models.ImageRecord{}, fmt.Errorf("find image: %w", err)
	}
	return doc.ImageRecord, nil
}

// List returns records in _id order, which follows insertion order for
// documents written by one client.
func (r *MongoRepository) List(ctx context.Context) ([]models.ImageRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.D{}, opts)
}

func (r *MongoRepository) Search(ctx context.Context, params models.SearchParams) ([]models.ImageRecord, error) {
	filter := bson.D{}
	if len(params.Tags) > 0 {
		clauses := bson.A{}
		for _, tag := range params.Tags {
			clauses = append(clauses, bson.D{{Key: "tags", Value: bson.Regex{
				Pattern: regexp.QuoteMeta(tag),
				Options: "i",
			}}})
		}
		filter = bson.D{{Key: "$or", Value: clauses}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "upload_date", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))

	records, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ImageRecord{}
	}
	return records, nil
}

func (r *MongoRepository) Tags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := r.coll.Distinct(ctx, "tags", bson.D{}).Decode(&tags); err != nil {
		return nil, fmt.Errorf("distinct tags: %w", err)
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *MongoRepository) find(ctx context.Context, filter any, opts *options.FindOptionsBuilder) ([]models.ImageRecord, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find images: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoImage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}

	var records []models.ImageRecord
	for _, d := range docs {
		records = append(records, d.ImageRecord)
	}
	return records, nil
}
