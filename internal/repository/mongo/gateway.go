package mongo

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoGateway implements repository.Gateway with one collection per entity kind.
type mongoGateway struct {
	db *mongo.Database
}

// NewMongoGateway creates a gateway over a connected database.
func NewMongoGateway(db *mongo.Database) repository.Gateway {
	return &mongoGateway{db: db}
}

func (g *mongoGateway) collection(kind domain.EntityKind) (*mongo.Collection, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownEntity, kind)
	}
	return g.db.Collection(string(kind)), nil
}

// Upsert inserts a new document when id is nil, otherwise $sets fields on the
// document with that id (creating it if needed) and returns the stored row.
func (g *mongoGateway) Upsert(ctx context.Context, kind domain.EntityKind, id *string, fields domain.Fields) (domain.Row, error) {
	coll, err := g.collection(kind)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if id == nil {
		doc := bson.M{}
		for k, v := range fields {
			doc[k] = v
		}
		newID := uuid.NewString()
		doc["_id"] = newID
		doc["created_at"] = now
		doc["updated_at"] = now
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			return nil, err
		}
		return normalizeDocument(doc), nil
	}

	set := bson.M{"updated_at": now}
	for k, v := range fields {
		if k == "id" || k == "_id" || k == "created_at" {
			continue
		}
		set[k] = v
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored bson.M
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": *id}, update, opts).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUpdateFailed
		}
		return nil, err
	}
	return normalizeDocument(stored), nil
}

// Delete removes the document with the given id.
func (g *mongoGateway) Delete(ctx context.Context, kind domain.EntityKind, id string) error {
	coll, err := g.collection(kind)
	if err != nil {
		return err
	}
	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns matching documents sorted by the kind's order columns.
func (g *mongoGateway) List(ctx context.Context, kind domain.EntityKind, filter domain.Filter) ([]domain.Row, error) {
	coll, err := g.collection(kind)
	if err != nil {
		return nil, err
	}

	sortDoc := bson.D{}
	for _, col := range repository.OrderColumns[kind] {
		sortDoc = append(sortDoc, bson.E{Key: col, Value: 1})
	}
	sortDoc = append(sortDoc, bson.E{Key: "_id", Value: 1})

	cursor, err := coll.Find(ctx, buildFilter(filter), options.Find().SetSort(sortDoc))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, normalizeDocument(doc))
	}
	return rows, nil
}

// buildFilter translates a gateway filter into a mongo query document.
func buildFilter(filter domain.Filter) bson.M {
	query := bson.M{}
	for key, value := range filter {
		if key == "id" {
			key = "_id"
		}
		if values, ok := value.([]string); ok {
			query[key] = bson.M{"$in": values}
			continue
		}
		query[key] = value
	}
	return query
}

// normalizeDocument turns a decoded document into a plain row: "_id" becomes
// "id", DateTimes become time.Time and nested bson types become maps and slices.
func normalizeDocument(doc bson.M) domain.Row {
	row := domain.Row{}
	for k, v := range doc {
		if k == "_id" {
			k = "id"
		}
		row[k] = normalizeValue(v)
	}
	return row
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeValue(inner)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeValue(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.ObjectID:
		return val.Hex()
	case int32:
		return int64(val)
	}
	return v
}
