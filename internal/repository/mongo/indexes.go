package mongo

import (
	"alcyxob/coach-dashboard/internal/domain"
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexModels lists the indexes of each collection.
var indexModels = map[domain.EntityKind][]mongo.IndexModel{
	domain.KindPrograms: {
		{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index()},
		{Keys: bson.D{{Key: "is_template", Value: 1}}, Options: options.Index()},
	},
	domain.KindMesocycles: {
		// week_number is unique within a program
		{Keys: bson.D{{Key: "program_id", Value: 1}, {Key: "week_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	domain.KindDays: {
		// day_number is unique within a mesocycle
		{Keys: bson.D{{Key: "mesocycle_id", Value: 1}, {Key: "day_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	domain.KindBlocks: {
		{Keys: bson.D{{Key: "day_id", Value: 1}, {Key: "order_index", Value: 1}}, Options: options.Index()},
		{Keys: bson.D{{Key: "progression_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	domain.KindMealPlans: {
		{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index()},
	},
	domain.KindMeals: {
		{Keys: bson.D{{Key: "meal_plan_id", Value: 1}, {Key: "order", Value: 1}}, Options: options.Index()},
	},
	domain.KindMealItems: {
		{Keys: bson.D{{Key: "meal_id", Value: 1}, {Key: "order", Value: 1}}, Options: options.Index()},
	},
	domain.KindFoods: {
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index()},
		{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index()},
	},
	domain.KindProfiles: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	domain.KindClients: {
		{Keys: bson.D{{Key: "coach_id", Value: 1}}, Options: options.Index()},
	},
}

// EnsureIndexes creates the indexes of every collection. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	for kind, models := range indexModels {
		if _, err := db.Collection(string(kind)).Indexes().CreateMany(ctx, models); err != nil {
			log.Printf("WARN: Failed to create indexes for collection %s: %v", kind, err)
		}
	}
}
