// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blockwatch.cc/flightsurety/pkg/surety"
)

const COLLECTION = "flights"

// NewMongoClient connects and pings a MongoDB server.
func NewMongoClient(ctx context.Context, uri, username, password string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	if username != "" && password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: username,
			Password: password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// MongoRepository stores feed entries in a MongoDB collection keyed by
// flight id.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(ctx context.Context, db *mongo.Database) (*MongoRepository, error) {
	collection := db.Collection(COLLECTION)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "airline", Value: 1}, {Key: "departure", Value: 1}}},
		{Keys: bson.M{"status": 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating feed indexes: %w", err)
	}
	return &MongoRepository{collection: collection}, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, flight *Flight) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": flight.ID},
		bson.M{"$set": bson.M{
			"airline":    flight.Airline,
			"flight":     flight.Code,
			"departure":  flight.Departure,
			"status":     flight.Status,
			"statusName": flight.StatusName,
			"updatedAt":  flight.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id surety.FlightID, status surety.StatusCode, at time.Time) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     status,
			"statusName": status.String(),
			"updatedAt":  at,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id surety.FlightID) (*Flight, error) {
	var f Flight
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *MongoRepository) List(ctx context.Context, filter Filter) ([]Flight, error) {
	query, err := filter.bson()
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "departure", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	list := make([]Flight, 0)
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (f Filter) bson() (bson.M, error) {
	query := bson.M{}
	if f.Airline != "" {
		query["airline"] = f.Airline
	}
	status, ok, err := f.status()
	if err != nil {
		return nil, err
	}
	if ok {
		query["status"] = status
	}
	return query, nil
}
