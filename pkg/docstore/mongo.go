package docstore

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "patternmark"
	defaultMongoCollection = "documents"
)

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// mongoDocument is the stored shape: the document name is the _id.
type mongoDocument struct {
	Name      string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore stores one MongoDB document per name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = defaultMongoURI
	}
	if cfg.Database == "" {
		cfg.Database = defaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, storageErr(err, "connect mongo")
	}
	if err := connectWithRetry(ctx, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storageErr(err, "ping mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, key string) (data []byte, hit bool, err error) {
	start := time.Now()
	defer func() { observeRead(ctx, BackendMongo, start, hit, err) }()
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	var doc mongoDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, storageErr(err, "mongo find %s", key)
	}
	return doc.Payload, true, nil
}

func (s *MongoStore) Put(ctx context.Context, key string, data []byte) (err error) {
	start := time.Now()
	defer func() { observeWrite(ctx, BackendMongo, start, len(data), err) }()
	if err := ValidateKey(key); err != nil {
		return err
	}

	doc := mongoDocument{Name: key, Payload: data, UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return storageErr(err, "mongo replace %s", key)
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return storageErr(err, "mongo delete %s", key)
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storageErr(err, "mongo find")
	}
	defer func() { _ = cur.Close(ctx) }()

	names := []string{}
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, storageErr(err, "mongo decode")
		}
		names = append(names, doc.Name)
	}
	if err := cur.Err(); err != nil {
		return nil, storageErr(err, "mongo cursor")
	}
	return names, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
