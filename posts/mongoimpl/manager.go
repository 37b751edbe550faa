package mongoimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/aupe5089/socialcademy/posts"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collName = "posts"

type MongoRepository struct {
	posts  *mongo.Collection
	client *mongo.Client
}

var _ posts.Repository = (*MongoRepository)(nil)

func ensureIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: posts.FieldTimestamp, Value: -1}},
		},
	}
	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)

	_, err := collection.Indexes().CreateMany(ctx, indexModels, opts)
	if err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return nil
}

// Connect dials mongoURL and returns a repository over the posts
// collection of dbName.
func Connect(ctx context.Context, mongoURL string, dbName string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	collection := client.Database(dbName).Collection(collName)
	if err := ensureIndexes(ctx, collection); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	repo := NewMongoRepository(collection)
	repo.client = client
	return repo, nil
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{posts: collection, client: collection.Database().Client()}
}

func (m *MongoRepository) IsReady(ctx context.Context) bool {
	if err := m.client.Ping(ctx, nil); err != nil {
		return false
	}
	return true
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) Create(ctx context.Context, post posts.Post) error {
	_, err := m.posts.InsertOne(ctx, posts.ToDocument(post))
	if err != nil {
		return fmt.Errorf("failed to insert post %s: %w: %v", post.Key(), posts.ErrStorage, err)
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, post posts.Post) error {
	res, err := m.posts.DeleteOne(ctx, bson.M{posts.FieldKey: post.Key()})
	if err != nil {
		return fmt.Errorf("failed to delete post %s: %w: %v", post.Key(), posts.ErrStorage, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post %s: %w", post.Key(), posts.ErrNotFound)
	}
	return nil
}

func (m *MongoRepository) FetchPosts(ctx context.Context) ([]posts.Post, error) {
	cursor, err := m.posts.Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: posts.FieldTimestamp, Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w: %v", posts.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	result := make([]posts.Post, 0)
	for cursor.Next(ctx) {
		post, err := decodePost(cursor)
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w: %v", posts.ErrStorage, err)
	}

	return result, nil
}

func decodePost(cursor *mongo.Cursor) (posts.Post, error) {
	var doc posts.Document
	if err := cursor.Decode(&doc); err != nil {
		key, _ := cursor.Current.Lookup(posts.FieldKey).StringValueOK()
		return posts.Post{}, &posts.DecodeError{DocumentID: key, Err: err}
	}
	return doc.Post()
}
