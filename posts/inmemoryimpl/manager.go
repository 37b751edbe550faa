package inmemoryimpl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aupe5089/socialcademy/posts"

	"go.mongodb.org/mongo-driver/bson"
)

// InMemoryRepository keeps posts as encoded documents, the same shape the
// mongo collection holds, so reads go through the same decoding.
type InMemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]bson.Raw
}

var _ posts.Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		docs: make(map[string]bson.Raw),
	}
}

func (repo *InMemoryRepository) Create(_ context.Context, post posts.Post) error {
	raw, err := bson.Marshal(posts.ToDocument(post))
	if err != nil {
		return fmt.Errorf("failed to encode post %s: %w: %v", post.Key(), posts.ErrStorage, err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.docs[post.Key()]; ok {
		return fmt.Errorf("post %s already exists: %w", post.Key(), posts.ErrStorage)
	}
	repo.docs[post.Key()] = raw
	return nil
}

// PutRaw stores an arbitrary document under key, bypassing encoding.
func (repo *InMemoryRepository) PutRaw(key string, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.docs[key] = raw
	return nil
}

func (repo *InMemoryRepository) Delete(_ context.Context, post posts.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.docs[post.Key()]; !ok {
		return fmt.Errorf("post %s: %w", post.Key(), posts.ErrNotFound)
	}
	delete(repo.docs, post.Key())
	return nil
}

func (repo *InMemoryRepository) FetchPosts(_ context.Context) ([]posts.Post, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	result := make([]posts.Post, 0, len(repo.docs))
	for key, raw := range repo.docs {
		var doc posts.Document
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, &posts.DecodeError{DocumentID: key, Err: err}
		}
		post, err := doc.Post()
		if err != nil {
			return nil, err
		}
		result = append(result, post)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Key() < result[j].Key()
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

func (repo *InMemoryRepository) IsReady(_ context.Context) bool {
	return true
}
