package posts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorName string    `json:"authorName"`
	Timestamp  time.Time `json:"timestamp"`
}

// Repository is the set of operations the view model runs against the
// remote store. Each call is a single document read or write.
type Repository interface {
	FetchPosts(ctx context.Context) ([]Post, error)
	Create(ctx context.Context, post Post) error
	Delete(ctx context.Context, post Post) error
}

type Pinger interface {
	IsReady(ctx context.Context) bool
}
