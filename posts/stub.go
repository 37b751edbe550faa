package posts

import "context"

// StubRepository does nothing. It backs previews and tests that only need
// the view model to have something to call.
type StubRepository struct{}

var _ Repository = StubRepository{}

func (StubRepository) FetchPosts(context.Context) ([]Post, error) {
	return []Post{}, nil
}

func (StubRepository) Create(context.Context, Post) error { return nil }

func (StubRepository) Delete(context.Context, Post) error { return nil }

func (StubRepository) IsReady(context.Context) bool { return true }
