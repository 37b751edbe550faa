package posts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewPost stamps a post with a fresh id and the current time. The time is
// truncated to milliseconds, the resolution documents are stored with.
func NewPost(title, content, authorName string) Post {
	return Post{
		ID:         uuid.New(),
		Title:      title,
		Content:    content,
		AuthorName: authorName,
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Contains reports whether query occurs in the title, content or author
// name, ignoring case.
func (p Post) Contains(query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{p.Title, p.Content, p.AuthorName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Key is the document key the post is stored under.
func (p Post) Key() string {
	return p.ID.String()
}
