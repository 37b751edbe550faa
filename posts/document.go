package posts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	FieldKey       = "_id"
	FieldTimestamp = "timestamp"
)

var errMissingTimestamp = errors.New("missing timestamp")

// Document is the stored form of a Post. The key is the id's string form.
type Document struct {
	Key        string    `bson:"_id"`
	ID         string    `bson:"id"`
	Title      string    `bson:"title"`
	Content    string    `bson:"content"`
	AuthorName string    `bson:"authorName"`
	Timestamp  time.Time `bson:"timestamp"`
}

func ToDocument(p Post) Document {
	return Document{
		Key:        p.Key(),
		ID:         p.ID.String(),
		Title:      p.Title,
		Content:    p.Content,
		AuthorName: p.AuthorName,
		Timestamp:  p.Timestamp,
	}
}

func (d Document) Post() (Post, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Post{}, &DecodeError{DocumentID: d.Key, Err: err}
	}
	if d.Timestamp.IsZero() {
		return Post{}, &DecodeError{DocumentID: d.Key, Err: errMissingTimestamp}
	}
	return Post{
		ID:         id,
		Title:      d.Title,
		Content:    d.Content,
		AuthorName: d.AuthorName,
		Timestamp:  d.Timestamp.UTC(),
	}, nil
}
