package redisimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aupe5089/socialcademy/posts"
	"github.com/aupe5089/socialcademy/posts/inmemoryimpl"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
)

var ctx = context.Background()

func TestRedisRepository(t *testing.T) {
	suite.Run(t, new(RedisRepositorySuite))
}

type RedisRepositorySuite struct {
	suite.Suite

	mini        *miniredis.Miniredis
	redisClient *redis.Client
	persistent  *inmemoryimpl.InMemoryRepository
	cached      *RedisRepository
}

func (s *RedisRepositorySuite) SetupSuite() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mini = mr
	s.redisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func (s *RedisRepositorySuite) TearDownSuite() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *RedisRepositorySuite) SetupTest() {
	s.persistent = inmemoryimpl.NewInMemoryRepository()
	if s.mini != nil {
		s.mini.FlushAll()
	}
	s.cached = NewRedisRepository(s.redisClient, s.persistent, time.Minute)
}

func (s *RedisRepositorySuite) addNPosts(n int) []posts.Post {
	var created []posts.Post
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 1; i <= n; i++ {
		p := posts.NewPost(fmt.Sprintf("Post %d", i), fmt.Sprintf("This is post number %d", i), "carol")
		p.Timestamp = base.Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.cached.Create(ctx, p))
		created = append(created, p)
	}
	return created
}

func (s *RedisRepositorySuite) cachedTimeline() []posts.Post {
	bytes, err := s.redisClient.Get(ctx, timelineKey).Bytes()
	s.Require().NoError(err)
	var cached []posts.Post
	s.Require().NoError(json.Unmarshal(bytes, &cached))
	return cached
}

func (s *RedisRepositorySuite) TestFetchPosts_ReadThrough_PopulatesCache() {
	p := posts.NewPost("Original", "content", "alice")
	s.Require().NoError(s.persistent.Create(ctx, p))
	s.Require().False(s.mini.Exists(timelineKey))

	got, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]posts.Post{p}, got)

	s.Require().Equal([]posts.Post{p}, s.cachedTimeline())
	s.Require().Equal(time.Minute, s.mini.TTL(timelineKey))
}

func (s *RedisRepositorySuite) TestFetchPosts_ServesCache() {
	created := s.addNPosts(2)
	_, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)

	// bypass the cache so only the cached copy still holds the post
	s.Require().NoError(s.persistent.Delete(ctx, created[0]))

	got, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]posts.Post{created[1], created[0]}, got)

	s.mini.FastForward(2 * time.Minute)
	got, err = s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]posts.Post{created[1]}, got)
}

func (s *RedisRepositorySuite) TestFetchPosts_EmptyIsCached() {
	got, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Require().Empty(got)
	s.Require().True(s.mini.Exists(timelineKey))

	got, err = s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Require().Empty(got)
}

func (s *RedisRepositorySuite) TestFetchPosts_CorruptCacheFallsThrough() {
	p := posts.NewPost("t", "c", "a")
	s.Require().NoError(s.persistent.Create(ctx, p))
	s.Require().NoError(s.mini.Set(timelineKey, "{not json"))

	got, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]posts.Post{p}, got)
}

func (s *RedisRepositorySuite) TestFetchPosts_DecodeErrorPropagates() {
	s.Require().NoError(s.persistent.PutRaw("bad", bson.M{"_id": "bad", "id": "bad"}))

	got, err := s.cached.FetchPosts(ctx)
	s.Require().Nil(got)
	var decodeErr *posts.DecodeError
	s.Require().ErrorAs(err, &decodeErr)
	s.Require().False(s.mini.Exists(timelineKey))
}

func (s *RedisRepositorySuite) TestCreate_InvalidatesTimeline() {
	s.addNPosts(1)
	_, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().True(s.mini.Exists(timelineKey))

	p := posts.NewPost("new", "new", "new")
	s.Require().NoError(s.cached.Create(ctx, p))
	s.Require().False(s.mini.Exists(timelineKey))

	got, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
}

func (s *RedisRepositorySuite) TestDelete_InvalidatesTimeline() {
	created := s.addNPosts(3)
	_, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.cached.Delete(ctx, created[1]))
	s.Require().False(s.mini.Exists(timelineKey))

	got, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]posts.Post{created[2], created[0]}, got)
}

func (s *RedisRepositorySuite) TestDelete_MissingKeepsCache() {
	s.addNPosts(1)
	_, err := s.cached.FetchPosts(ctx)
	s.Require().NoError(err)

	err = s.cached.Delete(ctx, posts.NewPost("ghost", "", ""))
	s.Require().ErrorIs(err, posts.ErrNotFound)
	s.Require().True(s.mini.Exists(timelineKey))
}

func (s *RedisRepositorySuite) TestIsReady_TrueWhenHealthy() {
	s.Require().True(s.cached.IsReady(ctx))
}

func (s *RedisRepositorySuite) TestIsReady_FalseWhenRedisDown() {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	repo := NewRedisRepository(client, s.persistent, 0)
	s.Require().Equal(DefaultTimelineTTL, repo.ttl)
	s.Require().False(repo.IsReady(ctx))
}
