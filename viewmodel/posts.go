// Package viewmodel binds the posts repository to the state a list view
// renders.
package viewmodel

import (
	"context"

	"github.com/aupe5089/socialcademy/loadable"
	"github.com/aupe5089/socialcademy/mainloop"
	"github.com/aupe5089/socialcademy/posts"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

type PostsState = loadable.Loadable[[]posts.Post]

// CreateAction persists a post a form has filled in.
type CreateAction func(ctx context.Context, post posts.Post) error

// DeleteAction removes the post it was made for.
type DeleteAction func(ctx context.Context) error

// PostsViewModel owns the loaded post list. Every field below the
// repository is read and written only on the main loop.
type PostsViewModel struct {
	repo   posts.Repository
	loop   *mainloop.Loop
	logger *zap.Logger

	posts        PostsState
	generation   uint64
	observers    map[int]func(PostsState)
	nextObserver int
}

func NewPostsViewModel(repo posts.Repository, loop *mainloop.Loop, logger *zap.Logger) *PostsViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostsViewModel{
		repo:      repo,
		loop:      loop,
		logger:    logger.Named("posts_view_model"),
		posts:     loadable.Loading[[]posts.Post](),
		observers: make(map[int]func(PostsState)),
	}
}

// Posts returns the current state.
func (vm *PostsViewModel) Posts(ctx context.Context) (PostsState, error) {
	var state PostsState
	err := vm.loop.Do(ctx, func() { state = vm.posts })
	return state, err
}

// Subscribe calls fn on the main loop after every state change until the
// returned func is called.
func (vm *PostsViewModel) Subscribe(fn func(PostsState)) (unsubscribe func()) {
	var id int
	vm.loop.Post(func() {
		id = vm.nextObserver
		vm.nextObserver++
		vm.observers[id] = fn
	})
	return func() {
		vm.loop.Post(func() { delete(vm.observers, id) })
	}
}

// FetchPosts starts a fetch and returns a channel closed once its result
// has been applied or discarded. Fetches are not deduplicated, but a fetch
// that completes after a newer one was started is discarded. The result is
// shared by every viewer, so ending ctx does not cancel the fetch.
func (vm *PostsViewModel) FetchPosts(ctx context.Context) <-chan struct{} {
	ctx = context.WithoutCancel(ctx)
	done := make(chan struct{})
	if !vm.loop.Post(func() { vm.startFetch(ctx, done) }) {
		close(done)
	}
	return done
}

func (vm *PostsViewModel) startFetch(ctx context.Context, done chan struct{}) {
	vm.generation++
	generation := vm.generation

	go func() {
		fetched, err := vm.repo.FetchPosts(ctx)
		applied := vm.loop.Post(func() {
			defer close(done)
			vm.applyFetch(generation, fetched, err)
		})
		if !applied {
			close(done)
		}
	}()
}

func (vm *PostsViewModel) applyFetch(generation uint64, fetched []posts.Post, err error) {
	if generation != vm.generation {
		vm.logger.Debug("discarding stale fetch",
			zap.Uint64("generation", generation),
			zap.Uint64("latest", vm.generation),
		)
		return
	}

	if err != nil {
		vm.logger.Error("could not fetch posts", zap.Error(err))
		vm.setPosts(loadable.Failed[[]posts.Post](err))
		return
	}
	if fetched == nil {
		fetched = []posts.Post{}
	}
	vm.setPosts(loadable.Loaded(fetched))
}

// MakeCreateAction returns an action that persists a post and, once the
// store accepted it, puts it at the top of a loaded list. Repository
// errors are returned as is and leave the state alone.
func (vm *PostsViewModel) MakeCreateAction() CreateAction {
	return func(ctx context.Context, post posts.Post) error {
		if err := vm.repo.Create(ctx, post); err != nil {
			return err
		}
		return vm.mutateLoaded(ctx, func(list []posts.Post) []posts.Post {
			return slices.Insert(slices.Clone(list), 0, post)
		})
	}
}

// MakeDeleteAction returns an action that deletes post and drops every
// entry with its id from a loaded list.
func (vm *PostsViewModel) MakeDeleteAction(post posts.Post) DeleteAction {
	return func(ctx context.Context) error {
		if err := vm.repo.Delete(ctx, post); err != nil {
			return err
		}
		return vm.mutateLoaded(ctx, func(list []posts.Post) []posts.Post {
			return slices.DeleteFunc(slices.Clone(list), func(p posts.Post) bool {
				return p.ID == post.ID
			})
		})
	}
}

// mutateLoaded applies fn to a loaded list on the main loop. Any other
// state is left as it is. The store write already happened, so caller
// cancellation does not abort the update.
func (vm *PostsViewModel) mutateLoaded(ctx context.Context, fn func([]posts.Post) []posts.Post) error {
	return vm.loop.Do(context.WithoutCancel(ctx), func() {
		if _, ok := vm.posts.Peek(); !ok {
			return
		}
		next := vm.posts
		next.Update(fn)
		vm.setPosts(next)
	})
}

func (vm *PostsViewModel) setPosts(state PostsState) {
	vm.posts = state
	for _, fn := range vm.observers {
		fn(state)
	}
}
