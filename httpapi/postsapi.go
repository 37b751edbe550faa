package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aupe5089/socialcademy/loadable"
	"github.com/aupe5089/socialcademy/posts"
	"github.com/aupe5089/socialcademy/viewmodel"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PostsViewModel is what the handlers need from viewmodel.PostsViewModel.
type PostsViewModel interface {
	Posts(ctx context.Context) (viewmodel.PostsState, error)
	FetchPosts(ctx context.Context) <-chan struct{}
	MakeCreateAction() viewmodel.CreateAction
	MakeDeleteAction(post posts.Post) viewmodel.DeleteAction
}

type HTTPHandler struct {
	vm     PostsViewModel
	create viewmodel.CreateAction
	ready  posts.Pinger
	logger *zap.Logger
}

func NewRouter(vm PostsViewModel, ready posts.Pinger, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := mux.NewRouter()
	handler := HTTPHandler{
		vm:     vm,
		create: vm.MakeCreateAction(),
		ready:  ready,
		logger: logger.Named("httpapi"),
	}

	r.HandleFunc("/api/v1/posts", handler.GetPosts).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/posts", handler.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/posts/refresh", handler.RefreshPosts).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/posts/{postId}", handler.DeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/maintenance/ping", handler.CheckIsReady).Methods(http.MethodGet)
	return r
}

func NewServer(addr string, vm PostsViewModel, ready posts.Pinger, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(vm, ready, logger),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return srv
}

const (
	stateLoading = "loading"
	stateError   = "error"
	stateEmpty   = "empty"
	stateLoaded  = "loaded"
)

type CreatePostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorName string `json:"authorName"`
}

type PostResponse struct {
	PostId     string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorName string `json:"authorName"`
	Timestamp  string `json:"timestamp"`
}

type ListResponse struct {
	State   string         `json:"state"`
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message,omitempty"`
	Posts   []PostResponse `json:"posts"`
}

type ErrorResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func toPostResponse(post posts.Post) PostResponse {
	return PostResponse{
		PostId:     post.Key(),
		Title:      post.Title,
		Content:    post.Content,
		AuthorName: post.AuthorName,
		Timestamp:  post.Timestamp.Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	rawResponse, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(rawResponse)
}

// listView renders the list the way the posts screen shows it.
func listView(state viewmodel.PostsState, query string) (int, ListResponse) {
	resp := ListResponse{Posts: []PostResponse{}}
	switch state.State() {
	case loadable.StateError:
		resp.State = stateError
		resp.Title = "Cannot Load Posts"
		resp.Message = "Sorry, something went wrong"
		if err := state.Err(); err != nil {
			resp.Message = err.Error()
		}
		return http.StatusOK, resp
	case loadable.StateLoaded:
		list, _ := state.Peek()
		if len(list) == 0 {
			resp.State = stateEmpty
			resp.Title = "No Posts"
			resp.Message = "There aren't any posts yet"
			return http.StatusOK, resp
		}
		resp.State = stateLoaded
		for _, post := range list {
			if query == "" || post.Contains(query) {
				resp.Posts = append(resp.Posts, toPostResponse(post))
			}
		}
		return http.StatusOK, resp
	default:
		resp.State = stateLoading
		return http.StatusAccepted, resp
	}
}

func (h *HTTPHandler) renderList(w http.ResponseWriter, r *http.Request) {
	state, err := h.vm.Posts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	status, resp := listView(state, r.URL.Query().Get("q"))
	writeJSON(w, status, resp)
}

func (h *HTTPHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r)
}

// RefreshPosts is the retry action: it runs a fetch and renders its outcome.
func (h *HTTPHandler) RefreshPosts(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.vm.FetchPosts(r.Context()):
	case <-r.Context().Done():
		return
	}
	h.renderList(w, r)
}

func (h *HTTPHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var body CreatePostRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post := posts.NewPost(body.Title, body.Content, body.AuthorName)
	if err := h.create(r.Context(), post); err != nil {
		h.logger.Error("cannot create post", zap.String("post_id", post.Key()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Title:   "Cannot Create Post",
			Message: "Sorry, something went wrong",
		})
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *HTTPHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	notFound := ErrorResponse{Title: "Post Not Found", Message: "There is no such post"}

	id, err := uuid.Parse(mux.Vars(r)["postId"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}

	state, err := h.vm.Posts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	post, ok := findPost(state, id)
	if !ok {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}

	if err := h.vm.MakeDeleteAction(post)(r.Context()); err != nil {
		h.logger.Error("cannot delete post", zap.String("post_id", post.Key()), zap.Error(err))
		if errors.Is(err, posts.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Title:   "Cannot Delete Post",
			Message: "Sorry, something went wrong",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func findPost(state viewmodel.PostsState, id uuid.UUID) (posts.Post, bool) {
	list, _ := state.Peek()
	for _, post := range list {
		if post.ID == id {
			return post, true
		}
	}
	return posts.Post{}, false
}

func (h *HTTPHandler) CheckIsReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready.IsReady(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
