package action

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/hyperentity/entity"
	"github.com/jonwraymond/hyperentity/hypermedia"
	"github.com/jonwraymond/hyperentity/transport"
)

type update struct {
	Href, Token string
	Payload     any
}

type fakeUpdater struct {
	mu    sync.Mutex
	calls []update
}

func (f *fakeUpdater) Update(_ context.Context, href, token string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, update{Href: href, Token: token, Payload: payload})
}

func (f *fakeUpdater) Calls() []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]update(nil), f.calls...)
}

func newExecutor(t *testing.T, h http.HandlerFunc, store Updater) (*Executor, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := transport.New(transport.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return NewExecutor(client, store), srv
}

func TestPerform_FormPost(t *testing.T) {
	store := &fakeUpdater{}
	exec, srv := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tokA", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "tag=a&tag=b", string(body))
		_, _ = io.WriteString(w, `{"properties":{"tags":["a","b"]}}`)
	}, store)

	act := &hypermedia.Action{
		Name:   "add-tags",
		Method: "POST",
		Href:   "/courses/1",
		Type:   hypermedia.DefaultActionType,
		Fields: []*hypermedia.Field{{Name: "tag", Value: "a"}, {Name: "tag", Value: "b"}},
	}
	res, err := exec.Perform(context.Background(), act, "tokA", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, srv.URL+"/courses/1", calls[0].Href)
	assert.Equal(t, "tokA", calls[0].Token)
	assert.Equal(t, res.Payload, calls[0].Payload)
}

func TestPerform_JSONLastValueWins(t *testing.T) {
	store := &fakeUpdater{}
	exec, _ := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/vnd.api+json", r.Header.Get("Content-Type"))
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, map[string]any{"name": "second", "credits": float64(3)}, got)
		_, _ = io.WriteString(w, `{"properties":{"name":"second"}}`)
	}, store)

	act := &hypermedia.Action{
		Method: "PATCH",
		Href:   "/courses/1",
		Type:   "application/vnd.api+json",
		Fields: []*hypermedia.Field{
			{Name: "name", Value: "first"},
			{Name: "credits", Value: float64(3)},
			{Name: "name", Value: "second"},
		},
	}
	_, err := exec.Perform(context.Background(), act, "tokA", nil)
	require.NoError(t, err)
	assert.Len(t, store.Calls(), 1)
}

func TestPerform_Multipart(t *testing.T) {
	exec, _ := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, []string{"x", "y"}, r.MultipartForm.Value["file"])
		assert.Equal(t, []string{"true"}, r.MultipartForm.Value["notify"])
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	act := &hypermedia.Action{
		Method: "PUT",
		Href:   "/uploads",
		Type:   "multipart/form-data",
		Fields: []*hypermedia.Field{
			{Name: "file", Value: "x"},
			{Name: "file", Value: "y"},
			{Name: "notify", Value: true},
		},
	}
	res, err := exec.Perform(context.Background(), act, "tokA", nil)
	require.NoError(t, err)
	assert.Nil(t, res.Payload)
}

func TestPerform_GetUsesQuery(t *testing.T) {
	store := &fakeUpdater{}
	exec, srv := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "page=2&q=bio", r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"entities":[]}`)
	}, store)

	act := &hypermedia.Action{
		Name:   "search",
		Href:   "/courses?page=2",
		Fields: []*hypermedia.Field{{Name: "q", Value: "bio"}, {Name: "unset"}},
	}

	target, err := exec.URL(act, nil)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/courses?page=2&q=bio", target)

	_, err = exec.Perform(context.Background(), act, "tokA", nil)
	require.NoError(t, err)
	calls := store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, target, calls[0].Href)
}

func TestPerform_ExplicitFields(t *testing.T) {
	exec, _ := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "name=override", string(body))
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	act := &hypermedia.Action{
		Method: "POST",
		Href:   "/courses/1",
		Fields: []*hypermedia.Field{{Name: "name", Value: "default"}},
	}
	fields, err := Fields(act)
	require.NoError(t, err)
	fields.Set("name", "override")

	_, err = exec.Perform(context.Background(), act, "tokA", fields)
	require.NoError(t, err)
}

func TestPerform_FailureDoesNotUpdate(t *testing.T) {
	store := &fakeUpdater{}
	exec, srv := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}, store)

	act := &hypermedia.Action{Method: "DELETE", Href: "/courses/1"}
	_, err := exec.Perform(context.Background(), act, "tokA", nil)
	require.Error(t, err)

	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Conflict response executing DELETE on "+srv.URL+"/courses/1.", err.Error())
	assert.Empty(t, store.Calls())
}

func TestPerform_NoAction(t *testing.T) {
	exec, _ := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, nil)

	_, err := exec.Perform(context.Background(), nil, "tokA", nil)
	assert.ErrorIs(t, err, ErrNoAction)
	_, err = exec.URL(nil, nil)
	assert.ErrorIs(t, err, ErrNoAction)
}

func TestPerform_NotifiesStoreListeners(t *testing.T) {
	exec0, srv := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"properties":{"name":"renamed"}}`)
	}, nil)

	store := entity.NewStore(entity.RetrieverFunc(func(context.Context, string, string) (any, error) {
		return nil, errors.New("unused")
	}))
	exec := NewExecutor(exec0.client, store)

	href := srv.URL + "/courses/1"
	got := make(chan entity.State, 1)
	store.AddListener(href, "tokA", entity.NewListener(func(st entity.State) { got <- st }))

	act := &hypermedia.Action{Method: "PATCH", Href: "/courses/1", Type: "application/json",
		Fields: []*hypermedia.Field{{Name: "name", Value: "renamed"}}}
	_, err := exec.Perform(context.Background(), act, "tokA", nil)
	require.NoError(t, err)

	st := <-got
	assert.Equal(t, entity.StatusFetched, st.Status)
	assert.Equal(t, map[string]any{"properties": map[string]any{"name": "renamed"}}, st.Payload)
}

func TestNewExecutor_NilClientPanics(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, nil) })
}
