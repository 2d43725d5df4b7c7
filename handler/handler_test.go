package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/dto"
	"github.com/annazecevic/catalog-service/repository"
	"github.com/annazecevic/catalog-service/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const rockSong = `{"Name":"(Don't Fear) The Reaper","Year":1975,"Artist":"Blue Öyster Cult","Shortname":"dontfearthereaper","Bpm":141,"Duration":322822,"Genre":"Classic Rock","SpotifyId":"5QTxFnGygVM4jFQiBovmRo","Album":"Agents of Fortune"}`

const metalSong = `{"Name":"Ace of Spades","Year":1980,"Artist":"Motörhead","Shortname":"aceofspades","Bpm":140,"Duration":169000,"Genre":"Heavy Metal","SpotifyId":"2","Album":"Ace of Spades"}`

func newTestRouter(t *testing.T) (*gin.Engine, repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	artists, err := service.NewRecordService[domain.Artist](ctx, store, domain.KindArtist)
	if err != nil {
		t.Fatalf("artist service: %v", err)
	}
	songs, err := service.NewRecordService[domain.Song](ctx, store, domain.KindSong)
	if err != nil {
		t.Fatalf("song service: %v", err)
	}
	r, err := NewRouter(RouterConfig{DocsTitle: "Internet Rock Database API", MaxBodyBytes: 1 << 20}, artists, songs, store)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return r, store
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func count(t *testing.T, store repository.Store, kind domain.Kind) int {
	t.Helper()
	docs, err := store.Collection(kind.Collection()).Find(context.Background(), repository.Filter{}, repository.FindOptions{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	return len(docs)
}

func TestCreateArtist(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/artists", `{"Name":"Rock Stars"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var got map[string]interface{}
	decode(t, w, &got)
	if got["Name"] != "Rock Stars" || got["Id"] != float64(1) {
		t.Fatalf("unexpected body %v", got)
	}
	if _, ok := got["_id"]; ok {
		t.Fatalf("internal id leaked: %v", got)
	}
	if len(got) != 2 {
		t.Fatalf("expected only Id and Name, got %v", got)
	}
}

func TestCreateAssignsMaxPlusOne(t *testing.T) {
	r, store := newTestRouter(t)
	if err := store.Collection("artists").InsertOne(context.Background(), repository.Document{"Id": 41, "Name": "Accept"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for want := 42; want <= 44; want++ {
		w := do(r, http.MethodPost, "/artists", `{"Name":"Band `+string(rune('A'+want-42))+`"}`)
		var got domain.Artist
		decode(t, w, &got)
		if got.Id != want {
			t.Fatalf("expected Id %d, got %d", want, got.Id)
		}
	}
}

func TestCreateDuplicateReturnsExisting(t *testing.T) {
	r, store := newTestRouter(t)
	first := do(r, http.MethodPost, "/artists", `{"Name":"Rock Stars"}`)
	second := do(r, http.MethodPost, "/artists", `{"Name":"Rock Stars"}`)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", second.Code)
	}
	var a, b domain.Artist
	decode(t, first, &a)
	decode(t, second, &b)
	if a.Id != b.Id {
		t.Fatalf("expected duplicate to return Id %d, got %d", a.Id, b.Id)
	}
	if n := count(t, store, domain.KindArtist); n != 1 {
		t.Fatalf("expected 1 artist, got %d", n)
	}
}

func TestCreateValidation(t *testing.T) {
	r, store := newTestRouter(t)
	tests := []struct {
		name   string
		body   string
		field  string
		reason string
	}{
		{"misspelled field", `{"Named":"Rock Stars"}`, "Name", "Missing data for required field."},
		{"unknown field", `{"Named":"Rock Stars"}`, "Named", "Unknown field."},
		{"id not accepted", `{"Id":3,"Name":"Rock Stars"}`, "Id", "Unknown field."},
		{"too long", `{"Name":"abcdefghijklmnopq"}`, "Name", "Longer than maximum length 16."},
		{"empty", `{"Name":""}`, "Name", "Shorter than minimum length 1."},
		{"wrong type", `{"Name":5}`, "Name", "Not a valid string."},
		{"null", `{"Name":null}`, "Name", "Field may not be null."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/artists", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var got dto.ErrorResponse
			decode(t, w, &got)
			if !strings.Contains(w.Body.String(), `"success":false`) || got.Message != "" {
				t.Fatalf("unexpected error body %+v", got)
			}
			reasons := got.Errors[tt.field]
			if len(reasons) == 0 || reasons[0] != tt.reason {
				t.Fatalf("expected %s: %q, got %v", tt.field, tt.reason, got.Errors)
			}
		})
	}
	if n := count(t, store, domain.KindArtist); n != 0 {
		t.Fatalf("invalid bodies must not create records, found %d", n)
	}
}

func TestCreateMalformedJSON(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodPost, "/songs", `{"Name":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var got map[string]interface{}
	decode(t, w, &got)
	if msg, _ := got["message"].(string); msg == "" {
		t.Fatalf("expected parse error message, got %v", got)
	}
}

func TestGetArtist(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/artists", `{"Name":"Accept"}`)

	w := do(r, http.MethodGet, "/artists/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var a domain.Artist
	decode(t, w, &a)
	if a.Id != 1 || a.Name != "Accept" {
		t.Fatalf("unexpected artist %+v", a)
	}

	for _, path := range []string{"/artists/760", "/artists/abc", "/artists/-1", "/artists/99999999999999999999"} {
		if w := do(r, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestListSongsFilters(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/songs", rockSong)
	do(r, http.MethodPost, "/songs", metalSong)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"(Don't Fear) The Reaper", "Ace of Spades"}},
		{"?genre=rock", []string{"(Don't Fear) The Reaper"}},
		{"?genre=METAL", []string{"Ace of Spades"}},
		{"?name=spades&genre=metal", []string{"Ace of Spades"}},
		{"?name=(don't", []string{"(Don't Fear) The Reaper"}},
		{"?name=jazz", []string{}},
	}
	for _, tt := range tests {
		w := do(r, http.MethodGet, "/songs"+tt.query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.query, w.Code)
		}
		var songs []map[string]interface{}
		decode(t, w, &songs)
		if songs == nil {
			t.Fatalf("%s: expected a JSON array, got %s", tt.query, w.Body.String())
		}
		if len(songs) != len(tt.want) {
			t.Fatalf("%s: expected %d songs, got %d", tt.query, len(tt.want), len(songs))
		}
		for i, s := range songs {
			if s["Name"] != tt.want[i] {
				t.Fatalf("%s: position %d expected %q, got %v", tt.query, i, tt.want[i], s["Name"])
			}
			if _, ok := s["_id"]; ok {
				t.Fatalf("internal id leaked: %v", s)
			}
		}
	}
}

func TestUpdateArtist(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/artists", `{"Name":"Accept"}`)

	w := do(r, http.MethodPut, "/artists/1", `{"Name":"Accepted"}`)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("expected 200 with empty body, got %d %q", w.Code, w.Body.String())
	}
	var a domain.Artist
	decode(t, do(r, http.MethodGet, "/artists/1", ""), &a)
	if a.Name != "Accepted" {
		t.Fatalf("expected updated name, got %+v", a)
	}

	// Unchanged data still answers.
	w = do(r, http.MethodPut, "/artists/1", `{"Id":1,"Name":"Accepted"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unchanged update, got %d", w.Code)
	}
}

func TestUpdateRejections(t *testing.T) {
	r, store := newTestRouter(t)
	do(r, http.MethodPost, "/artists", `{"Name":"Accept"}`)

	if w := do(r, http.MethodPut, "/artists/7", `{"Name":"Ghost"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing id, got %d", w.Code)
	}
	if n := count(t, store, domain.KindArtist); n != 1 {
		t.Fatalf("update must not create records, found %d", n)
	}

	if w := do(r, http.MethodPut, "/artists/1", `{"Name":`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/artists/1", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}

	w := do(r, http.MethodPut, "/artists/1", `{"Id":2,"Name":"Accept"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for changed id, got %d", w.Code)
	}
	var got struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, w, &got)
	if len(got.Errors["Id"]) == 0 {
		t.Fatalf("expected Id error, got %v", got.Errors)
	}

	var a domain.Artist
	decode(t, do(r, http.MethodGet, "/artists/1", ""), &a)
	if a.Name != "Accept" {
		t.Fatalf("rejected updates must not mutate, got %+v", a)
	}
}

func TestUpdateSongRequiresFullSchema(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/songs", rockSong)

	w := do(r, http.MethodPut, "/songs/1", `{"Genre":"Rock"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for partial song, got %d", w.Code)
	}
	full := strings.Replace(rockSong, `"Classic Rock"`, `"Hard Rock"`, 1)
	if w := do(r, http.MethodPut, "/songs/1", full); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var s domain.Song
	decode(t, do(r, http.MethodGet, "/songs/1", ""), &s)
	if s.Genre != "Hard Rock" || s.Year != 1975 {
		t.Fatalf("unexpected song %+v", s)
	}
}

func TestDeleteArtist(t *testing.T) {
	r, _ := newTestRouter(t)
	do(r, http.MethodPost, "/artists", `{"Name":"Accept"}`)

	w := do(r, http.MethodDelete, "/artists/1", "")
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("expected 200 with empty body, got %d %q", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/artists/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/artists/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestRootPath(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/swagger/spec.html" {
		t.Fatalf("expected redirect to docs, got %d %q", w.Code, w.Header().Get("Location"))
	}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := do(r, method, "/", `{}`)
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", method, w.Code)
		}
		if strings.TrimSpace(w.Body.String()) != `{"message":"request is not allowed"}` {
			t.Fatalf("%s: unexpected body %s", method, w.Body.String())
		}
	}
}

func TestDocumentationRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/swagger/swagger.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var doc struct {
		Info  map[string]string                 `json:"info"`
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	decode(t, w, &doc)
	if doc.Info["title"] != "Internet Rock Database API" {
		t.Fatalf("unexpected info %v", doc.Info)
	}
	for _, path := range []string{"/artists", "/artists/{id}", "/songs", "/songs/{id}"} {
		if doc.Paths[path] == nil {
			t.Fatalf("expected %s in documentation", path)
		}
	}
	if w := do(r, http.MethodGet, "/swagger/spec.html", ""); w.Code != http.StatusFound || w.Header().Get("Location") != "/swagger/index.html" {
		t.Fatalf("expected redirect to the UI, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/swagger/index.html", ""); w.Code != http.StatusOK {
		t.Fatalf("expected UI page, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := do(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r = gin.New()
	NewHealthHandler(downStore{}).RegisterRoutes(r)
	if w := do(r, http.MethodGet, "/health", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	h := NewCatalogHandler(brokenService[domain.Artist]{}, brokenService[domain.Song]{})
	r := gin.New()
	h.RegisterRoutes(r)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/artists", ""},
		{http.MethodPost, "/artists", `{"Name":"Accept"}`},
		{http.MethodGet, "/songs/1", ""},
		{http.MethodDelete, "/songs/1", ""},
	} {
		w := do(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", tc.method, tc.path, w.Code)
		}
		if strings.Contains(w.Body.String(), "connection refused") {
			t.Fatalf("store error leaked to client: %s", w.Body.String())
		}
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

type brokenService[T any] struct{}

var errBroken = errors.New("connection refused")

func (brokenService[T]) Create(context.Context, *T) (int, error) { return 0, errBroken }
func (brokenService[T]) List(context.Context, repository.Filter) ([]*T, error) {
	return nil, errBroken
}
func (brokenService[T]) GetByID(context.Context, int) (*T, error) { return nil, errBroken }
func (brokenService[T]) Update(context.Context, int, repository.Document) (int64, error) {
	return 0, errBroken
}
func (brokenService[T]) Delete(context.Context, int) (int64, error) { return 0, errBroken }
