package handlers

import (
	"blogpress/internal/blog"
	"blogpress/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
)

var knownID = uuid.Must(uuid.FromString("0b9a5a3e-5f44-4d2a-9c43-3d1a6f0c4c11"))

// fakeService knows a single blog and fails on request.
type fakeService struct {
	err          error
	gotOffset    int64
	gotLimit     int64
	gotContent   string
	gotCompileID uuid.UUID
}

func (f *fakeService) lookup(id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if id != knownID {
		return fmt.Errorf("cannot find blog %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (f *fakeService) Compile(_ context.Context, id uuid.UUID, in blog.Input) (*blog.Compiled, error) {
	f.gotCompileID = id
	if f.err != nil {
		return nil, f.err
	}
	return &blog.Compiled{Title: "T", HTML: "<h1>T</h1>\n", Images: []string{}}, nil
}

func (f *fakeService) Create(_ context.Context, in blog.Input) (*storage.Blog, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &storage.Blog{ID: knownID}, nil
}

func (f *fakeService) Update(_ context.Context, id uuid.UUID, in blog.Input) (*storage.Blog, error) {
	if err := f.lookup(id); err != nil {
		return nil, err
	}
	return &storage.Blog{ID: id}, nil
}

func (f *fakeService) SetContent(_ context.Context, id uuid.UUID, content string) (*storage.Blog, error) {
	if err := f.lookup(id); err != nil {
		return nil, err
	}
	f.gotContent = content
	return &storage.Blog{ID: id, Content: content}, nil
}

func (f *fakeService) Get(_ context.Context, id uuid.UUID) (*storage.Blog, error) {
	if err := f.lookup(id); err != nil {
		return nil, err
	}
	return &storage.Blog{ID: id, Title: "Known", HTML: "<h1>Known</h1>\n", Images: []string{"a.png"}}, nil
}

func (f *fakeService) GetContent(_ context.Context, id uuid.UUID) (string, error) {
	if err := f.lookup(id); err != nil {
		return "", err
	}
	return "# Known\n\nbody", nil
}

func (f *fakeService) List(_ context.Context, offset, limit int64) ([]*storage.BlogSummary, error) {
	f.gotOffset, f.gotLimit = offset, limit
	if f.err != nil {
		return nil, f.err
	}
	return []*storage.BlogSummary{{ID: knownID, Title: "Known"}}, nil
}

func (f *fakeService) Delete(_ context.Context, id uuid.UUID) error {
	return f.lookup(id)
}

func (f *fakeService) RecompileAll(context.Context) (blog.RecompileReport, error) {
	if f.err != nil {
		return blog.RecompileReport{}, f.err
	}
	return blog.RecompileReport{Total: 2, Compiled: 1, Failed: 1}, nil
}

func newTestMux(svc BlogService) *http.ServeMux {
	h := NewBlogHandler(svc, func(w io.Writer) error {
		_, err := io.WriteString(w, ".chroma { color: red }")
		return err
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.Handle("GET /blogs", h.HandleList())
	mux.Handle("GET /blogs/{id}", h.HandleGet())
	mux.Handle("GET /blogs/{id}/content", h.HandleGetContent())
	mux.Handle("POST /blogs", h.HandleCreate())
	mux.Handle("PUT /blogs/{id}", h.HandleUpdate())
	mux.Handle("PUT /blogs/{id}/content", h.HandleSetContent())
	mux.Handle("DELETE /blogs/{id}", h.HandleDelete())
	mux.Handle("POST /compile", h.HandleCompile())
	mux.Handle("POST /admin/recompile", h.HandleRecompile())
	mux.Handle("GET /assets/code.css", h.HandleCodeCSS())
	mux.HandleFunc("/", h.NotFound)
	return mux
}

func TestBlogHandlers(t *testing.T) {
	t.Parallel()
	known := "/blogs/" + knownID.String()
	missing := "/blogs/" + uuid.Must(uuid.NewV4()).String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		err        error
		wantStatus int
		wantBody   string
		wantType   string
	}{
		{name: "list", method: "GET", path: "/blogs", wantStatus: http.StatusOK, wantBody: `"title":"Known"`},
		{name: "list bad offset", method: "GET", path: "/blogs?offset=-1", wantStatus: http.StatusBadRequest},
		{name: "list bad limit", method: "GET", path: "/blogs?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "get", method: "GET", path: known, wantStatus: http.StatusOK, wantBody: `"images":["a.png"]`, wantType: "application/json"},
		{name: "get missing", method: "GET", path: missing, wantStatus: http.StatusNotFound, wantBody: `"error"`},
		{name: "get bad id", method: "GET", path: "/blogs/42", wantStatus: http.StatusBadRequest},
		{name: "content", method: "GET", path: known + "/content", wantStatus: http.StatusOK, wantBody: "# Known", wantType: "text/markdown; charset=utf-8"},
		{name: "create", method: "POST", path: "/blogs", body: `{"content":"# T\n\nx"}`, wantStatus: http.StatusCreated, wantBody: knownID.String()},
		{name: "create bad json", method: "POST", path: "/blogs", body: `{"content":`, wantStatus: http.StatusBadRequest},
		{name: "create unknown field", method: "POST", path: "/blogs", body: `{"markdown":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "create invalid title", method: "POST", path: "/blogs", body: `{"content":"x"}`, err: blog.ErrInvalidTitle, wantStatus: http.StatusUnprocessableEntity},
		{name: "create no preview", method: "POST", path: "/blogs", body: `{"content":"# T"}`, err: blog.ErrNoPreview, wantStatus: http.StatusUnprocessableEntity},
		{name: "create duplicate", method: "POST", path: "/blogs", body: `{"content":"# T\n\nx"}`, err: fmt.Errorf("wrapped: %w", storage.ErrUniqueViolation), wantStatus: http.StatusConflict},
		{name: "create store down", method: "POST", path: "/blogs", body: `{"content":"# T\n\nx"}`, err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantBody: "internal server error"},
		{name: "update", method: "PUT", path: known, body: `{"content":"# T\n\nx","preview":"p"}`, wantStatus: http.StatusNoContent},
		{name: "update missing", method: "PUT", path: missing, body: `{"content":"# T\n\nx"}`, wantStatus: http.StatusNotFound},
		{name: "set content", method: "PUT", path: known + "/content", body: "# New\n\nbody", wantStatus: http.StatusNoContent},
		{name: "delete", method: "DELETE", path: known, wantStatus: http.StatusNoContent},
		{name: "delete missing", method: "DELETE", path: missing, wantStatus: http.StatusNotFound},
		{name: "compile", method: "POST", path: "/compile", body: `{"content":"# T\n\nx"}`, wantStatus: http.StatusOK, wantBody: `"html":"<h1>T</h1>\n"`},
		{name: "recompile", method: "POST", path: "/admin/recompile", wantStatus: http.StatusOK, wantBody: `{"total":2,"compiled":1,"failed":1}`},
		{name: "code css", method: "GET", path: "/assets/code.css", wantStatus: http.StatusOK, wantBody: ".chroma", wantType: "text/css; charset=utf-8"},
		{name: "unknown route", method: "GET", path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &fakeService{err: tt.err}
			mux := newTestMux(svc)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantType != "" && rec.Header().Get("Content-Type") != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantType)
			}
		})
	}
}

func TestListPaging(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query      string
		wantOffset int64
		wantLimit  int64
	}{
		{query: "", wantOffset: 0, wantLimit: defaultPageSize},
		{query: "?offset=40&limit=10", wantOffset: 40, wantLimit: 10},
		{query: "?limit=5000", wantOffset: 0, wantLimit: maxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			svc := &fakeService{}
			rec := httptest.NewRecorder()
			newTestMux(svc).ServeHTTP(rec, httptest.NewRequest("GET", "/blogs"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if svc.gotOffset != tt.wantOffset || svc.gotLimit != tt.wantLimit {
				t.Errorf("paged with offset %d limit %d, want %d %d", svc.gotOffset, svc.gotLimit, tt.wantOffset, tt.wantLimit)
			}
		})
	}
}

func TestGetHidesSources(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newTestMux(&fakeService{}).ServeHTTP(rec, httptest.NewRequest("GET", "/blogs/"+knownID.String(), nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"Content", "content", "PreviewSource", "preview_source"} {
		if _, ok := body[key]; ok {
			t.Errorf("blog json exposes %q", key)
		}
	}
}

func TestCompileUsesNilID(t *testing.T) {
	t.Parallel()
	svc := &fakeService{gotCompileID: knownID}
	rec := httptest.NewRecorder()
	newTestMux(svc).ServeHTTP(rec, httptest.NewRequest("POST", "/compile", strings.NewReader(`{"content":"# T\n\nx"}`)))

	if svc.gotCompileID != uuid.Nil {
		t.Errorf("compiled with id %s, want the nil id", svc.gotCompileID)
	}
}

func TestSetContentPassesBody(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	newTestMux(svc).ServeHTTP(rec, httptest.NewRequest("PUT", "/blogs/"+knownID.String()+"/content", strings.NewReader("# New\n\nbody")))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.gotContent != "# New\n\nbody" {
		t.Errorf("content = %q", svc.gotContent)
	}
}

func TestBodyTooLarge(t *testing.T) {
	t.Parallel()
	mux := newTestMux(&fakeService{})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 8)
		mux.ServeHTTP(w, r)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/blogs", strings.NewReader(`{"content":"# a long title"}`)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}
