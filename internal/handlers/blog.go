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
	"strconv"

	"github.com/gofrs/uuid/v5"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BlogService is the part of blog.Service the handlers use.
type BlogService interface {
	Compile(ctx context.Context, id uuid.UUID, in blog.Input) (*blog.Compiled, error)
	Create(ctx context.Context, in blog.Input) (*storage.Blog, error)
	Update(ctx context.Context, id uuid.UUID, in blog.Input) (*storage.Blog, error)
	SetContent(ctx context.Context, id uuid.UUID, content string) (*storage.Blog, error)
	Get(ctx context.Context, id uuid.UUID) (*storage.Blog, error)
	GetContent(ctx context.Context, id uuid.UUID) (string, error)
	List(ctx context.Context, offset, limit int64) ([]*storage.BlogSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecompileAll(ctx context.Context) (blog.RecompileReport, error)
}

type BlogHandler struct {
	Service BlogService
	// CodeCSS writes the stylesheet matching highlighted code blocks. It may
	// be nil when code blocks are not highlighted.
	CodeCSS func(w io.Writer) error
	Logger  *slog.Logger
}

func NewBlogHandler(svc BlogService, codeCSS func(io.Writer) error, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{Service: svc, CodeCSS: codeCSS, Logger: logger}
}

func (h *BlogHandler) HandleList() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := pageParams(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}

		blogs, err := h.Service.List(r.Context(), offset, limit)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, blogs)
	})
}

func (h *BlogHandler) HandleGet() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := blogID(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}

		b, err := h.Service.Get(r.Context(), id)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	})
}

func (h *BlogHandler) HandleGetContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := blogID(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}

		content, err := h.Service.GetContent(r.Context(), id)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, content)
	})
}

func (h *BlogHandler) HandleCreate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeInput(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}

		b, err := h.Service.Create(r.Context(), in)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		w.Header().Set("Location", "/blogs/"+b.ID.String())
		writeJSON(w, http.StatusCreated, struct {
			ID uuid.UUID `json:"id"`
		}{b.ID})
	})
}

func (h *BlogHandler) HandleUpdate() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := blogID(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		in, err := decodeInput(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}

		if _, err := h.Service.Update(r.Context(), id, in); err != nil {
			h.ServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// HandleSetContent swaps the markdown of a blog with the raw request body.
func (h *BlogHandler) HandleSetContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := blogID(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		content, err := io.ReadAll(r.Body)
		if err != nil {
			h.ServiceError(w, r, fmt.Errorf("%w: %w", ErrInvalidBody, err))
			return
		}

		if _, err := h.Service.SetContent(r.Context(), id, string(content)); err != nil {
			h.ServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *BlogHandler) HandleDelete() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := blogID(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		if err := h.Service.Delete(r.Context(), id); err != nil {
			h.ServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// HandleCompile compiles without storing. Images point at the nil blog id.
func (h *BlogHandler) HandleCompile() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeInput(r)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}

		compiled, err := h.Service.Compile(r.Context(), uuid.Nil, in)
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, compiled)
	})
}

func (h *BlogHandler) HandleRecompile() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report, err := h.Service.RecompileAll(r.Context())
		if err != nil {
			h.ServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	})
}

func (h *BlogHandler) HandleCodeCSS() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.CodeCSS == nil {
			h.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if err := h.CodeCSS(w); err != nil {
			h.Logger.Error("writing code stylesheet", "err", err)
		}
	})
}

func blogID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, r.PathValue("id"))
	}
	return id, nil
}

func decodeInput(r *http.Request) (blog.Input, error) {
	var in blog.Input
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return in, err
		}
		return in, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return in, nil
}

func pageParams(r *http.Request) (offset, limit int64, err error) {
	q := r.URL.Query()
	offset, limit = 0, defaultPageSize

	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.ParseInt(s, 10, 64); err != nil || offset < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.ParseInt(s, 10, 64); err != nil || limit < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	return offset, min(limit, maxPageSize), nil
}
