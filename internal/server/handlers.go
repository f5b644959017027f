package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/bsm/rfs"
	"github.com/go-chi/chi/v5"
)

type fileInfo struct {
	Path        string     `json:"path"`
	URL         string     `json:"url"`
	Size        int64      `json:"size,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	Modified    *time.Time `json:"modified,omitempty"`
}

type listResponse struct {
	Items []fileInfo `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleServe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "*")

	info, err := s.fs.Metadata(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}

	// private files are never served publicly
	if v, err := s.fs.Visibility(ctx, name); err != nil {
		writeError(w, err)
		return
	} else if v == rfs.VisibilityPrivate {
		writeError(w, rfs.ErrNotFound)
		return
	}

	contentType, err := s.fs.MimeType(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if !info.ModTime.IsZero() {
		w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	rc, err := s.fs.ReadStream(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("serve %s: %v", name, err)
	}
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		writeError(w, rfs.ErrInvalidArgument)
		return
	}

	writeJSON(w, http.StatusOK, fileInfo{
		Path: name,
		URL:  s.fs.Resolve(r.Context(), name),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recursive, _ := strconv.ParseBool(r.URL.Query().Get("recursive"))

	infos, err := s.fs.ListContents(ctx, chi.URLParam(r, "*"), recursive)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := listResponse{Items: make([]fileInfo, 0, len(infos))}
	for _, info := range infos {
		modTime := info.ModTime
		resp.Items = append(resp.Items, fileInfo{
			Path:        info.Name,
			URL:         s.fs.Resolve(ctx, info.Name),
			Size:        info.Size,
			ContentType: info.ContentType,
			Modified:    &modTime,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "*")
	if name == "" {
		writeError(w, rfs.ErrInvalidArgument)
		return
	}

	opts := &rfs.WriteOptions{ContentType: r.Header.Get("Content-Type")}
	if v := r.URL.Query().Get("visibility"); v != "" {
		if !rfs.Visibility(v).IsValid() {
			writeError(w, rfs.ErrInvalidArgument)
			return
		}
		opts.Metadata = map[string]string{rfs.MetaVisibility: v}
	}

	if err := s.fs.PutStream(ctx, name, r.Body, opts); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fileInfo{
		Path: name,
		URL:  s.fs.Resolve(ctx, name),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.fs.Delete(r.Context(), chi.URLParam(r, "*")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, rfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rfs.ErrExists):
		return http.StatusConflict
	case errors.Is(err, rfs.ErrRootViolation), errors.Is(err, rfs.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
