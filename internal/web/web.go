package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"kanbo/internal/board"
	"kanbo/internal/db"
	"kanbo/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))
	boardTemplate = template.Must(template.ParseFS(templateFS, "templates/board.tmpl"))
)

// Server is the read-only localhost viewer: board pages, a JSON API, and the
// snapshot download. All mutation happens in the TUI.
type Server struct {
	store *db.Store
}

type columnView struct {
	Container model.Container
	Items     []model.Item
}

func NewServer(store *db.Store) *Server {
	return &Server{store: store}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/boards/", s.boardHandler)
	mux.HandleFunc("/api/boards", s.apiBoardsHandler)
	mux.HandleFunc("/api/boards/", s.apiBoardHandler)
	mux.HandleFunc("/export", s.exportHandler)
	return mux
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	boards, err := s.store.ListBoards(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data := struct {
		Total  int
		Boards []model.Board
		Tags   []model.BoardTag
	}{Total: len(boards), Boards: boards, Tags: board.DedupeTags(board.CollectTags(boards))}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) boardHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := parseSlug(r.URL.Path, "/boards/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	b, err := s.store.GetBoard(r.Context(), slug)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	data := struct {
		Board   *model.Board
		Columns []columnView
	}{Board: b, Columns: buildColumns(b)}

	if err := boardTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

// buildColumns resolves the order structures to concrete per-column item
// lists for rendering.
func buildColumns(b *model.Board) []columnView {
	columns := make([]columnView, 0, len(b.ContainerOrder))
	for _, containerID := range b.ContainerOrder {
		view := columnView{Container: b.Containers[containerID]}
		for _, itemID := range b.ContainerItemMapping[containerID] {
			view.Items = append(view.Items, b.Items[itemID])
		}
		columns = append(columns, view)
	}
	return columns
}

func (s *Server) apiBoardsHandler(w http.ResponseWriter, r *http.Request) {
	boards, err := s.store.ListBoards(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, boards)
}

func (s *Server) apiBoardHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := parseSlug(r.URL.Path, "/api/boards/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	b, err := s.store.GetBoard(r.Context(), slug)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, b)
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.ExportAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("kanbo-export-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(snap)
}

func parseSlug(path, prefix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("invalid path")
	}
	slug := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if slug == "" {
		return "", fmt.Errorf("missing slug")
	}
	return slug, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
