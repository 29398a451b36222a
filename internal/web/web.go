package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/Joseda-hg/obracrm/internal/catalog"
	"github.com/Joseda-hg/obracrm/internal/db"
	"github.com/Joseda-hg/obracrm/internal/filter"
	"github.com/Joseda-hg/obracrm/internal/model"
	"github.com/Joseda-hg/obracrm/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	indexTemplate  = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))
	recordTemplate = template.Must(template.ParseFS(templateFS, "templates/record.tmpl"))
)

type Options struct {
	AllowedOrigins []string
	Location       *time.Location
	PageSize       int
	Now            func() time.Time
}

type Server struct {
	store    *db.Store
	catalog  *catalog.Catalog
	composer *view.Composer
	opts     Options
}

func NewServer(store *db.Store, cat *catalog.Catalog, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		store:    store,
		catalog:  cat,
		composer: view.NewComposer(cat, store),
		opts:     opts,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/records/", s.recordHandler)
	mux.HandleFunc("/api/catalog", s.apiCatalogHandler)
	mux.HandleFunc("/api/records", s.apiRecordsHandler)
	mux.HandleFunc("/api/records/", s.apiRecordHandler)
	mux.HandleFunc("/api/views", s.apiViewsHandler)
	mux.HandleFunc("/api/views/", s.apiViewHandler)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return logRequests(c.Handler(mux))
}

func (s *Server) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	result, err := s.compose(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	views, err := s.store.ListViews(r.Context(), result.Kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data := struct {
		Result view.Result
		Kinds  []model.Kind
		Views  []model.SavedView
		Query  string
	}{Result: result, Kinds: model.Kinds(), Views: views, Query: r.URL.RawQuery}

	if err := indexTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) recordHandler(w http.ResponseWriter, r *http.Request) {
	id, _, err := parseRecordPath(r.URL.Path, "/records/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	record, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	history, err := s.store.ListHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data := struct {
		Row     view.Row
		History []model.HistoryEntry
	}{Row: view.Annotate(record, s.now()), History: history}

	if err := recordTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) apiCatalogHandler(w http.ResponseWriter, r *http.Request) {
	type kindPayload struct {
		Kind    model.Kind              `json:"kind"`
		Label   string                  `json:"label"`
		GroupBy string                  `json:"group_by"`
		Search  []model.FieldID         `json:"search"`
		Fields  []model.FieldDescriptor `json:"fields"`
	}

	payload := make([]kindPayload, 0, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		payload = append(payload, kindPayload{
			Kind:    kind,
			Label:   kind.Label(),
			GroupBy: s.catalog.DefaultGroup(kind),
			Search:  s.catalog.SearchTargets(kind),
			Fields:  s.catalog.Fields(kind),
		})
	}
	writeJSON(w, payload)
}

func (s *Server) apiRecordsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	result, err := s.compose(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) apiRecordHandler(w http.ResponseWriter, r *http.Request) {
	id, actionName, err := parseRecordPath(r.URL.Path, "/api/records/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch {
	case r.Method == http.MethodPost && actionName != "":
		action, err := view.ParseAction(actionName)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.composer.Perform(r.Context(), action, id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if action == view.ActionDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	case r.Method == http.MethodDelete && actionName == "":
		if err := s.composer.Perform(r.Context(), view.ActionDelete, id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	case r.Method != http.MethodGet || actionName != "":
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	record, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	history, err := s.store.ListHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload := struct {
		Record  view.Row             `json:"record"`
		History []model.HistoryEntry `json:"history"`
	}{Record: view.Annotate(record, s.now()), History: history}

	writeJSON(w, payload)
}

func (s *Server) apiViewsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var kind model.Kind
		if r.URL.Query().Get("kind") != "" {
			parsed, err := kindFromRequest(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			kind = parsed
		}
		views, err := s.store.ListViews(r.Context(), kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, views)
	case http.MethodPost:
		var saved model.SavedView
		if err := json.NewDecoder(r.Body).Decode(&saved); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode view: %w", err))
			return
		}
		result, err := s.store.SaveView(r.Context(), saved)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, result)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) apiViewHandler(w http.ResponseWriter, r *http.Request) {
	value, rest, err := parseRecordPath(r.URL.Path, "/api/views/")
	if err != nil || rest != "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	viewID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid view id %q", value))
		return
	}
	if err := s.store.DeleteView(r.Context(), viewID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) compose(r *http.Request) (view.Result, error) {
	kind, err := kindFromRequest(r)
	if err != nil {
		return view.Result{}, err
	}

	state := stateFromRequest(r, s.catalog.Fields(kind), s.opts.PageSize)
	if name := strings.TrimSpace(r.URL.Query().Get("view")); name != "" {
		saved, err := s.store.GetViewByName(r.Context(), name)
		if err != nil {
			return view.Result{}, err
		}
		kind = saved.Kind
		state = saved.State
	}

	records, err := s.store.ListRecords(r.Context(), kind)
	if err != nil {
		return view.Result{}, err
	}
	return s.composer.Compose(kind, records, state, s.now()), nil
}

var errBadRequest = errors.New("bad request")

func kindFromRequest(r *http.Request) (model.Kind, error) {
	value := strings.TrimSpace(r.URL.Query().Get("kind"))
	if value == "" {
		return model.KindTask, nil
	}
	kind, ok := model.ParseKind(value)
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", errBadRequest, value)
	}
	return kind, nil
}

const maxPageSize = 500

// stateFromRequest reads the list page state from query parameters: q,
// group, sort, desc, page, page_size and one parameter per filter input.
func stateFromRequest(r *http.Request, fields []model.FieldDescriptor, defaultPageSize int) model.ViewState {
	query := r.URL.Query()
	state := model.ViewState{
		Search:   strings.TrimSpace(query.Get("q")),
		GroupBy:  strings.TrimSpace(query.Get("group")),
		SortBy:   model.FieldID(strings.TrimSpace(query.Get("sort"))),
		SortDesc: query.Get("desc") == "1" || query.Get("desc") == "true",
		PageSize: defaultPageSize,
	}
	if value, err := strconv.Atoi(query.Get("page")); err == nil {
		state.Page = value
	}
	if value, err := strconv.Atoi(query.Get("page_size")); err == nil {
		state.PageSize = min(value, maxPageSize)
	}

	for _, field := range fields {
		id := string(field.ID)
		keys := []string{id}
		switch field.Type {
		case model.FieldTypeDate:
			keys = append(keys, id+filter.SuffixFrom, id+filter.SuffixTo)
		case model.FieldTypeNumberRange:
			keys = []string{id + filter.SuffixMin, id + filter.SuffixMax}
		}
		for _, key := range keys {
			values := query[key]
			if len(values) == 0 {
				continue
			}
			value := strings.TrimSpace(strings.Join(values, ","))
			if value == "" {
				continue
			}
			if state.Values == nil {
				state.Values = make(map[string]string)
			}
			state.Values[key] = value
		}
	}
	return state
}

// parseRecordPath splits "<prefix><id>[/<action>]".
func parseRecordPath(path, prefix string) (string, string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", "", fmt.Errorf("invalid path")
	}
	value := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if value == "" {
		return "", "", fmt.Errorf("missing id")
	}
	id, action, _ := strings.Cut(value, "/")
	if strings.Contains(action, "/") {
		return "", "", fmt.Errorf("invalid path")
	}
	return id, action, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errBadRequest), errors.Is(err, db.ErrInvalid), errors.Is(err, view.ErrUnknownAction):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
