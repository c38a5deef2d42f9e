// Package api exposes the directory over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"address-book/internal/directory"
	"address-book/internal/models"
	"address-book/internal/validation"
	errs "address-book/pkg/errors"
	"address-book/pkg/health"
	"address-book/pkg/logging"
	"address-book/pkg/metrics"
	"address-book/pkg/monitoring"
)

// Options configure NewRouter. A nil Metrics registry disables /metrics.
type Options struct {
	Logger      *logging.Logger
	Metrics     *metrics.Registry
	MetricsPath string
	Health      *health.HealthManager
}

type handlers struct {
	svc *directory.Service
	log *logging.ComponentLogger
}

// NewRouter wires the contact routes onto a gorilla/mux router.
func NewRouter(svc *directory.Service, opts Options) *mux.Router {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	h := &handlers{svc: svc, log: opts.Logger.WithComponent("api")}

	router := mux.NewRouter()
	router.Use(requestID)
	router.Use(accessLog(h.log))
	if opts.Metrics != nil {
		router.Use(monitoring.Middleware(opts.Metrics))
	}

	router.HandleFunc("/contacts", h.list).Methods(http.MethodGet)
	router.HandleFunc("/contacts", h.add).Methods(http.MethodPost)
	router.HandleFunc("/contacts", h.deleteByName).Methods(http.MethodDelete)
	router.HandleFunc("/contacts/search", h.search).Methods(http.MethodGet)
	router.HandleFunc("/contacts/numbers/{number}", h.deleteByNumber).Methods(http.MethodDelete)

	if opts.Health != nil {
		router.Handle("/healthz", opts.Health.Handler()).Methods(http.MethodGet)
	}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		reg := opts.Metrics
		router.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			monitoring.RecordRuntime(reg)
			reg.Handler().ServeHTTP(w, r)
		})).Methods(http.MethodGet)
	}
	return router
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		renderList(w, r, h.svc.All())
		return
	}
	res, err := h.svc.SearchByCategory(r.Context(), category)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderList(w, r, res)
}

func (h *handlers) add(w http.ResponseWriter, r *http.Request) {
	var req directory.AddRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if fields := validation.ValidateContactFields(req.Name, req.Category, req.Phone); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid contact", Fields: fields})
		return
	}
	res, err := h.svc.Add(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Merged || res.Unchanged {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var res []models.Contact
	switch {
	case q.Has("number"):
		res = h.svc.SearchByNumber(r.Context(), q.Get("number"))
	case q.Has("name"):
		raw := q.Get("fuzzy")
		if raw == "strict" {
			res = h.svc.SearchSimilar(r.Context(), q.Get("name"))
			break
		}
		fuzzy := false
		if raw != "" {
			var err error
			if fuzzy, err = strconv.ParseBool(raw); err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "fuzzy must be a boolean or strict", Field: "fuzzy"})
				return
			}
		}
		res = h.svc.SearchByName(r.Context(), q.Get("name"), fuzzy)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name or number is required"})
		return
	}
	renderList(w, r, res)
}

func (h *handlers) deleteByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required", Field: "name"})
		return
	}
	n, err := h.svc.DeleteByName(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *handlers) deleteByNumber(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteByNumber(r.Context(), mux.Vars(r)["number"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listResponse struct {
	Count    int              `json:"count" yaml:"count"`
	Contacts []models.Contact `json:"contacts" yaml:"contacts"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Field  string            `json:"field,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// fail maps typed errors onto status codes.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: errs.MessageOf(err)}
	var ve *errs.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		resp.Field = ve.Field
	case errors.Is(err, directory.ErrDuplicateNumber):
		status = http.StatusConflict
	case errors.Is(err, directory.ErrNotFound):
		status = http.StatusNotFound
	default:
		h.log.Ctx(r.Context()).Error("unexpected error", err)
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}

// renderList writes contacts as JSON, as YAML with ?format=yaml, or as one
// "(name, type, number)" line per stored number with ?format=tuples.
func renderList(w http.ResponseWriter, r *http.Request, contacts []models.Contact) {
	switch r.URL.Query().Get("format") {
	case "tuples":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		for _, c := range contacts {
			for _, line := range c.Tuples() {
				io.WriteString(w, line+"\n")
			}
		}
	case "yaml":
		out, err := yaml.Marshal(listResponse{Count: len(contacts), Contacts: contacts})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(out)
	default:
		writeJSON(w, http.StatusOK, listResponse{Count: len(contacts), Contacts: contacts})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
