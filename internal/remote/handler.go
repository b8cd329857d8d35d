package remote

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"fitsync/internal/fit"
)

// Handler serves the record collections over HTTP for HTTPClient:
//
//	GET    /api/health
//	GET    /api/users/{user}/profile
//	PUT    /api/users/{user}/profile            {"current_weight": 104.5}
//	GET    /api/users/{user}/weights
//	PUT    /api/users/{user}/weights/{date}     {"weight": 104.5}
//	GET    /api/users/{user}/workouts
//	PUT    /api/users/{user}/workouts/{date}    WorkoutEntry
//	DELETE /api/users/{user}/workouts/{date}
type Handler struct {
	store  RecordStore
	token  string
	logger fit.Logger
	clock  fit.Clock
	ids    fit.IDGenerator
	router *mux.Router
}

// NewHandler builds the router. An empty token disables authentication.
func NewHandler(store RecordStore, token string, logger fit.Logger, clock fit.Clock, ids fit.IDGenerator) *Handler {
	if logger == nil {
		logger = fit.NewNopLogger()
	}
	h := &Handler{store: store, token: token, logger: logger, clock: clock, ids: ids}

	r := mux.NewRouter()
	r.HandleFunc("/api/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/users/{user}").Subrouter()
	api.Use(h.authenticate)
	api.HandleFunc("/profile", h.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", h.putProfile).Methods(http.MethodPut)
	api.HandleFunc("/weights", h.getWeights).Methods(http.MethodGet)
	api.HandleFunc("/weights/{date}", h.putWeight).Methods(http.MethodPut)
	api.HandleFunc("/workouts", h.getWorkouts).Methods(http.MethodGet)
	api.HandleFunc("/workouts/{date}", h.putWorkout).Methods(http.MethodPut)
	api.HandleFunc("/workouts/{date}", h.deleteWorkout).Methods(http.MethodDelete)

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) service(r *http.Request) *Service {
	return NewService(h.store, mux.Vars(r)["user"], nil, h.clock, h.ids)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service(r).GetProfile(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) putProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentWeight float64 `json:"current_weight"`
	}
	if !decode(w, r, &body) {
		return
	}
	p, err := h.service(r).UpdateProfile(r.Context(), body.CurrentWeight)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) getWeights(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service(r).GetWeightEntries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) putWeight(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Weight float64 `json:"weight"`
	}
	if !decode(w, r, &body) {
		return
	}
	date := mux.Vars(r)["date"]
	if _, err := fit.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format")
		return
	}
	e, err := h.service(r).AddWeightEntry(r.Context(), date, body.Weight)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) getWorkouts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service(r).GetWorkoutEntries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) putWorkout(w http.ResponseWriter, r *http.Request) {
	var entry fit.WorkoutEntry
	if !decode(w, r, &entry) {
		return
	}
	date := mux.Vars(r)["date"]
	if _, err := fit.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format")
		return
	}
	e, err := h.service(r).UpsertWorkoutEntry(r.Context(), date, entry)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteWorkout(w http.ResponseWriter, r *http.Request) {
	if err := h.service(r).DeleteWorkoutEntry(r.Context(), mux.Vars(r)["date"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	switch {
	case errors.Is(err, fit.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, fit.ErrUnreachable):
		writeError(w, http.StatusServiceUnavailable, "record store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
