package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abdul-hamid-achik/aegisvault/internal/logging"
	"github.com/abdul-hamid-achik/aegisvault/internal/passgen"
	"github.com/abdul-hamid-achik/aegisvault/internal/vault"
)

// MaskedPassword replaces passwords in listings unless reveal is requested.
const MaskedPassword = "********"

// EntryService is the credential service used by the API.
type EntryService interface {
	AddEntry(appName, username, password, vaultName string) (*vault.Entry, error)
	List(q vault.Query) ([]vault.Entry, error)
	DeleteEntry(id string) (int, error)
}

// APIHandler handles REST API endpoints.
type APIHandler struct {
	entries EntryService
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(entries EntryService) *APIHandler {
	return &APIHandler{entries: entries}
}

// Response helpers

type apiResponse struct {
	Data any            `json:"data,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Data: data})
}

func jsonResponseWithMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Data: data, Meta: meta})
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiError{}
	resp.Error.Code = code
	resp.Error.Message = message
	json.NewEncoder(w).Encode(resp)
}

// decodeJSON reads a JSON body into v. Bodies are size-limited by middleware.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Entries

// ListEntries handles GET /api/v1/entries
func (h *APIHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	order, err := vault.ParseSort(q.Get("sort"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	reveal, _ := strconv.ParseBool(q.Get("reveal"))

	entries, err := h.entries.List(vault.Query{
		Search: q.Get("search"),
		Vault:  q.Get("vault"),
		Sort:   order,
	})
	if err != nil {
		logging.Logger(r.Context()).Error("failed to list entries", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list entries")
		return
	}

	failed, weak := 0, 0
	for i := range entries {
		if entries[i].DecryptFailed {
			failed++
			continue
		}
		if entries[i].Strength == passgen.Weak {
			weak++
		}
		if !reveal {
			entries[i].Password = MaskedPassword
		}
	}

	jsonResponseWithMeta(w, http.StatusOK, entries, map[string]any{
		"total":             len(entries),
		"decrypt_failures":  failed,
		"weak_passwords":    weak,
		"passwords_visible": reveal,
	})
}

// CreateEntry handles POST /api/v1/entries
func (h *APIHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppName  string `json:"app_name"`
		Username string `json:"username"`
		Password string `json:"password"`
		Vault    string `json:"vault"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	entry, err := h.entries.AddEntry(req.AppName, req.Username, req.Password, req.Vault)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidInput) {
			jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		logging.Logger(r.Context()).Error("failed to add entry", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add entry")
		return
	}

	entry.Password = MaskedPassword
	logging.Logger(r.Context()).Info("entry added", "id", entry.ID, "vault", entry.Vault)
	jsonResponse(w, http.StatusCreated, entry)
}

// DeleteEntry handles DELETE /api/v1/entries/{id}
func (h *APIHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil || id == "" {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Entry id is required")
		return
	}

	removed, err := h.entries.DeleteEntry(id)
	if err != nil {
		logging.Logger(r.Context()).Error("failed to delete entry", "error", err)
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete entry")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"id": id, "deleted": removed})
}

// entryID returns the {id} route parameter decoded exactly once. chi
// matches on RawPath when it is set, leaving the parameter escaped, and on
// the already decoded Path otherwise.
func entryID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id, nil
	}
	return url.PathUnescape(id)
}

// Passwords

// GeneratePassword handles POST /api/v1/passwords
func (h *APIHandler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Length  *int  `json:"length"`
		Symbols *bool `json:"symbols"`
	}
	// An empty body selects the defaults.
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	length := passgen.DefaultLength
	if req.Length != nil {
		length = *req.Length
	}
	symbols := true
	if req.Symbols != nil {
		symbols = *req.Symbols
	}

	password, err := passgen.Generate(length, symbols)
	if err != nil {
		if errors.Is(err, passgen.ErrInvalidLength) {
			jsonError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate password")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"password": password, "length": length, "symbols": symbols})
}
