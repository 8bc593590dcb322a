package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lifetrack-app/lifetrack-backend/internal/journal"
	"github.com/lifetrack-app/lifetrack-backend/internal/models"
)

const maxBodyBytes = 1 << 20

// Journal serves the /journals routes. All of them require a principal;
// ownership is enforced by passing the principal's id into every service
// call, never the client's.
type Journal struct {
	svc    *journal.Service
	expose bool
}

// NewJournal wires the handler. expose controls whether 500 bodies carry
// the underlying error text; keep it off in production.
func NewJournal(svc *journal.Service, expose bool) *Journal {
	return &Journal{svc: svc, expose: expose}
}

type createEntryRequest struct {
	UserID        string     `json:"userId"`
	Content       string     `json:"content"`
	ContentFormat string     `json:"contentFormat"`
	Date          *time.Time `json:"date"`
	Tags          []string   `json:"tags"`
}

type updateEntryRequest struct {
	UserID        string               `json:"userId"`
	Content       *string              `json:"content"`
	ContentFormat *string              `json:"contentFormat"`
	Tags          *[]string            `json:"tags"`
	Attachments   *[]models.Attachment `json:"attachments"`
}

// writeEntry sends one entry, exposing its version as a quoted ETag so
// clients can replay it through If-Match.
func writeEntry(w http.ResponseWriter, status int, entry models.JournalEntry) {
	w.Header().Set("ETag", `"`+strconv.FormatInt(entry.Version, 10)+`"`)
	writeJSON(w, status, entry)
}

// Create handles POST /journals.
func (h *Journal) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	entry, err := h.svc.Create(r.Context(), journal.CreateInput{
		UserID:        p.ID,
		BodyUserID:    req.UserID,
		Content:       req.Content,
		ContentFormat: req.ContentFormat,
		Date:          req.Date,
		Tags:          req.Tags,
	})
	if err != nil {
		writeError(w, "create entry", err, h.expose)
		return
	}
	writeEntry(w, http.StatusCreated, entry)
}

// List handles GET /journals. The total before paging travels in the
// X-Total-Count header; unparseable paging or date params fall back to
// defaults rather than failing the request.
func (h *Journal) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	in := journal.ListInput{
		UserID: p.ID,
		Tag:    q.Get("tag"),
		Limit:  queryInt(q.Get("limit"), 0),
		Skip:   queryInt(q.Get("skip"), 0),
	}
	if t, err := parseDate(q.Get("from")); err == nil {
		in.From = &t
	}
	if t, err := parseDate(q.Get("to")); err == nil {
		in.To = &t
	}

	entries, total, err := h.svc.List(r.Context(), in)
	if err != nil {
		writeError(w, "list entries", err, h.expose)
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	writeJSON(w, http.StatusOK, entries)
}

// Search handles GET /journals/search. Unlike List it rejects malformed
// filters, because a silently dropped filter would return entries the
// caller asked to exclude.
func (h *Journal) Search(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	in := journal.SearchInput{
		UserID: p.ID,
		Text:   q.Get("q"),
		Tags:   queryTags(q["tags"]),
		Limit:  queryInt(q.Get("limit"), 0),
		Skip:   queryInt(q.Get("skip"), 0),
	}

	if raw := q.Get("dateFrom"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("dateFrom must be YYYY-MM-DD or RFC 3339"))
			return
		}
		in.From = &t
	}
	if raw := q.Get("dateTo"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("dateTo must be YYYY-MM-DD or RFC 3339"))
			return
		}
		in.To = &t
	}
	if raw := q.Get("sentimentMin"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("sentimentMin must be a number"))
			return
		}
		in.SentimentMin = &v
	}
	if raw := q.Get("sentimentMax"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("sentimentMax must be a number"))
			return
		}
		in.SentimentMax = &v
	}

	res, err := h.svc.Search(r.Context(), in)
	if err != nil {
		writeError(w, "search entries", err, h.expose)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Get handles GET /journals/{id}.
func (h *Journal) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	entry, err := h.svc.Get(r.Context(), p.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get entry", err, h.expose)
		return
	}
	writeEntry(w, http.StatusOK, entry)
}

// Update handles PUT /journals/{id}. The body is a partial patch; the
// If-Match header, when present, carries the version the client is
// editing (quotes stripped per the usual ETag form). Absent means last
// write wins.
func (h *Journal) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	in := journal.UpdateInput{
		UserID:        p.ID,
		BodyUserID:    req.UserID,
		EntryID:       chi.URLParam(r, "id"),
		Content:       req.Content,
		ContentFormat: req.ContentFormat,
		Tags:          req.Tags,
		Attachments:   req.Attachments,
	}
	if raw := strings.Trim(r.Header.Get("If-Match"), `"`); raw != "" {
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("If-Match must be an entry version"))
			return
		}
		in.ExpectedVersion = &version
	}

	entry, err := h.svc.Update(r.Context(), in)
	if err != nil {
		writeError(w, "update entry", err, h.expose)
		return
	}
	writeEntry(w, http.StatusOK, entry)
}

// Delete handles DELETE /journals/{id}.
func (h *Journal) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), p.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete entry", err, h.expose)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseDate accepts a plain day or a full RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

// queryTags accepts the tags param repeated, comma-separated, or both.
func queryTags(raw []string) []string {
	var tags []string
	for _, chunk := range raw {
		for _, t := range strings.Split(chunk, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
