package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"cronexpr"
	"cronexpr/internal/config"
	"cronexpr/internal/ics"
	appLog "cronexpr/internal/log"
)

const (
	defaultNextCount       = 5
	occurrencesCacheTTL    = 30 * time.Second
	shutdownTimeout        = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	calendarName           = "cronexpr schedules"
	calendarContentType    = "text/calendar; charset=utf-8"
	unauthorizedRealmValue = `Basic realm="cronexpr", charset="UTF-8"`
)

// Server provides HTTP APIs for previewing expressions and the configured
// schedules.
type Server struct {
	cfg     *config.Config
	entries []ics.Entry
	loc     *time.Location
	mux     *http.ServeMux
	now     func() time.Time

	// In-memory cache for the last /api/occurrences response.
	occMu    sync.RWMutex
	occCache *occurrencesCache
}

// NewServer constructs a new Server. Every configured schedule must parse.
func NewServer(cfg *config.Config) (*Server, error) {
	cfg.Normalize()
	entries, err := cfg.Entries()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		entries: entries,
		loc:     resolveLocationOrLocal(cfg.Timezone),
		mux:     http.NewServeMux(),
		now:     time.Now,
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", unauthorizedRealmValue)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config) error {
	s, err := NewServer(cfg)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "schedules", len(s.entries))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/next", s.handleNext)
	s.mux.HandleFunc("/api/match", s.handleMatch)
	s.mux.HandleFunc("/api/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// nextResponse is the JSON response shape for /api/next.
type nextResponse struct {
	Expression string      `json:"expression"`
	Timezone   string      `json:"timezone"`
	From       time.Time   `json:"from"`
	Times      []time.Time `json:"times"`
	// Exhausted is set when the schedule ran out before count times.
	Exhausted bool `json:"exhausted,omitempty"`
}

// matchResponse is the JSON response shape for /api/match.
type matchResponse struct {
	Expression string    `json:"expression"`
	Timezone   string    `json:"timezone"`
	At         time.Time `json:"at"`
	Matches    bool      `json:"matches"`
}

// parseErrorResponse reports an invalid expression.
type parseErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field"`
	Offset int    `json:"offset"`
	Caret  string `json:"caret"`
}

// occurrencesResponse is the JSON response shape for /api/occurrences.
type occurrencesResponse struct {
	Occurrences      []occurrenceDTO `json:"occurrences"`
	TruncatedEntries []string        `json:"truncated_entries,omitempty"`
	RangeStart       time.Time       `json:"range_start"`
	RangeEnd         time.Time       `json:"range_end"`
	DisplayTimeZone  string          `json:"display_timezone"`
}

// occurrencesCache holds a cached /api/occurrences response, the days it
// covers and its timestamp.
type occurrencesCache struct {
	days      int
	resp      occurrencesResponse
	updatedAt time.Time
}

// occurrenceDTO is a JSON-friendly view of occurrences.
type occurrenceDTO struct {
	Name        string    `json:"name"`
	Expression  string    `json:"expression"`
	Summary     string    `json:"summary,omitempty"`
	Zone        string    `json:"zone"`
	InstanceKey string    `json:"instance_key"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handleNext previews the next firings of an ad-hoc expression.
//
// GET /api/next?expr=...&from=...&count=5
//   - expr:  cron expression; without a timezone it is read in config.Timezone
//   - from:  RFC 3339 instant to search after (default now)
//   - count: number of firings (default 5, capped at config.MaxOccurrences)
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sched, ok := s.parseExpr(w, q.Get("expr"))
	if !ok {
		return
	}
	from, ok := parseTimeParam(w, "from", q.Get("from"), s.now())
	if !ok {
		return
	}
	count := parseIntDefault(q.Get("count"), defaultNextCount)
	if count <= 0 {
		count = defaultNextCount
	}
	count = min(count, s.cfg.MaxOccurrences)

	times, err := sched.Iterate(from).Take(count)
	resp := nextResponse{
		Expression: sched.String(),
		Timezone:   sched.Location().String(),
		From:       from,
		Times:      times,
	}
	switch {
	case errors.Is(err, cronexpr.ErrExhausted):
		resp.Exhausted = true
	case err != nil:
		appLog.Error("api next: search failed", err, "expr", sched.String())
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMatch reports whether an instant satisfies an expression.
//
// GET /api/match?expr=...&at=... (at defaults to now)
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sched, ok := s.parseExpr(w, q.Get("expr"))
	if !ok {
		return
	}
	at, ok := parseTimeParam(w, "at", q.Get("at"), s.now())
	if !ok {
		return
	}
	matches, err := sched.Matches(at)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{
		Expression: sched.String(),
		Timezone:   sched.Location().String(),
		At:         at,
		Matches:    matches,
	})
}

// handleOccurrences returns expanded occurrences for the configured
// schedules within the next days.
//
// GET /api/occurrences?days=7 (default config.HorizonDays, at most
// config.MaxHorizonDays)
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	if days > s.cfg.MaxHorizonDays {
		writeError(w, http.StatusBadRequest,
			"days must be at most "+strconv.Itoa(s.cfg.MaxHorizonDays))
		return
	}

	cacheNow := s.now()
	s.occMu.RLock()
	oc := s.occCache
	s.occMu.RUnlock()
	if oc != nil && oc.days == days && cacheNow.Sub(oc.updatedAt) < occurrencesCacheTTL {
		writeJSON(w, http.StatusOK, oc.resp)
		return
	}

	rangeStart := cacheNow.In(s.loc)
	rangeEnd := rangeStart.AddDate(0, 0, days)
	appLog.Info("api occurrences request",
		"days", days,
		"range_start", rangeStart.Format(time.RFC3339),
		"range_end", rangeEnd.Format(time.RFC3339),
		"timezone", s.loc.String(),
	)

	res, err := ics.ExpandOccurrences(s.entries, s.expandConfig(rangeStart, rangeEnd))
	if err != nil {
		appLog.Error("api occurrences: expand failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand schedules")
		return
	}

	dtos := make([]occurrenceDTO, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		dtos = append(dtos, occurrenceDTO{
			Name:        occ.Name,
			Expression:  occ.Expression,
			Summary:     occ.Summary,
			Zone:        occ.Zone,
			InstanceKey: occ.InstanceKey,
			Start:       occ.Start,
			End:         occ.End,
		})
	}
	resp := occurrencesResponse{
		Occurrences:      dtos,
		TruncatedEntries: res.TruncatedEntries,
		RangeStart:       rangeStart,
		RangeEnd:         rangeEnd,
		DisplayTimeZone:  s.loc.String(),
	}

	s.occMu.Lock()
	s.occCache = &occurrencesCache{days: days, resp: resp, updatedAt: cacheNow}
	s.occMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar serves the configured schedules as an iCalendar feed
// covering config.HorizonDays.
func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	rangeStart := now.In(s.loc)
	rangeEnd := rangeStart.AddDate(0, 0, s.cfg.HorizonDays)

	var buf bytes.Buffer
	err := ics.Export(&buf, s.entries, ics.ExportConfig{
		ExpandConfig: s.expandConfig(rangeStart, rangeEnd),
		Name:         calendarName,
		Now:          now,
	})
	if err != nil {
		appLog.Error("calendar export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	w.Header().Set("Content-Type", calendarContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) expandConfig(rangeStart, rangeEnd time.Time) ics.ExpandConfig {
	return ics.ExpandConfig{
		DisplayLocation:        s.loc,
		RangeStart:             rangeStart,
		RangeEnd:               rangeEnd,
		MaxOccurrencesPerEntry: s.cfg.MaxOccurrences,
	}
}

// parseExpr parses expr in the configured zone, writing a 400 on failure.
func (s *Server) parseExpr(w http.ResponseWriter, expr string) (*cronexpr.Schedule, bool) {
	if expr == "" {
		writeError(w, http.StatusBadRequest, "missing expr parameter")
		return nil, false
	}
	sched, err := cronexpr.ParseInLocation(expr, s.loc)
	if err != nil {
		var perr *cronexpr.ParseError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusBadRequest, parseErrorResponse{
				Error:  perr.Error(),
				Field:  perr.Field,
				Offset: perr.Offset,
				Caret:  perr.Caret(),
			})
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return sched, true
}

func parseTimeParam(w http.ResponseWriter, name, value string, def time.Time) (time.Time, bool) {
	if value == "" {
		return def, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name+" parameter; expected RFC 3339")
		return time.Time{}, false
	}
	return t, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
