package adapthttp

import (
	"net/http"
	"strconv"
	"time"
)

type usernameRequest struct {
	Username string `json:"username"`
}

type historyItem struct {
	MonthIndex int    `json:"month_index"`
	AQIValue   int    `json:"aqi_value"`
	Timestamp  string `json:"timestamp"`
}

// pathMonth parses the {index} path segment. Non-numeric values report 0,
// which the services reject as out of range.
func pathMonth(r *http.Request) int {
	n, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0
	}
	return n
}

// requestUsername prefers a verified bearer identity over the body.
func (s *Server) requestUsername(r *http.Request) (string, bool) {
	if u := identityFromContext(r.Context()); u != "" {
		return u, true
	}
	var req usernameRequest
	if err := parseJSON(r, &req); err != nil || req.Username == "" {
		return "", false
	}
	return req.Username, true
}

func (s *Server) handleAQI(w http.ResponseWriter, r *http.Request) {
	reading, err := s.advisory.Reading(pathMonth(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	username, ok := s.requestUsername(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgUsernameRequired)
		return
	}

	adv, err := s.advisory.GetAdvisory(r.Context(), username, pathMonth(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month_index": adv.MonthIndex,
		"aqi_value":   adv.AQIValue,
		"solution":    adv.Advice,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	username, ok := s.requestUsername(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgUsernameRequired)
		return
	}

	entries, err := s.advisory.History(r.Context(), username)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			MonthIndex: e.MonthIndex,
			AQIValue:   e.AQIValue,
			Timestamp:  e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": items})
}
