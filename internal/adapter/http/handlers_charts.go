package adapthttp

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
)

type runNotebookRequest struct {
	Month json.RawMessage `json:"month"`
}

// parseMonth accepts a JSON integer or a numeric string.
func parseMonth(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return strconv.Atoi(n.String())
}

func (s *Server) handleDebugDataset(w http.ResponseWriter, r *http.Request) {
	summary, err := s.charts.DatasetSummary()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRunNotebook(w http.ResponseWriter, r *http.Request) {
	var req runNotebookRequest
	if err := parseJSON(r, &req); err != nil || len(req.Month) == 0 || string(req.Month) == "null" {
		writeError(w, http.StatusBadRequest, msgMonthRequired)
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidMonth)
		return
	}

	charts, err := s.charts.Render(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	visualizations := make(map[string]string, len(charts))
	for name, img := range charts {
		visualizations[name] = base64.StdEncoding.EncodeToString(img)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Visualizations generated successfully",
		"visualizations": visualizations,
	})
}
