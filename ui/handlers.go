package ui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"confusionflow/app"
	"confusionflow/domain/core"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/internal/viewstate"
)

type indexPage struct {
	Runs     []app.SelectedRun
	State    viewstate.Snapshot
	Timeline app.Timeline
	SVG      template.HTML
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "index.html", indexPage{
		Runs:     a.c.Selection.Runs(),
		State:    a.c.State.Snapshot(),
		Timeline: a.c.Selection.Timeline(),
		// markup is escaped by the canvas
		SVG: template.HTML(a.c.Canvas.Render()),
	})
}

func (a *App) handleSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := a.c.Canvas.WriteTo(w); err != nil {
		log.Printf("[UI] Failed to write svg: %v", err)
	}
}

type datasetResponse struct {
	Name      core.RunID     `json:"name"`
	DatasetID core.DatasetID `json:"dataset_id"`
	Labels    []string       `json:"labels"`
	Epochs    int            `json:"epochs"`
	Selected  bool           `json:"selected"`
}

func (a *App) handleDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := a.c.Provider.ListDatasets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	selected := lo.SliceToMap(a.c.Selection.Runs(), func(sr app.SelectedRun) (core.RunID, bool) { return sr.Dataset.Name, true })
	writeJSON(w, http.StatusOK, lo.Map(datasets, func(d run.Dataset, _ int) datasetResponse {
		return datasetResponse{
			Name:      d.Name,
			DatasetID: d.DatasetID,
			Labels:    d.Labels,
			Epochs:    len(d.EpochInfos),
			Selected:  selected[d.Name],
		}
	}))
}

func (a *App) handleAddRun(w http.ResponseWriter, r *http.Request) {
	name := core.RunID(chi.URLParam(r, "name"))
	datasets, err := a.c.Provider.ListDatasets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ds, ok := lo.Find(datasets, func(d run.Dataset) bool { return d.Name == name })
	if !ok {
		writeError(w, errors.NotFound(fmt.Sprintf("run %s", name)))
		return
	}
	if err := a.c.Selection.Add(ds); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.c.Selection.Runs())
}

func (a *App) handleRemoveRun(w http.ResponseWriter, r *http.Request) {
	if err := a.c.Selection.Remove(core.RunID(chi.URLParam(r, "name"))); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.c.Selection.Runs())
}

func (a *App) handleTimeline(w http.ResponseWriter, r *http.Request) {
	t := app.Timeline{Min: -1, Max: -1, Single: -1}
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, errors.InvalidInput(fmt.Sprintf("invalid timeline body: %v", err)))
		return
	}
	if err := a.c.Selection.SetTimeline(t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.c.Selection.Timeline())
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.c.State.Snapshot())
}

// handleToggle mutates the view state. Toggles that need a value read it from
// the value query parameter.
func (a *App) handleToggle(w http.ResponseWriter, r *http.Request) {
	state := a.c.State
	value := r.URL.Query().Get("value")

	switch chi.URLParam(r, "toggle") {
	case "transpose":
		state.ToggleTransposed()
	case "y-scaling":
		state.ToggleYScaling()
	case "absolute":
		state.SetAbsolute(!state.Absolute())
	case "renderer":
		renderer, err := viewstate.ParseCellRenderer(value)
		if err != nil {
			writeError(w, err)
			return
		}
		state.SetCellRenderer(renderer)
	case "weight":
		wf, err := strconv.ParseFloat(value, 64)
		if err != nil {
			writeError(w, errors.InvalidInput(fmt.Sprintf("invalid weight factor %q", value)))
			return
		}
		if err := state.SetWeightFactor(wf); err != nil {
			writeError(w, err)
			return
		}
	case "classes":
		indices, err := parseIndices(value)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := a.c.Selection.ValidateClassIndices(indices); err != nil {
			writeError(w, err)
			return
		}
		state.SetClassIndices(indices)
	case "select":
		if err := a.c.MatrixView.Select(value); err != nil {
			writeError(w, err)
			return
		}
	case "select-measure":
		row, col, err := parsePair(value)
		if err != nil {
			writeError(w, err)
			return
		}
		if !a.c.MeasuresView.Select(row, col) {
			writeError(w, errors.NotFound(fmt.Sprintf("measure cell %s", value)))
			return
		}
	case "hover":
		a.c.MatrixView.Hover(value)
	case "leave":
		a.c.MatrixView.Leave()
	default:
		writeError(w, errors.NotFound(fmt.Sprintf("toggle %s", chi.URLParam(r, "toggle"))))
		return
	}
	writeJSON(w, http.StatusOK, state.Snapshot())
}

// handleMeasures measures the runs named by the run query parameters, or the
// selected runs when none are given
func (a *App) handleMeasures(w http.ResponseWriter, r *http.Request) {
	names := lo.Map(r.URL.Query()["run"], func(s string, _ int) core.RunID { return core.RunID(s) })
	if len(names) == 0 {
		names = lo.Map(a.c.Selection.Runs(), func(sr app.SelectedRun, _ int) core.RunID { return sr.Dataset.Name })
	}
	measures, err := a.c.Measures.ComputeMany(r.Context(), names)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, measures)
}

func parseIndices(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, errors.InvalidInput("class indices are required")
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid class index %q", p))
		}
		out = append(out, i)
	}
	return out, nil
}

func parsePair(value string) (int, int, error) {
	ints, err := parseIndices(value)
	if err != nil {
		return 0, 0, err
	}
	if len(ints) != 2 {
		return 0, 0, errors.InvalidInput(fmt.Sprintf("expected row,col, got %q", value))
	}
	return ints[0], ints[1], nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[UI] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeInvalidIndex:
		status = http.StatusBadRequest
	case errors.CodeExternalService, errors.CodeMalformedUpstreamData:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("[UI] Request failed: %v", err)
	}
	writeJSON(w, status, map[string]interface{}{"error": err.Error(), "code": errors.GetCode(err)})
}
