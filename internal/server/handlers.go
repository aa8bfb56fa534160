package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canvasnote/canvasnote/pkg/errors"
	"github.com/canvasnote/canvasnote/pkg/model"
	"github.com/canvasnote/canvasnote/pkg/notebook"
	"github.com/canvasnote/canvasnote/pkg/render/seq"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// documentResponse pairs a snapshot with its version stamp so clients can
// detect concurrent changes.
type documentResponse struct {
	Document model.Document `json:"document"`
	Version  uint64         `json:"version"`
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Version: version})
}

// =============================================================================
// Cells
// =============================================================================

type addCellRequest struct {
	Type     model.CellType `json:"type"`
	Position model.Point    `json:"position"`
	Hint     model.HintType `json:"hint,omitempty"`
}

func (s *Server) handleAddCell(w http.ResponseWriter, r *http.Request) {
	var req addCellRequest
	if !decode(w, r, &req) {
		return
	}
	cell, err := s.store.AddCell(req.Type, req.Position, req.Hint)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cell)
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var patch store.CellPatch
	if !decode(w, r, &patch) {
		return
	}
	if err := s.store.UpdateCell(chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCell(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCell(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateCell(w http.ResponseWriter, r *http.Request) {
	cell, err := s.store.DuplicateCell(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cell)
}

func (s *Server) handleCellPosition(w http.ResponseWriter, r *http.Request) {
	var pos model.Point
	if !decode(w, r, &pos) {
		return
	}
	if err := s.store.UpdateCellPosition(chi.URLParam(r, "id"), pos); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCellSize(w http.ResponseWriter, r *http.Request) {
	var size model.Size
	if !decode(w, r, &size) {
		return
	}
	if err := s.store.UpdateCellSize(chi.URLParam(r, "id"), size); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.SetSelection(req.IDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Canvas
// =============================================================================

// canvasRequest is a partial canvas update; nil fields are untouched.
type canvasRequest struct {
	Zoom        *float64           `json:"zoom,omitempty"`
	Pan         *model.Point       `json:"pan,omitempty"`
	SnapToGrid  *bool              `json:"snapToGrid,omitempty"`
	GridSize    *float64           `json:"gridSize,omitempty"`
	PageSize    *model.PageSize    `json:"pageSize,omitempty"`
	Orientation *model.Orientation `json:"orientation,omitempty"`
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	var req canvasRequest
	if !decode(w, r, &req) {
		return
	}

	apply := []func() error{}
	if req.Zoom != nil {
		apply = append(apply, func() error { return s.store.SetZoom(*req.Zoom) })
	}
	if req.Pan != nil {
		apply = append(apply, func() error { return s.store.SetPan(*req.Pan) })
	}
	if req.SnapToGrid != nil {
		apply = append(apply, func() error { return s.store.SetSnapToGrid(*req.SnapToGrid) })
	}
	if req.GridSize != nil {
		apply = append(apply, func() error { return s.store.SetGridSize(*req.GridSize) })
	}
	if req.PageSize != nil {
		apply = append(apply, func() error { return s.store.SetPageSize(*req.PageSize) })
	}
	if req.Orientation != nil {
		apply = append(apply, func() error { return s.store.SetOrientation(*req.Orientation) })
	}

	for _, fn := range apply {
		if err := fn(); err != nil {
			writeError(w, err)
			return
		}
	}
	doc, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Version: version})
}

// =============================================================================
// Execution
// =============================================================================

type executeResponse struct {
	Outputs []model.Cell `json:"outputs"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	outputs, err := s.exec.ExecuteCell(r.Context(), chi.URLParam(r, "id"))
	if err != nil && !errors.Is(err, errors.ErrCodeExecFailed) {
		writeError(w, err)
		return
	}
	// A failed run still materialized an error output; report it as a
	// completed execution rather than a transport failure.
	writeJSON(w, http.StatusOK, executeResponse{Outputs: outputs})
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	s.exec.Interrupt(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Artifacts
// =============================================================================

type artifactPair struct {
	Notebook notebook.Notebook       `json:"notebook"`
	Layout   notebook.LayoutArtifact `json:"layout"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	nb, layout := notebook.Export(s.store.Document())
	writeJSON(w, http.StatusOK, artifactPair{Notebook: nb, Layout: layout})
}

type importRequest struct {
	Notebook notebook.Notebook        `json:"notebook"`
	Layout   *notebook.LayoutArtifact `json:"layout,omitempty"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decode(w, r, &req) {
		return
	}
	doc, err := notebook.ImportInto(s.store, req.Notebook, req.Layout)
	if err != nil {
		writeError(w, err)
		return
	}
	_, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Version: version})
}

func (s *Server) handleSequenceSVG(w http.ResponseWriter, r *http.Request) {
	doc := s.store.Document()
	detailed := r.URL.Query().Get("detailed") == "true"
	svg, err := seq.RenderSVG(seq.ToDOT(&doc, seq.Options{Detailed: detailed}))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render design sequence"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Persistence
// =============================================================================

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.store.Document()
	if err := s.repo.Save(r.Context(), doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": doc.ID})
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.store.Replace(doc)
	_, version := s.store.Snapshot()
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Version: version})
}

// decode parses a JSON request body, answering 400 on malformed input.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse request body"))
		return false
	}
	return true
}
