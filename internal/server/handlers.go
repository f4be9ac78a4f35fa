package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/httputil"
	"github.com/matzehuels/patternmark/pkg/store"
)

// =============================================================================
// Request Bodies
// =============================================================================

type createRequest struct {
	NodeIDs        []string `json:"nodeIds"`
	FromSelection  bool     `json:"fromSelection"`
	PatternType    string   `json:"patternType"`
	PatternSubtype string   `json:"patternSubtype"`
	Label          string   `json:"label"`
}

type updateRequest struct {
	NodeIDs        *[]string `json:"nodeIds"`
	PatternType    *string   `json:"patternType"`
	PatternSubtype *string   `json:"patternSubtype"`
	Color          *string   `json:"color"`
	Label          *string   `json:"label"`
}

type nodesRequest struct {
	NodeIDs []string `json:"nodeIds"`
}

type modeRequest struct {
	Active bool `json:"active"`
}

type uiRequest struct {
	AnnotationMode      *bool   `json:"isAnnotationMode"`
	ActiveAnnotationID  *string `json:"activeAnnotationId"`
	HoveredAnnotationID *string `json:"hoveredAnnotationId"`
}

type preferencesRequest struct {
	ColorScheme      annotation.ColorScheme `json:"colorScheme"`
	ShowLabels       *bool                  `json:"showLabels"`
	AnimationEnabled *bool                  `json:"animationEnabled"`
}

// =============================================================================
// State
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "doc": s.sess.Name()})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.sess.Store.State())
}

// =============================================================================
// Annotations
// =============================================================================

func (s *Server) listAnnotations(w http.ResponseWriter, r *http.Request) {
	var list []annotation.Annotation
	if node := r.URL.Query().Get("node"); node != "" {
		list = s.sess.Store.GetAnnotationsForNode(node)
	} else {
		list = s.sess.Store.GetAllAnnotations()
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) createAnnotation(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	t, err := annotation.ParsePatternType(req.PatternType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	nodes := req.NodeIDs
	if req.FromSelection {
		sel := s.sess.Store.Selection()
		if !sel.CanCreateAnnotation() {
			httputil.WriteError(w, errors.New(errors.ErrCodeEmptySelection, "selection mode is off or no nodes are selected"))
			return
		}
		nodes = sel.SelectedNodeIDs
	}
	if err := s.checkNodes(nodes); err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := s.sess.Store.CreateAnnotation(nodes, t, req.PatternSubtype, req.Label)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, _ := s.sess.Store.GetAnnotation(id)
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (s *Server) getAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.sess.Store.GetAnnotation(id)
	if !ok {
		httputil.WriteError(w, unknownAnnotation(id))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (s *Server) updateAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := req.toUpdate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if u.NodeIDs != nil {
		if err := s.checkKnown(*u.NodeIDs); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if !s.sess.Store.UpdateAnnotation(id, u) {
		httputil.WriteError(w, unknownAnnotation(id))
		return
	}
	s.writeAnnotationOrGone(w, id)
}

func (s *Server) deleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sess.Store.DeleteAnnotation(id) {
		httputil.WriteError(w, unknownAnnotation(id))
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (s *Server) clearAnnotations(w http.ResponseWriter, r *http.Request) {
	s.sess.Store.ClearAllAnnotations()
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (s *Server) addNodes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req nodesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := s.checkNodes(req.NodeIDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.sess.Store.AddNodesToAnnotation(id, req.NodeIDs) {
		httputil.WriteError(w, unknownAnnotation(id))
		return
	}
	s.writeAnnotationOrGone(w, id)
}

func (s *Server) removeNodes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req nodesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.sess.Store.RemoveNodesFromAnnotation(id, req.NodeIDs) {
		httputil.WriteError(w, unknownAnnotation(id))
		return
	}
	s.writeAnnotationOrGone(w, id)
}

// writeAnnotationOrGone writes the annotation, or 204 when the mutation
// removed its last node and deleted it.
func (s *Server) writeAnnotationOrGone(w http.ResponseWriter, id string) {
	a, ok := s.sess.Store.GetAnnotation(id)
	if !ok {
		httputil.WriteJSON(w, http.StatusNoContent, nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (req updateRequest) toUpdate() (annotation.Update, error) {
	u := annotation.Update{
		NodeIDs:        req.NodeIDs,
		PatternSubtype: req.PatternSubtype,
		Label:          req.Label,
	}
	if req.PatternType != nil {
		t, err := annotation.ParsePatternType(*req.PatternType)
		if err != nil {
			return annotation.Update{}, err
		}
		u.PatternType = &t
	}
	if req.Color != nil {
		if err := errors.ValidateColor(*req.Color); err != nil {
			return annotation.Update{}, err
		}
		u.Color = req.Color
	}
	if u.IsEmpty() {
		return annotation.Update{}, errors.New(errors.ErrCodeInvalidInput, "update sets no field")
	}
	if err := u.Validate(); err != nil {
		return annotation.Update{}, err
	}
	return u, nil
}

func unknownAnnotation(id string) error {
	return errors.New(errors.ErrCodeUnknownAnnotation, "annotation %s not found", id)
}

// =============================================================================
// Selection & UI
// =============================================================================

func (s *Server) putSelection(w http.ResponseWriter, r *http.Request) {
	var req nodesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := s.checkKnown(req.NodeIDs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.sess.Store.SelectNodes(req.NodeIDs)
	httputil.WriteJSON(w, http.StatusOK, s.selectionView())
}

func (s *Server) putSelectionMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	s.sess.Store.SetSelectionMode(req.Active)
	httputil.WriteJSON(w, http.StatusOK, s.selectionView())
}

type selectionView struct {
	store.Selection
	CanCreate bool `json:"canCreateAnnotation"`
}

func (s *Server) selectionView() selectionView {
	sel := s.sess.Store.Selection()
	return selectionView{Selection: sel, CanCreate: sel.CanCreateAnnotation()}
}

func (s *Server) putUI(w http.ResponseWriter, r *http.Request) {
	var req uiRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	st := s.sess.Store
	for _, id := range []*string{req.ActiveAnnotationID, req.HoveredAnnotationID} {
		if id == nil || *id == "" {
			continue
		}
		if _, ok := st.GetAnnotation(*id); !ok {
			httputil.WriteError(w, unknownAnnotation(*id))
			return
		}
	}
	if req.AnnotationMode != nil {
		st.SetAnnotationMode(*req.AnnotationMode)
	}
	if req.ActiveAnnotationID != nil && !st.SetActiveAnnotation(*req.ActiveAnnotationID) {
		httputil.WriteError(w, unknownAnnotation(*req.ActiveAnnotationID))
		return
	}
	if req.HoveredAnnotationID != nil && !st.SetHoveredAnnotation(*req.HoveredAnnotationID) {
		httputil.WriteError(w, unknownAnnotation(*req.HoveredAnnotationID))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st.UI())
}

// =============================================================================
// Preferences & Colors
// =============================================================================

func (s *Server) patchPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	for t, subtypes := range req.ColorScheme {
		for subtype, color := range subtypes {
			if err := errors.ValidateColor(color); err != nil {
				httputil.WriteError(w, errors.Wrap(errors.ErrCodeInvalidColor, err, "colorScheme.%s.%s", t, subtype))
				return
			}
		}
	}
	s.sess.Store.UpdatePreferences(store.PreferencesUpdate{
		ColorScheme:      req.ColorScheme,
		ShowLabels:       req.ShowLabels,
		AnimationEnabled: req.AnimationEnabled,
	})
	httputil.WriteJSON(w, http.StatusOK, s.sess.Store.Preferences())
}

type colorEntry struct {
	PatternType    annotation.PatternType `json:"patternType"`
	PatternSubtype string                 `json:"patternSubtype"`
	Color          string                 `json:"color"`
}

func (s *Server) getColors(w http.ResponseWriter, r *http.Request) {
	scheme := s.sess.Store.Preferences().ColorScheme
	var out []colorEntry
	for _, t := range annotation.PatternTypes() {
		for _, subtype := range scheme.Subtypes(t) {
			out = append(out, colorEntry{t, subtype, s.sess.Store.GetColorForPattern(t, subtype)})
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// =============================================================================
// Diagram
// =============================================================================

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	if s.diagram == nil {
		httputil.WriteError(w, errNoDiagram)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.diagram)
}

func (s *Server) getConnected(w http.ResponseWriter, r *http.Request) {
	if s.diagram == nil {
		httputil.WriteError(w, errNoDiagram)
		return
	}
	var nodes []string
	for _, n := range strings.Split(r.URL.Query().Get("nodes"), ",") {
		if n = strings.TrimSpace(n); n != "" {
			nodes = append(nodes, n)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{
		"nodeIds":   annotation.Dedupe(nodes),
		"connected": s.diagram.Connected(nodes),
	})
}

var errNoDiagram = errors.New(errors.ErrCodeUnsupported, "no diagram loaded; start the server with --diagram")

// checkNodes rejects an empty node list and, when a diagram is loaded,
// node ids it does not contain.
func (s *Server) checkNodes(ids []string) error {
	if len(ids) == 0 {
		return errors.New(errors.ErrCodeEmptySelection, "no nodes given")
	}
	return s.checkKnown(ids)
}

func (s *Server) checkKnown(ids []string) error {
	if s.diagram == nil {
		return nil
	}
	if unknown := s.diagram.Unknown(ids); len(unknown) > 0 {
		return errors.New(errors.ErrCodeInvalidSelection, "unknown nodes: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// =============================================================================
// Persistence
// =============================================================================

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	saved, err := s.sess.Save(r.Context())
	if err != nil {
		s.logger.Error("save failed", "doc", s.sess.Name(), "err", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"saved": saved, "doc": s.sess.Name()})
}
