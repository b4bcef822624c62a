package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/msalah0e/flowcanvas/internal/canvas"
	"github.com/msalah0e/flowcanvas/internal/geometry"
	"github.com/msalah0e/flowcanvas/internal/library"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/viewport"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"go.uber.org/zap"
)

const maxBody = 4 << 20

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":   "running",
		"sessions": s.sessions.count(),
		"requests": s.requests.Load(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"library":  s.opts.Library != nil,
	})
}

// ─── Library ───

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if s.opts.Library == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no workflow library configured")
		return
	}
	entries, err := s.opts.Library.List(r.Context())
	if err != nil {
		s.log.Error("error listing workflows", zap.Error(err))
		respondWithErr(w, err)
		return
	}
	if entries == nil {
		entries = []library.Entry{}
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (s *Server) handleImportWorkflow(w http.ResponseWriter, r *http.Request) {
	if s.opts.Library == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no workflow library configured")
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	wf, err := workflow.Decode(data, formatParam(r, workflow.FormatJSON))
	if err != nil {
		respondWithErr(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if wf.ID == "" {
		wf.ID = workflow.DeriveID(wf.Name)
	}
	if err := s.opts.Library.Put(r.Context(), wf, "http"); err != nil {
		s.log.Error("error importing workflow", zap.String("id", wf.ID), zap.Error(err))
		respondWithErr(w, err)
		return
	}
	s.log.Info("workflow imported", zap.String("id", wf.ID), zap.String("name", wf.Name))
	respondWithJSON(w, http.StatusCreated, map[string]any{"id": wf.ID, "name": wf.Name, "nodes": len(wf.Nodes)})
}

func (s *Server) handleExportWorkflow(w http.ResponseWriter, r *http.Request) {
	if s.opts.Library == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no workflow library configured")
		return
	}
	wf, err := s.opts.Library.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, err)
		return
	}
	writeWorkflow(w, r, wf)
}

func writeWorkflow(w http.ResponseWriter, r *http.Request, wf workflow.Workflow) {
	format := formatParam(r, workflow.FormatJSON)
	data, err := workflow.Encode(wf, format)
	if err != nil {
		respondWithErr(w, err)
		return
	}
	ct := "application/json"
	switch format {
	case workflow.FormatYAML:
		ct = "application/yaml"
	case workflow.FormatTOML:
		ct = "application/toml"
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(data)
}

// ─── Sessions ───

type mountRequest struct {
	WorkflowID  string          `json:"workflowId"`
	Workflow    json.RawMessage `json:"workflow"`
	ReadOnly    *bool           `json:"readOnly"`
	Interaction string          `json:"interaction"`
	Routing     string          `json:"routing"`
	HideLabels  *bool           `json:"hideLabels"`
}

type mountResponse struct {
	ID       string          `json:"id"`
	View     string          `json:"view"`
	Source   string          `json:"source"`
	Snapshot canvas.Snapshot `json:"snapshot"`
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}

	opts := s.opts.Canvas
	opts.Logger = s.log
	if req.ReadOnly != nil && *req.ReadOnly != opts.ReadOnly {
		opts.ReadOnly = *req.ReadOnly
		// Fall back to the preset that matches the new mode.
		opts.Viewport = viewport.Config{}
	}
	switch req.Interaction {
	case "":
	case "interactive":
		opts.Interaction = canvas.Interactive
	case "static":
		opts.Interaction = canvas.Static
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("interaction %q: want interactive or static", req.Interaction))
		return
	}
	if req.Routing != "" {
		router, err := geometry.RouterFor(req.Routing)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Router = router
	}
	if req.HideLabels != nil {
		opts.HideLabels = *req.HideLabels
	}

	var (
		wf     workflow.Workflow
		source string
		err    error
	)
	switch {
	case len(req.Workflow) > 0 && string(req.Workflow) != "null":
		wf, err = workflow.Decode(req.Workflow, workflow.FormatJSON)
		if err != nil {
			respondWithErr(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		source = "inline"
	case req.WorkflowID != "":
		if s.opts.Library == nil {
			respondWithError(w, http.StatusServiceUnavailable, "no workflow library configured")
			return
		}
		wf, err = s.opts.Library.Get(r.Context(), req.WorkflowID)
		if err != nil {
			respondWithErr(w, err)
			return
		}
		source = req.WorkflowID
	default:
		wf = workflow.Sample()
		source = "demo"
	}

	sess := &session{source: source, created: time.Now()}
	opts.OnUpdateWorkflow = func(workflow.Workflow) { sess.edits++ }
	sess.host = canvas.New(wf, opts)
	s.sessions.add(sess)

	s.log.Info("canvas mounted",
		zap.String("session", sess.id),
		zap.String("workflow", wf.ID),
		zap.String("source", source),
		zap.Bool("readOnly", opts.ReadOnly),
	)
	respondWithJSON(w, http.StatusCreated, mountResponse{
		ID:       sess.id,
		View:     "/view/" + sess.id,
		Source:   source,
		Snapshot: sess.host.Snapshot(),
	})
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.sessions.remove(id) {
		respondWithErr(w, errNoSession)
		return
	}
	s.log.Info("canvas unmounted", zap.String("session", id))
	w.WriteHeader(http.StatusNoContent)
}

// withSession runs fn on the session under its lock and responds with the
// resulting snapshot.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session) error) {
	sess, err := s.sessions.get(mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if fn != nil {
		if err := fn(sess); err != nil {
			respondWithErr(w, err)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, sess.host.Snapshot())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, nil)
}

type pointerRequest struct {
	Phase string `json:"phase"`
	canvas.PointerEvent
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		switch req.Phase {
		case "down":
			sess.host.PointerDown(req.PointerEvent)
		case "move":
			sess.host.PointerMove(req.PointerEvent)
		case "up":
			sess.host.PointerUp(req.PointerEvent)
		case "leave":
			sess.host.PointerLeave()
		default:
			return fmt.Errorf("%w: pointer phase %q", errBadRequest, req.Phase)
		}
		return nil
	})
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	var req canvas.WheelEvent
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		sess.host.Wheel(req)
		return nil
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Steps int `json:"steps"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		sess.host.Zoom(req.Steps)
		return nil
	})
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		sess.host.Pan(req.DX, req.DY)
		return nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session) error {
		sess.host.ResetView()
		return nil
	})
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width   float64 `json:"width"`
		Height  float64 `json:"height"`
		Padding float64 `json:"padding"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	if req.Width <= 0 {
		req.Width = orDefault(s.opts.Render.Width, render.DefaultWidth)
	}
	if req.Height <= 0 {
		req.Height = orDefault(s.opts.Render.Height, render.DefaultHeight)
	}
	if req.Padding <= 0 {
		req.Padding = s.opts.Padding
	}
	s.withSession(w, r, func(sess *session) error {
		sess.host.FitView(req.Width, req.Height, req.Padding)
		return nil
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req canvas.Batch
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		sess.host.ApplyBatch(req)
		return nil
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		if req.ID == "" {
			sess.host.ClearSelection()
			return nil
		}
		return sess.host.Select(req.ID)
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string  `json:"id"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		return sess.host.MoveNode(req.ID, workflow.Position{X: req.X, Y: req.Y})
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondWithErr(w, err)
		return
	}
	s.withSession(w, r, func(sess *session) error {
		return sess.host.Connect(req.Source, req.Target)
	})
}

// handleSave writes an edited canvas back to the library.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.opts.Library == nil {
		respondWithError(w, http.StatusServiceUnavailable, "no workflow library configured")
		return
	}
	s.withSession(w, r, func(sess *session) error {
		if sess.host.ReadOnly() {
			return canvas.ErrReadOnly
		}
		wf := sess.host.Workflow()
		if wf.ID == "" {
			wf.ID = workflow.DeriveID(wf.Name)
		}
		if err := s.opts.Library.Put(r.Context(), wf, "session:"+sess.id); err != nil {
			return err
		}
		s.log.Info("canvas saved", zap.String("session", sess.id), zap.String("workflow", wf.ID), zap.Int("edits", sess.edits))
		return nil
	})
}

func (s *Server) handleSessionWorkflow(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, err)
		return
	}
	var wf workflow.Workflow
	sess.locked(func() { wf = sess.host.Workflow() })
	writeWorkflow(w, r, wf)
}

// handleReplaceWorkflow swaps the displayed workflow, as when the parent
// view receives a new definition.
func (s *Server) handleReplaceWorkflow(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	wf, err := workflow.Decode(data, formatParam(r, workflow.FormatJSON))
	if err != nil {
		respondWithErr(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.withSession(w, r, func(sess *session) error {
		sess.host.SetWorkflow(wf)
		return nil
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	f := render.FormatSVG
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = render.ParseFormat(v); err != nil {
			respondWithErr(w, err)
			return
		}
	}
	opts := s.opts.Render
	if v, ok := floatParam(r, "width"); ok {
		opts.Width = v
	}
	if v, ok := floatParam(r, "height"); ok {
		opts.Height = v
	}

	sess, err := s.sessions.get(mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, err)
		return
	}
	var buf bytes.Buffer
	sess.locked(func() { err = sess.host.Render(&buf, f, opts) })
	if err != nil {
		s.log.Error("error rendering canvas", zap.String("session", sess.id), zap.Error(err))
		respondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(f))
	_, _ = w.Write(buf.Bytes())
}

// handleView serves the interactive page for a session. Its script posts
// events back to the session endpoints.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(mux.Vars(r)["id"])
	if err != nil {
		respondWithErr(w, err)
		return
	}
	var buf bytes.Buffer
	sess.locked(func() {
		err = render.HTMLSession(&buf, sess.host.Scene(), sess.host.Viewport(), sess.host.RenderOptions(s.opts.Render), "/api/sessions/"+sess.id)
	})
	if err != nil {
		respondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", render.ContentType(render.FormatHTML))
	_, _ = w.Write(buf.Bytes())
}

// ─── Helpers ───

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

func formatParam(r *http.Request, def string) string {
	if v := r.URL.Query().Get("format"); v != "" {
		return v
	}
	return def
}

func floatParam(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil || math.IsNaN(v) || v <= 0 {
		return 0, false
	}
	return math.Min(v, render.MaxDimension), true
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
