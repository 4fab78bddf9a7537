package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/ingest"
)

const maxBody = 10 << 20

type nodeJSON struct {
	ID    string  `json:"id"`
	Label string  `json:"label,omitempty"`
	Color string  `json:"color,omitempty"`
	Mass  float64 `json:"mass,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`

	Element string `json:"element,omitempty"` // id of the node's element in /frame.svg
}

type edgeJSON struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Label       string  `json:"label,omitempty"`
	Color       string  `json:"color,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	Directional bool    `json:"directional,omitempty"`
	Length      float64 `json:"length,omitempty"`

	Element string `json:"element,omitempty"`
}

type snapshot struct {
	Nodes   []nodeJSON `json:"nodes"`
	Edges   []edgeJSON `json:"edges"`
	Energy  float64    `json:"energy"`
	Running bool       `json:"running"`
}

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var doc []byte
	if !s.do(w, r, func() { doc = s.svg.Document() }) {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(doc)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var snap snapshot
	ok := s.do(w, r, func() {
		snap = snapshot{
			Nodes:   []nodeJSON{},
			Edges:   []edgeJSON{},
			Energy:  s.layout.Energy(),
			Running: s.renderer.Running(),
		}
		for _, n := range s.graph.Nodes() {
			snap.Nodes = append(snap.Nodes, s.nodeToJSON(n))
		}
		for _, e := range s.graph.Edges() {
			ej := edgeToJSON(e)
			ej.Element = s.svg.EdgeElement(e.ID)
			snap.Edges = append(snap.Edges, ej)
		}
	})
	if ok {
		writeJSON(w, http.StatusOK, snap)
	}
}

// handleNodes lists nodes, optionally only those whose label contains the
// label query parameter (case-insensitive).
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("label"))
	nodes := []nodeJSON{}
	ok := s.do(w, r, func() {
		matches := s.graph.FilterNodes(func(n *graph.Node) bool {
			return strings.Contains(strings.ToLower(n.Data.Label), query)
		})
		for _, n := range matches {
			nodes = append(nodes, s.nodeToJSON(n))
		}
	})
	if ok {
		writeJSON(w, http.StatusOK, nodes)
	}
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		found     bool
		neighbors = []nodeJSON{}
	)
	if !s.do(w, r, func() {
		if _, found = s.graph.Node(id); !found {
			return
		}
		for _, n := range s.graph.Neighbors(id) {
			neighbors = append(neighbors, s.nodeToJSON(n))
		}
	}) {
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("node %q: %w", id, graph.ErrNodeNotFound))
		return
	}
	writeJSON(w, http.StatusOK, neighbors)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var procErr error
	if !s.do(w, r, func() {
		procErr = ingest.NewJSONProcessor(s.opts.Palette).Process(data, s.graph)
	}) {
		return
	}
	switch {
	case errors.Is(procErr, ingest.ErrUnknownNode):
		writeError(w, http.StatusUnprocessableEntity, procErr)
	case procErr != nil:
		writeError(w, http.StatusBadRequest, procErr)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	if s.do(w, r, func() { s.renderer.Fit(float32(s.opts.FitSeconds)) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req nodeJSON
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		n       *graph.Node
		existed bool
	)
	if !s.do(w, r, func() {
		if req.ID != "" {
			_, existed = s.graph.Node(req.ID)
		}
		n = s.graph.AddNode(req.ID, graph.NodeData{Label: req.Label, Color: req.Color, Mass: req.Mass})
	}) {
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, nodeJSON{ID: n.ID, Label: n.Data.Label, Color: n.Data.Color, Mass: n.Data.Mass})
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var found bool
	if !s.do(w, r, func() {
		_, found = s.graph.Node(id)
		s.graph.RemoveNode(id)
	}) {
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("node %q: %w", id, graph.ErrNodeNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeJSON
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		e   *graph.Edge
		err error
	)
	if !s.do(w, r, func() {
		e, err = s.graph.AddEdge(req.ID, req.Source, req.Target, graph.EdgeData{
			Label:       req.Label,
			Color:       req.Color,
			Weight:      req.Weight,
			Directional: req.Directional,
			Length:      req.Length,
		})
	}) {
		return
	}
	if errors.Is(err, graph.ErrNodeNotFound) {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, edgeToJSON(e))
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var found bool
	if !s.do(w, r, func() {
		_, found = s.graph.Edge(id)
		s.graph.RemoveEdge(id)
	}) {
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("edge %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var pt pointJSON
	if err := decode(r, &pt); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := s.renderer.Pointer()
	var fn func(x, y float64)
	switch action := chi.URLParam(r, "action"); action {
	case "press":
		fn = p.Press
	case "move":
		fn = p.Move
	case "release":
		fn = p.Release
	case "dblclick":
		fn = p.DoubleClick
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown pointer action %q", action))
		return
	}

	var selected string
	if !s.do(w, r, func() {
		fn(pt.X, pt.Y)
		if n := p.Selected(); n != nil {
			selected = n.ID
		}
	}) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": selected})
}

// nodeToJSON must run on the loop.
func (s *Server) nodeToJSON(n *graph.Node) nodeJSON {
	p, _ := s.layout.Position(n.ID)
	return nodeJSON{
		ID:      n.ID,
		Label:   n.Data.Label,
		Color:   n.Data.Color,
		Mass:    n.Data.Mass,
		X:       p.X,
		Y:       p.Y,
		Element: s.svg.NodeElement(n.ID),
	}
}

func edgeToJSON(e *graph.Edge) edgeJSON {
	return edgeJSON{
		ID:          e.ID,
		Source:      e.Source.ID,
		Target:      e.Target.ID,
		Label:       e.Data.Label,
		Color:       e.Data.Color,
		Weight:      e.Data.Weight,
		Directional: e.Data.Directional,
		Length:      e.Data.Length,
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>springgraph</title>
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; color: #333; }
    #frame { background: white; box-shadow: 0 2px 10px rgba(0,0,0,0.1); cursor: pointer; user-select: none; }
  </style>
</head>
<body>
  <div id="frame"></div>
  <script>
    const frame = document.getElementById('frame');
    const post = (path, body) => fetch(path, {method: 'POST', body: JSON.stringify(body)});
    const at = (ev) => { const r = frame.getBoundingClientRect(); return {x: ev.clientX - r.left, y: ev.clientY - r.top}; };
    frame.addEventListener('mousedown', ev => post('/api/pointer/press', at(ev)));
    frame.addEventListener('mousemove', ev => post('/api/pointer/move', at(ev)));
    window.addEventListener('mouseup', ev => post('/api/pointer/release', at(ev)));
    frame.addEventListener('dblclick', ev => post('/api/pointer/dblclick', at(ev)));
    async function refresh() {
      const res = await fetch('/frame.svg');
      frame.innerHTML = await res.text();
      setTimeout(refresh, 50);
    }
    refresh();
  </script>
</body>
</html>
`
