// Package ingest reads graph documents (JSON, CSV edge lists, arrow logs)
// into a graph.Graph, colouring nodes and edges from a palette.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/springgraph/graph"
)

// ErrUnknownNode is returned when an edge names a node the document never declares.
var ErrUnknownNode = errors.New("unknown node")

// Processor adds the contents of a document to a graph.
type Processor interface {
	Process(data []byte, g *graph.Graph) error
	Name() string
}

// Palette provides colours for nodes and edges that do not carry their own.
type Palette struct {
	NodeColors []string
	EdgeColors []string
	Background string
}

// DefaultPalette returns a light palette with vibrant node colours.
func DefaultPalette() *Palette {
	return &Palette{
		NodeColors: []string{
			"#4285F4", // blue
			"#EA4335", // red
			"#FBBC05", // yellow
			"#34A853", // green
			"#673AB7", // purple
			"#3F51B5", // indigo
			"#00BCD4", // cyan
			"#009688", // teal
			"#FF5722", // deep orange
		},
		EdgeColors: []string{"#666666", "#888888", "#AAAAAA"},
		Background: "#F8F8F8",
	}
}

// DarkPalette returns a high-contrast palette for dark backgrounds.
func DarkPalette() *Palette {
	return &Palette{
		NodeColors: []string{
			"#FF6D00",
			"#2979FF",
			"#00E676",
			"#F50057",
			"#651FFF",
			"#C6FF00",
			"#FF3D00",
			"#00B0FF",
			"#76FF03",
		},
		EdgeColors: []string{"#9E9E9E", "#9C27B0", "#00BFA5"},
		Background: "#212121",
	}
}

// PaletteByName returns "default" or "dark".
func PaletteByName(name string) (*Palette, error) {
	switch strings.ToLower(name) {
	case "", "default", "light":
		return DefaultPalette(), nil
	case "dark":
		return DarkPalette(), nil
	}
	return nil, fmt.Errorf("unknown palette %q", name)
}

func (p *Palette) node(i int) string {
	return p.NodeColors[i%len(p.NodeColors)]
}

func (p *Palette) edge(i int) string {
	return p.EdgeColors[i%len(p.EdgeColors)]
}

// builder tracks palette indices while a processor fills a graph.
type builder struct {
	g       *graph.Graph
	palette *Palette
	nodes   int
	edges   int
}

func newBuilder(g *graph.Graph, palette *Palette) *builder {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &builder{g: g, palette: palette}
}

func (b *builder) node(id string, data graph.NodeData) *graph.Node {
	if n, ok := b.g.Node(id); ok {
		return n
	}
	if data.Label == "" {
		data.Label = id
	}
	if data.Color == "" {
		data.Color = b.palette.node(b.nodes)
	}
	b.nodes++
	return b.g.AddNode(id, data)
}

func (b *builder) edge(id, source, target string, data graph.EdgeData) error {
	if data.Weight <= 0 {
		data.Weight = 1
	}
	if data.Color == "" {
		data.Color = b.palette.edge(b.edges)
	}
	b.edges++
	if _, err := b.g.AddEdge(id, source, target, data); err != nil {
		if errors.Is(err, graph.ErrNodeNotFound) {
			return fmt.Errorf("edge %s -> %s: %w", source, target, ErrUnknownNode)
		}
		return err
	}
	return nil
}

// JSONProcessor reads the object form
//
//	{"nodes":[{"id":"a","label":"A"}],"edges":[{"source":"a","target":"b"}]}
//
// and the compact form
//
//	{"nodes":["a","b"],"edges":[["a","b",{"color":"#00A0B0"}]]}
//
// Both may be mixed within one document.
type JSONProcessor struct {
	palette *Palette
}

// NewJSONProcessor creates a JSON processor. A nil palette means DefaultPalette.
func NewJSONProcessor(palette *Palette) *JSONProcessor {
	return &JSONProcessor{palette: palette}
}

// Name returns the name of the processor.
func (p *JSONProcessor) Name() string {
	return "json"
}

type jsonNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Mass  float64 `json:"mass"`
}

type jsonEdgeData struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Directional bool    `json:"directional"`
	Length      float64 `json:"length"`
}

type jsonEdge struct {
	jsonEdgeData
	Source string `json:"source"`
	Target string `json:"target"`
}

func (d jsonEdgeData) data() graph.EdgeData {
	return graph.EdgeData{
		Label:       d.Label,
		Color:       d.Color,
		Weight:      d.Weight,
		Directional: d.Directional,
		Length:      d.Length,
	}
}

// Process decodes and checks the whole document, then adds every node and
// every edge. A document that fails leaves g untouched.
func (p *JSONProcessor) Process(data []byte, g *graph.Graph) error {
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	nodes := make([]jsonNode, 0, len(doc.Nodes))
	declared := make(map[string]bool, len(doc.Nodes))
	for i, raw := range doc.Nodes {
		n, err := decodeNode(raw)
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, n)
		declared[n.ID] = true
	}

	edges := make([]jsonEdge, 0, len(doc.Edges))
	for i, raw := range doc.Edges {
		e, err := decodeEdge(raw)
		if err != nil {
			return fmt.Errorf("edge %d: %w", i, err)
		}
		for _, id := range []string{e.Source, e.Target} {
			if _, ok := g.Node(id); !ok && !declared[id] {
				return fmt.Errorf("edge %d: %s -> %s: %w", i, e.Source, e.Target, ErrUnknownNode)
			}
		}
		edges = append(edges, e)
	}

	b := newBuilder(g, p.palette)
	for _, n := range nodes {
		b.node(n.ID, graph.NodeData{Label: n.Label, Color: n.Color, Mass: n.Mass})
	}
	for _, e := range edges {
		if err := b.edge(e.ID, e.Source, e.Target, e.data()); err != nil {
			return err
		}
	}
	return nil
}

func decodeNode(raw json.RawMessage) (jsonNode, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return jsonNode{}, err
		}
		return jsonNode{ID: id}, nil
	}
	var n jsonNode
	if err := json.Unmarshal(raw, &n); err != nil {
		return jsonNode{}, err
	}
	if n.ID == "" {
		return jsonNode{}, errors.New("missing id")
	}
	return n, nil
}

func decodeEdge(raw json.RawMessage) (jsonEdge, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		var e jsonEdge
		if err := json.Unmarshal(raw, &e); err != nil {
			return jsonEdge{}, err
		}
		return e, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return jsonEdge{}, err
	}
	if len(parts) < 2 || len(parts) > 3 {
		return jsonEdge{}, fmt.Errorf("compact edge needs 2 or 3 elements, got %d", len(parts))
	}
	var e jsonEdge
	if err := json.Unmarshal(parts[0], &e.Source); err != nil {
		return jsonEdge{}, fmt.Errorf("source: %w", err)
	}
	if err := json.Unmarshal(parts[1], &e.Target); err != nil {
		return jsonEdge{}, fmt.Errorf("target: %w", err)
	}
	if len(parts) == 3 {
		if err := json.Unmarshal(parts[2], &e.jsonEdgeData); err != nil {
			return jsonEdge{}, fmt.Errorf("data: %w", err)
		}
	}
	return e, nil
}

// CSVProcessor reads an edge list with a header naming at least a source and a
// target column. Nodes are created as they are first mentioned.
type CSVProcessor struct {
	palette *Palette
}

// NewCSVProcessor creates a CSV processor. A nil palette means DefaultPalette.
func NewCSVProcessor(palette *Palette) *CSVProcessor {
	return &CSVProcessor{palette: palette}
}

// Name returns the name of the processor.
func (p *CSVProcessor) Name() string {
	return "csv"
}

// Process adds one edge per row.
func (p *CSVProcessor) Process(data []byte, g *graph.Graph) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading CSV header: %w", err)
	}

	sourceIdx, targetIdx, weightIdx, labelIdx := -1, -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "weight", "value", "strength":
			weightIdx = i
		case "label", "name", "title":
			labelIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return errors.New("CSV must contain source and target columns")
	}

	b := newBuilder(g, p.palette)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading CSV row: %w", err)
		}
		if sourceIdx >= len(row) || targetIdx >= len(row) {
			return fmt.Errorf("line %d: missing source or target", line)
		}

		source := strings.TrimSpace(row[sourceIdx])
		target := strings.TrimSpace(row[targetIdx])
		b.node(source, graph.NodeData{})
		b.node(target, graph.NodeData{})

		var data graph.EdgeData
		if weightIdx >= 0 && weightIdx < len(row) {
			if w, err := strconv.ParseFloat(strings.TrimSpace(row[weightIdx]), 64); err == nil {
				data.Weight = w
			}
		}
		if labelIdx >= 0 && labelIdx < len(row) {
			data.Label = row[labelIdx]
		}
		if err := b.edge("", source, target, data); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

// LogProcessor reads one relationship per line, such as "a -> b" or
// "x connected to y". Lines that match no pattern are skipped.
type LogProcessor struct {
	palette *Palette
}

// NewLogProcessor creates a log processor. A nil palette means DefaultPalette.
func NewLogProcessor(palette *Palette) *LogProcessor {
	return &LogProcessor{palette: palette}
}

// Name returns the name of the processor.
func (p *LogProcessor) Name() string {
	return "log"
}

var logPatterns = []struct {
	separator   string
	directional bool
}{
	{" -> ", true},
	{" => ", true},
	{" connected to ", false},
	{" connects to ", true},
	{" links to ", true},
	{" linked to ", false},
	{" - ", false},
}

// Process adds one edge per matching line.
func (p *LogProcessor) Process(data []byte, g *graph.Graph) error {
	b := newBuilder(g, p.palette)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, pattern := range logPatterns {
			parts := strings.Split(line, pattern.separator)
			if len(parts) != 2 {
				continue
			}
			source, target := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			if source == "" || target == "" {
				break
			}
			b.node(source, graph.NodeData{})
			b.node(target, graph.NodeData{})
			if err := b.edge("", source, target, graph.EdgeData{Directional: pattern.directional}); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// GetProcessor returns the processor for format: json, csv or log.
func GetProcessor(format string, palette *Palette) (Processor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(palette), nil
	case "csv":
		return NewCSVProcessor(palette), nil
	case "log", "txt":
		return NewLogProcessor(palette), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// LoadFile reads path into a new graph, choosing the processor from the file
// extension.
func LoadFile(path string, palette *Palette) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := GetProcessor(strings.TrimPrefix(filepath.Ext(path), "."), palette)
	if err != nil {
		return nil, err
	}
	g := graph.New()
	if err := p.Process(data, g); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
