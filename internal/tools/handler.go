package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/cml"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/config"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/logging"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/metrics"
	"github.com/golovatskygroup/cloudera-ml-mcp/internal/registry"
	"github.com/golovatskygroup/cloudera-ml-mcp/pkg/mcp"
)

// ErrUnknownTool is returned by Handle for names that resolve to no tool.
var ErrUnknownTool = errors.New("tool not found")

// Handler dispatches tool calls. It is safe for concurrent use; per-call
// state lives in the arguments and the context.
type Handler struct {
	client   *cml.Client
	defs     map[string]*Definition
	order    []*Definition
	registry *registry.Registry
	log      *zap.Logger
	metrics  *metrics.Metrics
}

type HandlerOption func(*Handler)

func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler registers the full tool table against client.
func NewHandler(client *cml.Client, opts ...HandlerOption) *Handler {
	h := &Handler{
		client:   client,
		defs:     make(map[string]*Definition),
		registry: registry.NewRegistry(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	for _, def := range append(Definitions(), metaDefinitions()...) {
		h.defs[def.Name] = def
		h.order = append(h.order, def)
		h.registry.Add(def.Tool(), def.Category)
	}
	return h
}

// Tool is the MCP description of d.
func (d *Definition) Tool() mcp.Tool {
	return mcp.Tool{Name: d.Name, Description: d.Description, InputSchema: d.InputSchema()}
}

func (h *Handler) Client() *cml.Client { return h.client }

func (h *Handler) Registry() *registry.Registry { return h.registry }

// WithConfig returns a handler sharing everything with h except the
// connection settings.
func (h *Handler) WithConfig(cfg config.Config) *Handler {
	cp := *h
	cp.client = h.client.WithConfig(cfg)
	return &cp
}

// Lookup resolves name, accepting the "_tool" suffix.
func (h *Handler) Lookup(name string) (*Definition, bool) {
	if def, ok := h.defs[name]; ok {
		return def, true
	}
	def, ok := h.defs[h.registry.Canonical(name)]
	return def, ok
}

// Definitions returns the registered definitions in listing order.
func (h *Handler) Definitions() []*Definition {
	return append([]*Definition(nil), h.order...)
}

// Tools lists every tool with its generated input schema.
func (h *Handler) Tools() []mcp.Tool {
	return h.registry.Tools()
}

// Call runs one tool. It never returns a Go error: every failure, including
// an unknown name, is a failed envelope.
func (h *Handler) Call(ctx context.Context, name string, args map[string]any) cml.Envelope {
	def, ok := h.Lookup(name)
	if !ok {
		return cml.Envelope{Message: "Tool not found: " + name}
	}
	return h.call(ctx, def, args)
}

// CallJSON is Call with raw JSON arguments. Empty or null raw means no
// arguments.
func (h *Handler) CallJSON(ctx context.Context, name string, raw json.RawMessage) cml.Envelope {
	def, ok := h.Lookup(name)
	if !ok {
		return cml.Envelope{Message: "Tool not found: " + name}
	}
	args, err := decodeArgs(raw)
	if err != nil {
		return cml.Fail(err)
	}
	return h.call(ctx, def, args)
}

// Handle runs a tool for an MCP front end. The envelope is returned as JSON
// text; IsError mirrors its success flag.
func (h *Handler) Handle(ctx context.Context, name string, raw json.RawMessage) (*mcp.CallToolResult, error) {
	def, ok := h.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	args, err := decodeArgs(raw)
	if err != nil {
		return envelopeResult(cml.Fail(err)), nil
	}
	return envelopeResult(h.call(ctx, def, args)), nil
}

func (h *Handler) call(ctx context.Context, def *Definition, raw map[string]any) (env cml.Envelope) {
	start := time.Now()
	log := h.log
	if l, ok := logging.Lookup(ctx); ok {
		log = l
	}
	log = log.With(zap.String(logging.FieldTool, def.Name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool panicked", zap.Any("panic", r), zap.Stack("stack"))
			env = cml.Envelope{Message: fmt.Sprintf("Unexpected error: %v", r)}
		}
		d := time.Since(start)
		h.metrics.ObserveTool(def.Name, env.Success, d)
		if env.Success {
			log.Debug("tool call succeeded", zap.Duration(logging.FieldDuration, d))
		} else {
			log.Info("tool call failed", zap.Duration(logging.FieldDuration, d), zap.String("message", env.Message))
		}
	}()

	args, err := normalizeArgs(raw)
	if err != nil {
		return cml.Fail(err)
	}
	prepared, err := prepare(def, args, h.client.Config())
	if err != nil {
		return cml.Fail(err)
	}
	ctx = logging.WithLogger(ctx, log)

	if def.Run != nil {
		msg, data, err := def.Run(ctx, h, prepared)
		if err != nil {
			return cml.Fail(err)
		}
		return cml.OK(msg, data)
	}

	data, err := h.invoke(ctx, def, prepared)
	if err != nil {
		return cml.Fail(err)
	}
	return cml.OK(def.successMessage(prepared, data), data)
}

// invoke issues the single request of a table-driven definition.
func (h *Handler) invoke(ctx context.Context, def *Definition, args Args) (any, error) {
	req, err := def.request(args)
	if err != nil {
		return nil, err
	}
	return h.client.Do(ctx, req)
}

// run prepares and invokes another table-driven tool; composites build on it.
func (h *Handler) run(ctx context.Context, name string, args map[string]any) (any, error) {
	def, ok := h.defs[name]
	if !ok || def.Run != nil {
		return nil, fmt.Errorf("%s is not a single-request tool", name)
	}
	prepared, err := prepare(def, args, h.client.Config())
	if err != nil {
		return nil, err
	}
	return h.invoke(ctx, def, prepared)
}

func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, cml.InvalidParam("Invalid arguments: expected a JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// normalizeArgs re-encodes Go-built arguments so that only JSON types reach
// coercion and schema validation.
func normalizeArgs(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, cml.InvalidParam("Invalid arguments: %v", err)
	}
	return decodeArgs(b)
}

func envelopeResult(env cml.Envelope) *mcp.CallToolResult {
	text, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		text = []byte(fmt.Sprintf(`{"success":false,"message":%q}`, "Unexpected error: "+err.Error()))
	}
	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: "text", Text: string(text)}},
		IsError: !env.Success,
	}
}
