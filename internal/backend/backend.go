// Package backend exposes the library service as a request/response
// protocol. Requests are JSON objects, one per line; each gets exactly
// one response line carrying either data or a typed error.
package backend

import (
	"bufio"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/service"
	"github.com/colin969/exodos-launcher/internal/watcher"
)

// Kind discriminates request operations.
type Kind string

// Request is one operation sent by the presentation layer.
type Request struct {
	ID      string         `json:"id"`
	Kind    Kind           `json:"kind"`
	Payload jsontext.Value `json:"payload,omitzero"`
}

// Response answers the request with the same ID. Exactly one of Data and
// Error is set.
type Response struct {
	ID    string        `json:"id"`
	Kind  Kind          `json:"kind"`
	Data  any           `json:"data,omitzero"`
	Error *errors.Error `json:"error,omitzero"`
}

type handlerFunc func(ctx context.Context, payload jsontext.Value) (any, error)

// Dispatcher routes requests to the library service.
type Dispatcher struct {
	svc      *service.LibraryService
	logger   *slog.Logger
	handlers map[Kind]handlerFunc
	reloader atomic.Pointer[watcher.Reloader]
}

// NewDispatcher creates a dispatcher with every request kind registered.
func NewDispatcher(svc *service.LibraryService, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dispatcher{
		svc:      svc,
		logger:   logger,
		handlers: make(map[Kind]handlerFunc),
	}
	d.registerHandlers()
	return d
}

// ReportReloads makes initStatus include the counters of r. The file
// watcher starts after the dispatcher, so this is set late.
func (d *Dispatcher) ReportReloads(r *watcher.Reloader) {
	d.reloader.Store(r)
}

// Kinds returns every registered request kind.
func (d *Dispatcher) Kinds() []Kind {
	out := make([]Kind, 0, len(d.handlers))
	for k := range d.handlers {
		out = append(out, k)
	}
	return out
}

// Dispatch handles one request. It never panics; every failure becomes a
// typed error in the response.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	resp = Response{ID: req.ID, Kind: req.Kind}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("request handler panicked", "id", req.ID, "kind", req.Kind, "panic", r)
			resp.Data = nil
			resp.Error = errors.Internalf("request %s failed unexpectedly", req.Kind)
		}
	}()

	h, ok := d.handlers[req.Kind]
	if !ok {
		resp.Error = &errors.Error{
			Code:    errors.CodeUnknownRequest,
			Message: fmt.Sprintf("unknown request kind %q", req.Kind),
		}
		return resp
	}

	data, err := h(ctx, req.Payload)
	if err != nil {
		resp.Error = errors.From(err)
		d.logger.Warn("request failed", "id", req.ID, "kind", req.Kind,
			"code", resp.Error.Code, "error", err, "duration", time.Since(start))
		return resp
	}
	resp.Data = data
	d.logger.Debug("request handled", "id", req.ID, "kind", req.Kind, "duration", time.Since(start))
	return resp
}

// Serve reads requests from in and writes responses to out until in is
// exhausted or ctx is done. Requests are handled one at a time, in
// arrival order. A line that is not a valid request gets an error
// response and does not stop the loop.
func (d *Dispatcher) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadBytes('\n')
		if !isBlankLine(line) {
			resp := d.handleLine(ctx, line)
			if err := d.write(writer, resp); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read request: %w", readErr)
		}
	}
}

func (d *Dispatcher) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: errors.Validationf("malformed request: %v", err)}
	}
	return d.Dispatch(ctx, req)
}

func (d *Dispatcher) write(w *bufio.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		d.logger.Error("response not encodable", "id", resp.ID, "kind", resp.Kind, "error", err)
		data, err = json.Marshal(Response{
			ID:    resp.ID,
			Kind:  resp.Kind,
			Error: errors.Wrap(err, errors.CodeInternal, "response not encodable"),
		})
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return w.Flush()
}

func isBlankLine(line []byte) bool {
	for _, b := range line {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
