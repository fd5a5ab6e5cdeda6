package serve

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/hashicorp-forge/xano-meta/internal/cmd/base"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/catalog"
	"github.com/hashicorp-forge/xano-meta/pkg/xano/dispatch"
)

// maxRequestLine bounds a single JSON request line.
const maxRequestLine = 16 << 20

type Command struct {
	*base.Command

	api             base.APIFlags
	flagConcurrency int
}

// Request is one line read from stdin.
type Request struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Operation string          `json:"operation"`
	Arguments map[string]any  `json:"arguments,omitempty"`
}

// Response is one line written to stdout.
type Response struct {
	ID        json.RawMessage `json:"id"`
	Operation string          `json:"operation,omitempty"`
	Result    dispatch.Result `json:"result"`
}

func (c *Command) Synopsis() string {
	return "Serve operations as JSON lines over stdin and stdout"
}

func (c *Command) Help() string {
	return `Usage: xano-meta serve [options]

  Read one JSON request per line from stdin and write one JSON response per
  line to stdout. Logs go to stderr.

    request:  {"id": 1, "operation": "xano_list_tables", "arguments": {...}}
    response: {"id": 1, "operation": "xano_list_tables", "result": {...}}

  A failed operation still answers with a result, shaped as
  {"error": ..., "kind": ..., "status": ...}. Requests without an id get a
  generated one. Up to -concurrency requests run at once, so responses may
  arrive out of order; match them by id. SIGINT or SIGTERM cancels requests in
  flight and stops the server without waiting for stdin to close.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("serve", flag.ContinueOnError))

	c.api.Register(f)
	f.IntVar(
		&c.flagConcurrency, "concurrency", 4,
		"Maximum number of requests in flight",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagConcurrency < 1 {
		c.UI.Error("concurrency must be at least 1")
		return 1
	}

	cfg, err := c.LoadConfig(&c.api)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	cat, err := c.NewCatalog(cfg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing client: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Log.Info("serving operations on stdin", "operations", len(cat.Names()), "concurrency", c.flagConcurrency)

	srv := &Server{
		Catalog:         cat,
		DefaultInstance: cfg.Instance,
		Concurrency:     c.flagConcurrency,
		Log:             c.Log.Named("serve"),
	}
	if err := srv.Serve(ctx, c.Stdin, c.Stdout); err != nil {
		c.UI.Error(fmt.Sprintf("error serving: %v", err))
		return 1
	}

	c.Log.Info("stopping")
	return 0
}

// Logger is the subset of hclog.Logger the server uses.
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

// Server answers JSON-line requests with catalog results.
type Server struct {
	Catalog         *catalog.Catalog
	DefaultInstance string
	Concurrency     int
	Log             Logger
}

// Serve reads requests from in until EOF or ctx is done, and writes one
// response per request to out. It returns after every started request has
// been answered. On cancellation it stops without waiting for in to close;
// the reading goroutine stays blocked in Read until the process exits.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.Log == nil {
		s.Log = hclog.NewNullLogger()
	}

	var mu sync.Mutex
	enc := json.NewEncoder(out)
	write := func(resp Response) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(resp)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxRequestLine)
		for scanner.Scan() {
			select {
			case lines <- bytes.Clone(scanner.Bytes()):
			case <-gctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	var writeErr error
loop:
	for {
		var line []byte
		select {
		case <-gctx.Done():
			s.Log.Debug("stopping before end of input", "error", gctx.Err())
			break loop
		case l, ok := <-lines:
			if !ok {
				break loop
			}
			line = bytes.TrimSpace(l)
		}
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := base.DecodeJSON(line, &req); err != nil {
			s.Log.Warn("malformed request", "error", err)
			writeErr = write(Response{
				ID:     json.RawMessage("null"),
				Result: dispatch.Fail(dispatch.NewFailure(dispatch.FailureInvalid, fmt.Sprintf("malformed request: %v", err), err)),
			})
			if writeErr != nil {
				break loop
			}
			continue
		}
		if len(req.ID) == 0 || bytes.Equal(req.ID, []byte("null")) {
			req.ID = json.RawMessage(`"` + uuid.NewString() + `"`)
		}
		if req.Arguments == nil {
			req.Arguments = make(map[string]any)
		}

		g.Go(func() error {
			base.DefaultInstance(s.Catalog, req.Operation, req.Arguments, s.DefaultInstance)
			s.Log.Debug("handling request", "id", string(req.ID), "operation", req.Operation)

			result := s.Catalog.Invoke(gctx, req.Operation, req.Arguments)

			name := req.Operation
			if op, ok := s.Catalog.Lookup(req.Operation); ok {
				name = op.Name
			}
			return write(Response{ID: req.ID, Operation: name, Result: result})
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write response: %w", writeErr)
	}
	select {
	case err := <-readErr:
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}
	default:
	}
	return nil
}
