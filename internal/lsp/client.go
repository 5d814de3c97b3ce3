package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// Language ids recognized by textDocument/didOpen (spec §4.6, "Document
// lifecycle").
const (
	LanguagePython           = "python"
	LanguageTypeScript       = "typescript"
	LanguageTypeScriptReact  = "typescriptreact"
	LanguageJavaScript       = "javascript"
	LanguageJavaScriptReact  = "javascriptreact"
)

const (
	initializeTimeout = 10 * time.Second
	requestTimeout    = 3 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Symbol is one entry from textDocument/documentSymbol.
type Symbol struct {
	Name  string `json:"name"`
	Kind  int    `json:"kind"`
	Range struct {
		Start struct{ Line, Character int } `json:"start"`
		End   struct{ Line, Character int } `json:"end"`
	} `json:"range"`
}

// Location is one entry from textDocument/definition.
type Location struct {
	URI   string `json:"uri"`
	Range struct {
		Start struct{ Line, Character int } `json:"start"`
	} `json:"range"`
}

// Client is a single language server subprocess speaking LSP over
// stdio (spec §4.6, "Client contract"). One Client serves one language.
type Client struct {
	command     string
	args        []string
	workspace   string
	languageID  string
	log         *slog.Logger

	mu          sync.Mutex
	cmd         *exec.Cmd
	stdin       *bufio.Writer
	initialized bool

	nextID  atomic.Int64
	pending sync.Map // string id -> chan response
}

// NewClient constructs a client for one language server binary (e.g.
// "pyright-langserver --stdio" or "typescript-language-server --stdio").
func NewClient(command string, args []string, workspace, languageID string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{command: command, args: args, workspace: workspace, languageID: languageID, log: log}
}

// Start spawns the subprocess, launches the stdout reader and stderr
// drain goroutines (spec §4.6, "Deadlock-avoidance invariant"), and runs
// the initialize/initialized handshake.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cmd != nil {
		c.mu.Unlock()
		return nil
	}

	cmd := exec.CommandContext(context.Background(), c.command, c.args...) //nolint:contextcheck // process outlives this call
	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.mu.Unlock()
		return newInitializationError(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.mu.Unlock()
		return newInitializationError(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		c.mu.Unlock()
		return newInitializationError(err)
	}

	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return newInitializationError(err)
	}

	c.cmd = cmd
	c.stdin = bufio.NewWriter(stdin)
	c.mu.Unlock()

	go c.readLoop(stdout)
	go c.drainStderr(stderr) // spec §4.6: must drain stderr continuously or the server blocks on write

	return c.initialize(ctx)
}

func (c *Client) initialize(ctx context.Context) error {
	params := map[string]any{
		"processId": nil,
		"rootUri":   "file://" + c.workspace,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"hover":          map[string]any{"contentFormat": []string{"plaintext", "markdown"}},
				"definition":     map[string]any{"linkSupport": false},
				"documentSymbol": map[string]any{"hierarchicalDocumentSymbolSupport": true},
			},
		},
		"initializationOptions": map[string]any{},
		"workspaceFolders":      nil,
	}

	ictx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	if _, err := c.call(ictx, "initialize", params, initializeTimeout); err != nil {
		return newInitializationError(err)
	}
	if err := c.notify("initialized", map[string]any{}); err != nil {
		return newInitializationError(err)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	return nil
}

// Hover implements textDocument/hover with the didOpen/didClose lifecycle
// around it (spec §4.6, "Document lifecycle").
func (c *Client) Hover(ctx context.Context, path, source string, line, character int) (string, error) {
	if !c.IsInitialized() {
		return "", fmt.Errorf("lsp client not initialized")
	}

	if err := c.didOpen(path, source); err != nil {
		return "", err
	}
	defer c.didClose(path)

	params := map[string]any{
		"textDocument": map[string]any{"uri": "file://" + path},
		"position":     map[string]any{"line": line, "character": character},
	}

	result, err := c.call(ctx, "textDocument/hover", params, requestTimeout)
	if err != nil || result == nil {
		return "", err
	}

	var hover struct {
		Contents json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(result, &hover); err != nil {
		return "", nil
	}
	return parseHoverContents(hover.Contents), nil
}

// GetDocumentSymbols implements textDocument/documentSymbol.
func (c *Client) GetDocumentSymbols(ctx context.Context, path, source string) ([]Symbol, error) {
	if !c.IsInitialized() {
		return nil, fmt.Errorf("lsp client not initialized")
	}
	if err := c.didOpen(path, source); err != nil {
		return nil, err
	}
	defer c.didClose(path)

	params := map[string]any{"textDocument": map[string]any{"uri": "file://" + path}}
	result, err := c.call(ctx, "textDocument/documentSymbol", params, requestTimeout)
	if err != nil || result == nil {
		return nil, err
	}
	var symbols []Symbol
	if err := json.Unmarshal(result, &symbols); err != nil {
		return nil, nil
	}
	return symbols, nil
}

// GetDefinition implements textDocument/definition.
func (c *Client) GetDefinition(ctx context.Context, path, source string, line, character int) (*Location, error) {
	if !c.IsInitialized() {
		return nil, fmt.Errorf("lsp client not initialized")
	}
	if err := c.didOpen(path, source); err != nil {
		return nil, err
	}
	defer c.didClose(path)

	params := map[string]any{
		"textDocument": map[string]any{"uri": "file://" + path},
		"position":     map[string]any{"line": line, "character": character},
	}
	result, err := c.call(ctx, "textDocument/definition", params, requestTimeout)
	if err != nil || result == nil {
		return nil, err
	}
	var locs []Location
	if err := json.Unmarshal(result, &locs); err != nil || len(locs) == 0 {
		return nil, nil
	}
	return &locs[0], nil
}

func (c *Client) didOpen(path, source string) error {
	return c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri": "file://" + path, "languageId": c.languageID, "version": 1, "text": source,
		},
	})
}

func (c *Client) didClose(path string) {
	_ = c.notify("textDocument/didClose", map[string]any{
		"textDocument": map[string]any{"uri": "file://" + path},
	})
}

// Shutdown sends shutdown/exit and waits for the process to exit,
// killing it after shutdownTimeout (spec §4.6, "graceful shutdown +
// exit, then reap with bounded wait, kill on timeout").
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()
	if cmd == nil {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	_, _ = c.call(sctx, "shutdown", map[string]any{}, shutdownTimeout)
	_ = c.notify("exit", map[string]any{})
	cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		_ = cmd.Process.Kill()
		<-done
	}

	c.mu.Lock()
	c.cmd = nil
	c.initialized = false
	c.mu.Unlock()
	return nil
}

// IsAlive reports whether the subprocess is still running.
func (c *Client) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd != nil && c.cmd.ProcessState == nil
}

// IsInitialized reports whether the initialize handshake completed.
func (c *Client) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// ExitCode returns the observed exit code, or -1 if the process hasn't
// exited.
func (c *Client) ExitCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.ProcessState == nil {
		return -1
	}
	return c.cmd.ProcessState.ExitCode()
}

func (c *Client) call(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	c.mu.Lock()
	if c.cmd == nil {
		c.mu.Unlock()
		return nil, newCrashedError(-1)
	}
	if c.cmd.ProcessState != nil {
		code := c.cmd.ProcessState.ExitCode()
		c.mu.Unlock()
		return nil, newCrashedError(code)
	}

	id := c.nextID.Add(1)
	idStr := fmt.Sprintf("%d", id)
	ch := make(chan response, 1)
	c.pending.Store(idStr, ch)

	err := writeFrame(c.stdin, request{JSONRPC: "2.0", ID: idStr, Method: method, Params: params})
	if err == nil {
		err = c.stdin.Flush()
	}
	c.mu.Unlock()

	if err != nil {
		c.pending.Delete(idStr)
		return nil, newCommunicationError(err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-time.After(timeout):
		c.pending.Delete(idStr)
		return nil, newTimeoutError(method)
	case <-ctx.Done():
		c.pending.Delete(idStr)
		return nil, ctx.Err()
	}
}

func (c *Client) notify(method string, params any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdin == nil {
		return nil
	}
	if err := writeFrame(c.stdin, request{JSONRPC: "2.0", Method: method, Params: params}); err != nil {
		return err
	}
	return c.stdin.Flush()
}

// readLoop resolves pending request futures as responses arrive; server
// notifications (no id) are logged and discarded (spec §4.6, "Wire
// protocol").
func (c *Client) readLoop(stdout interface{ Read([]byte) (int, error) }) {
	fr := newFrameReader(stdout)
	for {
		msg, err := fr.readMessage()
		if err != nil {
			c.log.Debug("lsp stdout closed", slog.String("error", err.Error()))
			return
		}
		if msg.ID == "" {
			if msg.Method != "" {
				c.log.Debug("lsp notification", slog.String("method", msg.Method))
			}
			continue
		}
		if chAny, ok := c.pending.LoadAndDelete(msg.ID); ok {
			chAny.(chan response) <- msg
		}
	}
}

// drainStderr keeps the stderr pipe empty so the server never blocks on
// a full OS pipe buffer (spec §4.6, "Deadlock-avoidance invariant").
func (c *Client) drainStderr(stderr interface{ Read([]byte) (int, error) }) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		c.log.Debug("lsp stderr", slog.String("line", scanner.Text()))
	}
}
