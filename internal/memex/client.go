// Package memex wraps the external memex graph store behind its command-line
// protocol. The store itself is opaque; the client only runs discrete
// commands (init, connect, add, status, cat, link) and parses their output.
package memex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"
)

// Node ids are emitted by the store as lowercase hex tokens.
var (
	addedNodePattern  = regexp.MustCompile(`Added node: ([0-9a-f]+)`)
	statusNodePattern = regexp.MustCompile(`Node ID: ([0-9a-f]+)`)
)

// Runner executes a single store command and returns its stdout and stderr.
// The default runner shells out via os/exec; tests install a fake.
type Runner func(ctx context.Context, binary string, args ...string) (stdout, stderr string, err error)

// Client is a synchronous wrapper over the store's command protocol. The
// staging file used to hand content to `add` is reused sequentially across
// calls and must never be accessed concurrently.
type Client struct {
	binary  string
	staging string
	timeout time.Duration
	run     Runner
}

// Option customizes a Client during construction.
type Option func(*Client)

// WithRunner replaces the command runner (used by tests).
func WithRunner(run Runner) Option {
	return func(c *Client) {
		if run != nil {
			c.run = run
		}
	}
}

// NewClient builds a store client. Every command is bounded by timeout; a
// zero timeout disables the bound.
func NewClient(binary, stagingFile string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		binary:  binary,
		staging: stagingFile,
		timeout: timeout,
		run:     execRunner,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init creates a new store repository. The store exits non-zero when the
// repository already exists, which callers may choose to tolerate.
func (c *Client) Init(ctx context.Context, name string) error {
	_, _, err := c.command(ctx, "init", name)
	return err
}

// Connect attaches the client's working directory to a store file.
func (c *Client) Connect(ctx context.Context, file string) error {
	_, _, err := c.command(ctx, "connect", file)
	return err
}

// Add ingests content as a new node and returns the assigned node id. The
// content is handed over through the staging file, which is removed before
// Add returns regardless of outcome.
func (c *Client) Add(ctx context.Context, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(c.staging), 0o755); err != nil {
		return "", fmt.Errorf("memex: ensure staging dir: %w", err)
	}
	if err := os.WriteFile(c.staging, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("memex: write staging file: %w", err)
	}
	defer os.Remove(c.staging)

	stdout, _, err := c.command(ctx, "add", c.staging)
	if err != nil {
		return "", err
	}
	if match := addedNodePattern.FindStringSubmatch(stdout); match != nil {
		return match[1], nil
	}
	// The add output did not carry an id; ask the store directly before
	// declaring a protocol violation.
	statusOut, _, statusErr := c.command(ctx, "status")
	if statusErr == nil {
		if match := statusNodePattern.FindStringSubmatch(statusOut); match != nil {
			return match[1], nil
		}
	}
	return "", ErrNodeIDNotFound
}

// Fetch prints a node's content. The stdout is returned verbatim, including
// any trailing framing the store emits.
func (c *Client) Fetch(ctx context.Context, id string) (string, error) {
	stdout, _, err := c.command(ctx, "cat", id)
	if err != nil {
		return "", err
	}
	return stdout, nil
}

// Link creates a directed typed edge src -> dst.
func (c *Client) Link(ctx context.Context, src, dst, relation string) error {
	_, _, err := c.command(ctx, "link", src, dst, relation)
	return err
}

func (c *Client) command(ctx context.Context, args ...string) (string, string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	stdout, stderr, err := c.run(ctx, c.binary, args...)
	if err != nil {
		command := commandLine(c.binary, args)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout, stderr, &TimeoutError{Command: command, Timeout: c.timeout}
		}
		return stdout, stderr, &InvocationError{Command: command, Stderr: stderr, Err: err}
	}
	return stdout, stderr, nil
}

func execRunner(ctx context.Context, binary string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func commandLine(binary string, args []string) string {
	line := binary
	for _, arg := range args {
		line += " " + arg
	}
	return line
}
