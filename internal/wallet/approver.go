package wallet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// RequestKind distinguishes what the user is asked to approve.
type RequestKind string

const (
	RequestMessage     RequestKind = "message"
	RequestTransaction RequestKind = "transaction"
)

// Request describes a pending signature.
type Request struct {
	Kind    RequestKind
	Signer  string
	Summary string
}

// Approver stands in for the user's approve/reject decision in a wallet UI.
type Approver interface {
	Approve(ctx context.Context, req Request) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, req Request) (bool, error)

// Approve calls f.
func (f ApproverFunc) Approve(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// AutoApprove approves everything.
var AutoApprove Approver = ApproverFunc(func(context.Context, Request) (bool, error) { return true, nil })

// DenyAll rejects everything.
var DenyAll Approver = ApproverFunc(func(context.Context, Request) (bool, error) { return false, nil })

// PromptApprover asks on a terminal and approves only on "y" or "yes".
type PromptApprover struct {
	mu    sync.Mutex
	in    *bufio.Reader
	out   io.Writer
	once  sync.Once
	lines chan promptAnswer
}

type promptAnswer struct {
	line string
	err  error
}

// NewPromptApprover reads answers from in and writes prompts to out.
func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan promptAnswer, 1),
	}
}

// readLines runs for the life of the process; a line typed after a
// cancelled prompt answers the next one.
func (p *PromptApprover) readLines() {
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- promptAnswer{line, err}
		if err != nil {
			close(p.lines)
			return
		}
	}
}

// Approve prints the request and waits for an answer or ctx cancellation.
func (p *PromptApprover) Approve(ctx context.Context, req Request) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.once.Do(func() { go p.readLines() })

	fmt.Fprintf(p.out, "Approve %s signature for %s?\n  %s\n[y/N]: ", req.Kind, req.Signer, req.Summary)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a, ok := <-p.lines:
		if !ok {
			return false, nil
		}
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("read approval: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
