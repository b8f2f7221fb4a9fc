// Package describe turns a workspace into a spoken description for users
// who cannot see the canvas.
package describe

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/blockvoice/internal/core/blocks"
	"github.com/agenthands/blockvoice/internal/core/common"
	"github.com/agenthands/blockvoice/internal/core/model"
)

const DefaultChunkSize = 20

// Generator is satisfied by every llm client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const stackPrompt = `You describe a block-based program to a blind student, who will hear
your answer through a screen reader. Keep it to two or three short sentences,
mention what the program does rather than listing every block, and use plain words.

Stacks of blocks:
%s
Respond with JSON: {"summary": "..."}`

type Summary struct {
	Summary string `json:"summary"`
}

// Describer narrates a snapshot. Without a model it reads the outline.
type Describer struct {
	LLM       Generator
	ChunkSize int
}

func New(client Generator) *Describer {
	return &Describer{LLM: client, ChunkSize: DefaultChunkSize}
}

// Describe returns a narration of s. Model failures are returned so the
// caller can fall back to Plain.
func (d *Describer) Describe(ctx context.Context, s model.Snapshot) (string, error) {
	lines := Outline(s)
	if d.LLM == nil || len(lines) == 0 {
		return Plain(s), nil
	}
	return d.summarize(ctx, lines)
}

// summarize condenses lines chunk by chunk until one summary remains.
func (d *Describer) summarize(ctx context.Context, lines []string) (string, error) {
	size := d.ChunkSize
	if size <= 1 {
		size = DefaultChunkSize
	}
	if len(lines) <= size {
		var b strings.Builder
		for _, l := range lines {
			fmt.Fprintf(&b, "- %s\n", l)
		}
		resp, err := d.LLM.Generate(ctx, fmt.Sprintf(stackPrompt, b.String()))
		if err != nil {
			return "", fmt.Errorf("failed to generate description: %w", err)
		}
		if parsed, err := common.ParseJSON[Summary](resp); err == nil && parsed.Summary != "" {
			return parsed.Summary, nil
		}
		return strings.TrimSpace(resp), nil
	}

	var parts []string
	for i := 0; i < len(lines); i += size {
		end := min(i+size, len(lines))
		part, err := d.summarize(ctx, lines[i:end])
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("Part %d: %s", len(parts)+1, part))
	}
	return d.summarize(ctx, parts)
}

// Plain is the description used without a model.
func Plain(s model.Snapshot) string {
	lines := Outline(s)
	if len(lines) == 0 {
		return "The workspace is empty"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The workspace has %s in %s.", plural(len(s.Nodes), "block"), plural(len(lines), "stack"))
	for i, l := range lines {
		fmt.Fprintf(&b, " Stack %d: %s.", i+1, l)
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Outline renders each top-level stack as one line, statements joined by
// "then" and inputs nested with "with".
func Outline(s model.Snapshot) []string {
	idx := s.Index()
	var out []string
	for _, top := range s.TopLevel() {
		out = append(out, stack(idx, idx[top.ID], 0))
	}
	return out
}

// Deeply nested programs are cut off rather than read in full.
const maxDepth = 4

func stack(idx map[string]*model.Node, n *model.Node, depth int) string {
	var steps []string
	for cur := n; cur != nil; cur = next(idx, cur) {
		steps = append(steps, phrase(idx, cur, depth))
	}
	return strings.Join(steps, ", then ")
}

func next(idx map[string]*model.Node, n *model.Node) *model.Node {
	c, ok := n.Connection(model.PointNext)
	if !ok || c.Target == nil {
		return nil
	}
	return idx[c.Target.NodeID]
}

func phrase(idx map[string]*model.Node, n *model.Node, depth int) string {
	text := n.DisplayName()
	if lit, ok := blocks.LiteralFor(n.Type); ok {
		if v, ok := n.Fields[lit.Field]; ok && v.String() != "" {
			text += " " + v.String()
		}
	}
	if depth >= maxDepth {
		return text
	}

	var parts []string
	for _, c := range n.Connections {
		if c.Target == nil || !c.IsParentSide() || c.Name == model.PointNext {
			continue
		}
		child, ok := idx[c.Target.NodeID]
		if !ok {
			continue
		}
		if c.Kind == model.ConnStatement {
			parts = append(parts, fmt.Sprintf("doing %s", stack(idx, child, depth+1)))
		} else {
			parts = append(parts, phrase(idx, child, depth+1))
		}
	}
	if len(parts) > 0 {
		text += " with " + strings.Join(parts, " and ")
	}
	return text
}
