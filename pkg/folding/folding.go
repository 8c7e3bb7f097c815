// Package folding models collapsible line regions and the provider boundary
// widgets use to obtain the current fold table.
package folding

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Region is a collapsible range of document lines. Lines are 1-based and
// inclusive; StartLine is the region's header.
type Region struct {
	StartLine int
	EndLine   int
	Collapsed bool
}

// Model is the current fold-region table. Safe for concurrent reads with
// serialized mutation through ToggleLines.
type Model struct {
	mu      sync.RWMutex
	regions []Region
}

// NewModel builds a model from regions, sorted by start line. Regions with
// inverted ranges are dropped.
func NewModel(regions []Region) *Model {
	valid := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.EndLine >= r.StartLine && r.StartLine >= 1 {
			valid = append(valid, r)
		}
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].StartLine != valid[j].StartLine {
			return valid[i].StartLine < valid[j].StartLine
		}
		return valid[i].EndLine > valid[j].EndLine
	})
	return &Model{regions: valid}
}

// Regions returns a copy of the region table.
func (m *Model) Regions() []Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Region, len(m.regions))
	copy(out, m.regions)
	return out
}

// RegionStartingAt returns the region whose header is the given line.
func (m *Model) RegionStartingAt(line int) (Region, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.regions {
		if r.StartLine == line {
			return r, true
		}
		if r.StartLine > line {
			break
		}
	}
	return Region{}, false
}

// RegionContaining returns the innermost region covering the given line.
func (m *Model) RegionContaining(line int) (Region, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  Region
		found bool
	)
	for _, r := range m.regions {
		if r.StartLine > line {
			break
		}
		if line <= r.EndLine {
			// Later regions with the same cover are nested deeper.
			if !found || r.StartLine >= best.StartLine {
				best = r
				found = true
			}
		}
	}
	return best, found
}

// EnclosingRegions returns all regions covering the given line,
// outermost first.
func (m *Model) EnclosingRegions(line int) []Region {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Region
	for _, r := range m.regions {
		if r.StartLine > line {
			break
		}
		if line <= r.EndLine {
			out = append(out, r)
		}
	}
	return out
}

// ToggleLines flips the collapsed flag of every region whose header is in
// lines. Returns how many regions changed.
func (m *Model) ToggleLines(lines []int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[int]struct{}, len(lines))
	for _, l := range lines {
		want[l] = struct{}{}
	}
	changed := 0
	for i := range m.regions {
		if _, ok := want[m.regions[i].StartLine]; ok {
			m.regions[i].Collapsed = !m.regions[i].Collapsed
			changed++
		}
	}
	return changed
}

// Provider supplies the current folding model. A nil model with nil error
// means folding is unavailable for the document.
type Provider interface {
	FoldingModel(ctx context.Context) (*Model, error)
}

// IndentProvider derives fold regions from indentation: a line opens a
// region over the following run of deeper-indented lines. Good enough for
// plain-text viewing and for exercising the folding wiring in tests.
type IndentProvider struct {
	lines    []string
	tabSize  int
	minLines int

	mu    sync.Mutex
	model *Model
}

// NewIndentProvider builds a provider over document lines. minLines is the
// smallest body size that still folds; values below one mean one.
func NewIndentProvider(lines []string, tabSize, minLines int) *IndentProvider {
	if tabSize <= 0 {
		tabSize = 4
	}
	if minLines < 1 {
		minLines = 1
	}
	return &IndentProvider{lines: lines, tabSize: tabSize, minLines: minLines}
}

// FoldingModel implements Provider. The model is computed once and reused,
// so collapse state survives repeated fetches.
func (p *IndentProvider) FoldingModel(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model == nil {
		p.model = NewModel(p.computeRegions())
	}
	return p.model, nil
}

func (p *IndentProvider) computeRegions() []Region {
	type open struct {
		line   int
		indent int
	}
	var (
		stack   []open
		regions []Region
	)
	prevIndent := -1
	for i, line := range p.lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := indentOf(line, p.tabSize)
		if prevIndent >= 0 && indent > prevIndent {
			stack = append(stack, open{line: p.lastNonEmptyBefore(i), indent: prevIndent})
		}
		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			end := p.lastNonEmptyBefore(i)
			if end-top.line >= p.minLines {
				regions = append(regions, Region{StartLine: top.line, EndLine: end})
			}
		}
		prevIndent = indent
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		end := p.lastNonEmptyBefore(len(p.lines))
		if end-top.line >= p.minLines {
			regions = append(regions, Region{StartLine: top.line, EndLine: end})
		}
	}
	return regions
}

// lastNonEmptyBefore returns the 1-based line number of the closest
// non-blank line at or before index i-1.
func (p *IndentProvider) lastNonEmptyBefore(i int) int {
	for j := i - 1; j >= 0; j-- {
		if strings.TrimSpace(p.lines[j]) != "" {
			return j + 1
		}
	}
	return 1
}

func indentOf(line string, tabSize int) int {
	indent := 0
	for _, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += tabSize - indent%tabSize
		default:
			return indent
		}
	}
	return indent
}

// StaticProvider returns a fixed model. Useful in tests and for hosts that
// compute folding elsewhere.
type StaticProvider struct {
	Model *Model
	Err   error
}

// FoldingModel implements Provider.
func (p StaticProvider) FoldingModel(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Model, p.Err
}
