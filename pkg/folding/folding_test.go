package folding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelSortsAndDropsInverted(t *testing.T) {
	m := NewModel([]Region{
		{StartLine: 10, EndLine: 20},
		{StartLine: 5, EndLine: 2},
		{StartLine: 1, EndLine: 30},
		{StartLine: 0, EndLine: 4},
	})

	regions := m.Regions()
	require.Len(t, regions, 2)
	assert.Equal(t, 1, regions[0].StartLine)
	assert.Equal(t, 10, regions[1].StartLine)
}

func TestRegionStartingAt(t *testing.T) {
	m := NewModel([]Region{
		{StartLine: 1, EndLine: 30},
		{StartLine: 10, EndLine: 20},
	})

	r, ok := m.RegionStartingAt(10)
	require.True(t, ok)
	assert.Equal(t, 20, r.EndLine)

	_, ok = m.RegionStartingAt(11)
	assert.False(t, ok)
}

func TestRegionContaining(t *testing.T) {
	m := NewModel([]Region{
		{StartLine: 1, EndLine: 30},
		{StartLine: 10, EndLine: 20},
	})

	r, ok := m.RegionContaining(15)
	require.True(t, ok)
	assert.Equal(t, 10, r.StartLine, "innermost region wins")

	r, ok = m.RegionContaining(25)
	require.True(t, ok)
	assert.Equal(t, 1, r.StartLine)

	_, ok = m.RegionContaining(31)
	assert.False(t, ok)
}

func TestEnclosingRegionsOutermostFirst(t *testing.T) {
	m := NewModel([]Region{
		{StartLine: 10, EndLine: 20},
		{StartLine: 1, EndLine: 30},
		{StartLine: 12, EndLine: 16},
	})

	regions := m.EnclosingRegions(14)
	require.Len(t, regions, 3)
	assert.Equal(t, 1, regions[0].StartLine)
	assert.Equal(t, 10, regions[1].StartLine)
	assert.Equal(t, 12, regions[2].StartLine)

	assert.Empty(t, m.EnclosingRegions(40))
}

func TestToggleLines(t *testing.T) {
	m := NewModel([]Region{
		{StartLine: 1, EndLine: 30},
		{StartLine: 10, EndLine: 20},
	})

	changed := m.ToggleLines([]int{10, 99})
	assert.Equal(t, 1, changed)

	r, ok := m.RegionStartingAt(10)
	require.True(t, ok)
	assert.True(t, r.Collapsed)

	m.ToggleLines([]int{10})
	r, _ = m.RegionStartingAt(10)
	assert.False(t, r.Collapsed)
}

func TestIndentProvider(t *testing.T) {
	lines := []string{
		"func main() {",    // 1
		"\tfor i := 0; {",  // 2
		"\t\tdo(i)",        // 3
		"\t\tmore(i)",      // 4
		"\t}",              // 5
		"}",                // 6
	}
	p := NewIndentProvider(lines, 4, 1)

	m, err := p.FoldingModel(context.Background())
	require.NoError(t, err)

	regions := m.Regions()
	require.NotEmpty(t, regions)
	assert.Equal(t, 1, regions[0].StartLine, "outermost region heads at func")

	// Line 3 is nested under both headers.
	enclosing := m.EnclosingRegions(3)
	require.Len(t, enclosing, 2)
	assert.Equal(t, 1, enclosing[0].StartLine)
	assert.Equal(t, 2, enclosing[1].StartLine)
}

func TestIndentProviderCachesModel(t *testing.T) {
	lines := []string{
		"a {",
		"\tb",
		"\tc",
		"}",
	}
	p := NewIndentProvider(lines, 4, 1)
	ctx := context.Background()

	m1, err := p.FoldingModel(ctx)
	require.NoError(t, err)
	m1.ToggleLines([]int{1})

	m2, err := p.FoldingModel(ctx)
	require.NoError(t, err)
	assert.Same(t, m1, m2, "collapse state must survive refetch")

	r, ok := m2.RegionStartingAt(1)
	require.True(t, ok)
	assert.True(t, r.Collapsed)
}

func TestIndentProviderMinLines(t *testing.T) {
	lines := []string{
		"a:",
		"\tb",
		"c:",
		"\td",
		"\te",
		"\tf",
	}
	p := NewIndentProvider(lines, 4, 2)

	m, err := p.FoldingModel(context.Background())
	require.NoError(t, err)

	// The one-line body under a: is below the threshold.
	_, ok := m.RegionStartingAt(1)
	assert.False(t, ok)

	r, ok := m.RegionStartingAt(3)
	require.True(t, ok)
	assert.Equal(t, 6, r.EndLine)
}

func TestIndentProviderBlankLines(t *testing.T) {
	lines := []string{
		"a {",
		"\tb",
		"",
		"\tc",
		"}",
	}
	p := NewIndentProvider(lines, 4, 1)

	m, err := p.FoldingModel(context.Background())
	require.NoError(t, err)

	r, ok := m.RegionStartingAt(1)
	require.True(t, ok)
	assert.Equal(t, 4, r.EndLine, "region body ends at the last indented line")
}

func TestProviderContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewIndentProvider([]string{"a"}, 4, 1)
	_, err := p.FoldingModel(ctx)
	assert.Error(t, err)

	s := StaticProvider{Model: NewModel(nil)}
	_, err = s.FoldingModel(ctx)
	assert.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	m := NewModel([]Region{{StartLine: 1, EndLine: 2}})
	p := StaticProvider{Model: m}

	got, err := p.FoldingModel(context.Background())
	require.NoError(t, err)
	assert.Same(t, m, got)
}
