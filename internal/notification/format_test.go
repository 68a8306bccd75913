package notification

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() FailureRecord {
	return FailureRecord{
		Worker:    "w1",
		Queue:     "q1",
		Payload:   map[string]any{"a": 1},
		Exception: &Exception{Kind: "Boom", Message: "bad"},
		Backtrace: []string{"line1", "line2"},
	}
}

func TestFormat_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    Level
		expected []string
	}{
		{
			name:     "minimal",
			level:    Minimal,
			expected: []string{"w1 failed processing q1\nPayload:\n\ta: 1"},
		},
		{
			name:     "compact",
			level:    Compact,
			expected: []string{"w1 failed processing q1\nPayload:\n\ta: 1\nException: Boom: bad"},
		},
		{
			name:  "verbose",
			level: Verbose,
			expected: []string{
				"w1 failed processing q1\nPayload:\n\ta: 1\nException: Boom: bad\n```\tline1\n\tline2```",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(sampleRecord(), tt.level, DefaultMaxBlockChars))
		})
	}
}

func TestFormat_MinimalScenario(t *testing.T) {
	blocks := Format(sampleRecord(), Minimal, 3500)

	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0], "w1 failed processing q1")
	assert.Contains(t, blocks[0], "a: 1")
	assert.NotContains(t, blocks[0], "Boom")
	assert.NotContains(t, blocks[0], "bad")
	assert.NotContains(t, blocks[0], "line1")
	assert.NotContains(t, blocks[0], "line2")
}

func TestFormat_VerboseSmallBudget(t *testing.T) {
	tests := []struct {
		name          string
		maxBlockChars int
		expected      []string
	}{
		{
			name:          "last header piece shares the first block",
			maxBlockChars: 40,
			expected: []string{
				"w1 failed processing q1\nPayload:\n\ta: 1",
				"Exception: Boom: bad\n```\tline1\n\tline2```",
			},
		},
		{
			name:          "first frame does not fit beside the header",
			maxBlockChars: 30,
			expected: []string{
				"w1 failed processing q1",
				"Payload:\n\ta: 1",
				"Exception: Boom: bad",
				"```\tline1\n\tline2```",
			},
		},
		{
			name:          "lines longer than the budget are hard cut",
			maxBlockChars: 10,
			expected: []string{
				"w1 failed ",
				"processing",
				" q1",
				"Payload:",
				"\ta: 1",
				"Exception:",
				" Boom: bad",
				"```\tlin```",
				"```e1```",
				"```\tlin```",
				"```e2```",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := Format(sampleRecord(), Verbose, tt.maxBlockChars)

			assert.Equal(t, tt.expected, blocks)
			for _, b := range blocks {
				assert.LessOrEqual(t, utf8.RuneCountInString(b), tt.maxBlockChars)
			}
		})
	}
}

func TestFormat_UnknownLevelIsVerbose(t *testing.T) {
	record := sampleRecord()
	verbose := Format(record, Verbose, 10)

	assert.Equal(t, verbose, FormatText(record, "bogus", 10))
	assert.Equal(t, verbose, FormatText(record, "", 10))
	assert.Equal(t, verbose, Format(record, Level(42), 10))
	assert.Equal(t, verbose, Format(record, Level(-1), 10))
}

func TestFormat_LevelMonotonicity(t *testing.T) {
	record := sampleRecord()

	minimal := Format(record, Minimal, DefaultMaxBlockChars)
	compact := Format(record, Compact, DefaultMaxBlockChars)
	verbose := Format(record, Verbose, DefaultMaxBlockChars)

	require.Len(t, minimal, 1)
	require.Len(t, compact, 1)
	require.NotEmpty(t, verbose)

	assert.True(t, strings.HasPrefix(compact[0], minimal[0]))
	assert.True(t, strings.HasPrefix(verbose[0], compact[0]))
}

func TestFormat_Deterministic(t *testing.T) {
	record := sampleRecord()
	record.Payload = map[string]any{"zeta": 1, "alpha": "x", "mid": []any{1, 2, 3}, "nested": map[string]any{"b": 2, "a": 1}}

	first := Format(record, Verbose, 12)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Format(record, Verbose, 12))
	}
}

func TestFormat_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		record   FailureRecord
		level    Level
		expected []string
	}{
		{
			name:     "empty record",
			record:   FailureRecord{},
			level:    Verbose,
			expected: nil,
		},
		{
			name:     "empty record minimal",
			record:   FailureRecord{},
			level:    Minimal,
			expected: nil,
		},
		{
			name:     "missing worker renders an empty token",
			record:   FailureRecord{Queue: "mailers"},
			level:    Verbose,
			expected: []string{" failed processing mailers"},
		},
		{
			name:     "missing queue renders an empty token",
			record:   FailureRecord{Worker: "host:42"},
			level:    Minimal,
			expected: []string{"host:42 failed processing "},
		},
		{
			name:     "no backtrace degenerates to an unfenced header",
			record:   FailureRecord{Worker: "w", Queue: "q", Exception: &Exception{Kind: "Timeout"}},
			level:    Verbose,
			expected: []string{"w failed processing q\nException: Timeout"},
		},
		{
			name:     "only a backtrace",
			record:   FailureRecord{Backtrace: []string{"a.go:1", "b.go:2"}},
			level:    Verbose,
			expected: []string{"```\ta.go:1\n\tb.go:2```"},
		},
		{
			name:     "backtrace ignored below verbose",
			record:   FailureRecord{Backtrace: []string{"a.go:1"}},
			level:    Compact,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.record, tt.level, DefaultMaxBlockChars))
		})
	}
}

func TestFormat_CompactOversizedPayloadIsCapped(t *testing.T) {
	payload := make(map[string]any)
	for i := 0; i < 100; i++ {
		payload[fmt.Sprintf("k%03d", i)] = fmt.Sprintf("value-%03d", i)
	}
	record := FailureRecord{
		Worker:    "w1",
		Queue:     "q1",
		Payload:   payload,
		Exception: &Exception{Kind: "Boom", Message: "bad"},
	}
	full := Format(record, Compact, 1_000_000)
	require.Len(t, full, 1)

	blocks := Format(record, Compact, 50)

	require.Greater(t, len(blocks), 1)
	for _, b := range blocks {
		assert.LessOrEqual(t, utf8.RuneCountInString(b), 50)
		assert.False(t, strings.HasPrefix(b, "\n"))
		assert.NotContains(t, b, Fence)
	}
	assert.Equal(t, full[0], strings.Join(blocks, "\n"))
}

func TestFormat_VerboseLongBacktrace(t *testing.T) {
	frames := make([]string, 400)
	for i := range frames {
		frames[i] = fmt.Sprintf("/srv/app/jobs/report_job.go:%d in perform", i)
	}
	record := sampleRecord()
	record.Backtrace = frames

	blocks := Format(record, Verbose, DefaultMaxBlockChars)
	require.Greater(t, len(blocks), 1)

	header := "w1 failed processing q1\nPayload:\n\ta: 1\nException: Boom: bad\n"
	require.True(t, strings.HasPrefix(blocks[0], header))

	contents := make([]string, len(blocks))
	for i, b := range blocks {
		assert.LessOrEqual(t, utf8.RuneCountInString(b), DefaultMaxBlockChars)
		if i == 0 {
			b = strings.TrimPrefix(b, header)
		}
		contents[i] = unfence(t, b)
	}

	assert.Equal(t, strings.Join(renderBacktraceLines(record), "\n"), strings.Join(contents, "\n"))
}

func TestFormat_VerboseOversizedPayload(t *testing.T) {
	payload := make(map[string]any)
	for i := 0; i < 100; i++ {
		payload[fmt.Sprintf("k%03d", i)] = fmt.Sprintf("value-%03d", i)
	}
	record := sampleRecord()
	record.Payload = payload

	header := Format(record, Compact, 1_000_000)
	require.Len(t, header, 1)

	blocks := Format(record, Verbose, 50)

	require.Greater(t, len(blocks), 1)
	assert.True(t, strings.HasPrefix(blocks[0], "w1 failed processing q1\n"))
	for i, b := range blocks {
		assert.LessOrEqual(t, utf8.RuneCountInString(b), 50, "block %d", i)
	}

	// Every line is whole, so dropping the fences restores the full text.
	backtrace := strings.Join(renderBacktraceLines(record), "\n")
	assert.Equal(t, header[0]+"\n"+backtrace, strings.ReplaceAll(strings.Join(blocks, "\n"), Fence, ""))
}

// TestFormat_BlockSizeBound checks every emitted block, header and fences
// included, against the budget at every level.
func TestFormat_BlockSizeBound(t *testing.T) {
	payload := make(map[string]any)
	for i := 0; i < 40; i++ {
		payload[fmt.Sprintf("key_%02d", i)] = strings.Repeat("v", i)
	}
	frames := make([]string, 25)
	for i := range frames {
		frames[i] = fmt.Sprintf("/srv/app/lib/ünïcode_%d.go:%d in call", i, i*13)
	}

	records := map[string]FailureRecord{
		"sample":  sampleRecord(),
		"payload": {Worker: "ReportJob", Queue: "reports", Payload: payload, Exception: &Exception{Kind: "Boom", Message: "bad"}, Backtrace: frames},
		"long exception": {
			Worker:    "w1",
			Queue:     "q1",
			Exception: &Exception{Kind: "Timeout", Message: strings.Repeat("took too long ", 20)},
			Backtrace: []string{"a.go:1", strings.Repeat("x", 90), "b.go:2"},
		},
		"backtrace only": {Queue: "q", Backtrace: frames},
	}
	budgets := []int{1, 2, 3, 5, 6, 7, 8, 10, 13, 20, 33, 50, 64, 100, 500, DefaultMaxBlockChars}

	for name, record := range records {
		for _, level := range []Level{Verbose, Compact, Minimal} {
			for _, maxBlockChars := range budgets {
				t.Run(fmt.Sprintf("%s/%s/max=%d", name, level, maxBlockChars), func(t *testing.T) {
					blocks := Format(record, level, maxBlockChars)
					require.NotEmpty(t, blocks)

					for i, b := range blocks {
						assert.NotEmpty(t, b, "block %d", i)
						assert.False(t, strings.HasPrefix(b, "\n"), "block %d", i)
						assert.LessOrEqual(t, utf8.RuneCountInString(b), maxBlockChars, "block %d: %q", i, b)
					}
				})
			}
		}
	}
}

func TestFormat_ConcurrentCalls(t *testing.T) {
	record := sampleRecord()
	expected := Format(record, Verbose, 10)

	var wg sync.WaitGroup
	results := make([][]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Format(record, Verbose, 10)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, expected, got)
	}
	assert.Equal(t, []string{"line1", "line2"}, record.Backtrace)
}
