// Package notification turns job failure records into chat-sized message blocks.
//
// Format never mutates the record and is safe for concurrent use.
//
// Block layout for the verbose level:
//
//	<worker> failed processing <queue>
//	Payload:
//		<payload lines>
//	Exception: <kind>: <message>
//	```	<frame 1>
//		<frame 2>```
//	```	<frame n>```
//
// The header sits outside the fence of the first block only; every
// following block is a fenced continuation of the backtrace. A header that
// does not fit one block is split on lines ahead of the backtrace.
package notification

import "strings"

type renderer func(FailureRecord) string

// headerRenderers maps each level to the header sections it contributes.
func headerRenderers(level Level) []renderer {
	switch level {
	case Minimal:
		return []renderer{renderWorkerLine, renderPayload}
	case Compact, Verbose:
		return []renderer{renderWorkerLine, renderPayload, renderExceptionSummary}
	default:
		return headerRenderers(DefaultLevel)
	}
}

// Format renders r at the given level into ordered message blocks.
//
// maxBlockChars bounds every block, header text and fences included; values
// <= 0 select DefaultMaxBlockChars. Unknown levels are treated as Verbose.
// The result is empty only when every field of r is absent.
func Format(r FailureRecord, level Level, maxBlockChars int) []string {
	if maxBlockChars <= 0 {
		maxBlockChars = DefaultMaxBlockChars
	}
	level = level.Normalize()

	header := renderHeader(r, headerRenderers(level))
	if level != Verbose {
		return splitLines(header, maxBlockChars)
	}

	backtrace := strings.Join(renderBacktraceLines(r), "\n")
	return layout(header, backtrace, maxBlockChars)
}

// FormatText is Format with the level given by name.
func FormatText(r FailureRecord, level string, maxBlockChars int) []string {
	return Format(r, ParseLevel(level), maxBlockChars)
}

func renderHeader(r FailureRecord, renderers []renderer) string {
	parts := make([]string, 0, len(renderers))
	for _, render := range renderers {
		if s := render(r); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// layout places the header in front of the backtrace chunks. Every block,
// fences included, stays within maxBlockChars.
//
// A header longer than the budget is split on lines; all but its last piece
// become standalone blocks. The last piece shares the first block with the
// opening backtrace chunk when the first backtrace line fits beside it.
// Otherwise it stands alone too. Without a backtrace the output is the
// unfenced header, capped like the compact level.
func layout(header, backtrace string, maxBlockChars int) []string {
	headPieces := splitLines(header, maxBlockChars)
	if len(headPieces) == 0 {
		return Chunk(backtrace, maxBlockChars)
	}

	content := maxBlockChars - fenceChars
	lineLen := firstLineLen(backtrace)
	if lineLen == 0 {
		return headPieces
	}

	last := headPieces[len(headPieces)-1]
	room := content - runeLen(last) - 1
	if content < 1 || room < min(lineLen, content) {
		return append(headPieces, Chunk(backtrace, maxBlockChars)...)
	}

	pieces := splitBudgets(backtrace, room, content)
	blocks := make([]string, 0, len(headPieces)+len(pieces)-1)
	blocks = append(blocks, headPieces[:len(headPieces)-1]...)
	blocks = append(blocks, last+"\n"+Fence+pieces[0]+Fence)
	return append(blocks, fence(pieces[1:])...)
}
