package notification

import "unicode/utf8"

// Fence wraps chunk content as preformatted text in the destination chat
const Fence = "```"

// fenceChars is what the opening and closing fences take from a chunk's budget.
const fenceChars = 2 * len(Fence)

// Chunk splits s into fenced chunks of at most maxChars characters each,
// fences included. Boundaries fall on newlines; the newline at a boundary is
// dropped and the next chunk never starts with a blank line.
//
// A single line longer than the room inside the fences cannot be kept whole.
// It is hard-cut and continues in the next chunk.
//
// When maxChars leaves no room for content between the fences, the pieces are
// returned unfenced so that no chunk exceeds maxChars.
func Chunk(s string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxBlockChars
	}

	content := maxChars - fenceChars
	if content < 1 {
		return splitLines(s, maxChars)
	}
	return fence(splitLines(s, content))
}

func fence(pieces []string) []string {
	if len(pieces) == 0 {
		return nil
	}

	chunks := make([]string, len(pieces))
	for i, p := range pieces {
		chunks[i] = Fence + p + Fence
	}
	return chunks
}

// splitLines is the unfenced core of Chunk. Lengths are counted in runes.
func splitLines(s string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxBlockChars
	}
	return splitBudgets(s, maxChars, maxChars)
}

// splitBudgets splits like splitLines but allows the first piece a different
// budget. Both budgets must be positive.
func splitBudgets(s string, first, rest int) []string {
	text := []rune(s)
	start := skipNewlines(text, 0)
	budget := first

	var pieces []string
	for start < len(text) {
		if len(text)-start <= budget {
			pieces = append(pieces, string(text[start:]))
			break
		}

		end, next := cutPoint(text, start, budget)
		pieces = append(pieces, string(text[start:end]))
		start = skipNewlines(text, next)
		budget = rest
	}
	return pieces
}

// cutPoint finds where the piece starting at start ends. end is exclusive;
// next is where the following piece begins.
func cutPoint(text []rune, start, maxChars int) (end, next int) {
	// text[start+maxChars] exists because the remainder is longer than maxChars.
	for i := start + maxChars; i > start; i-- {
		if text[i] == '\n' {
			return i, i + 1
		}
	}
	// No line boundary within budget: hard cut.
	return start + maxChars, start + maxChars
}

func skipNewlines(text []rune, i int) int {
	for i < len(text) && text[i] == '\n' {
		i++
	}
	return i
}

// firstLineLen is the rune length of the first non-empty line of s.
func firstLineLen(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			if n > 0 {
				break
			}
			continue
		}
		n++
	}
	return n
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
