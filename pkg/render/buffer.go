package render

import "strings"

// FragmentBuffer regroups streamed text into fragments that are safe to
// render on their own. Complete lines are released one at a time; a fenced
// code block (``` or ~~~) is held back until its closing fence arrives so
// it is never rendered half open.
type FragmentBuffer struct {
	pending strings.Builder // partial line
	block   strings.Builder // open fenced block
	fence   string
}

// Add appends a chunk and returns the fragments that became complete.
func (b *FragmentBuffer) Add(chunk string) []string {
	b.pending.WriteString(chunk)

	var out []string
	for {
		s := b.pending.String()
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		line := s[:i+1]
		b.pending.Reset()
		b.pending.WriteString(s[i+1:])

		if frag, ok := b.addLine(line); ok {
			out = append(out, frag)
		}
	}
	return out
}

// Flush returns everything still buffered, including an unclosed fence,
// and resets the buffer.
func (b *FragmentBuffer) Flush() string {
	out := b.block.String() + b.pending.String()
	b.block.Reset()
	b.pending.Reset()
	b.fence = ""
	return out
}

// InFence reports whether a fenced block is currently open.
func (b *FragmentBuffer) InFence() bool {
	return b.fence != ""
}

func (b *FragmentBuffer) addLine(line string) (string, bool) {
	marker := fenceMarker(line)

	if b.fence != "" {
		b.block.WriteString(line)
		if marker != b.fence {
			return "", false
		}
		frag := b.block.String()
		b.block.Reset()
		b.fence = ""
		return frag, true
	}

	if marker != "" {
		b.fence = marker
		b.block.WriteString(line)
		return "", false
	}
	return line, true
}

// fenceMarker returns "```" or "~~~" if line opens or closes a fence.
func fenceMarker(line string) string {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "```"):
		return "```"
	case strings.HasPrefix(trimmed, "~~~"):
		return "~~~"
	}
	return ""
}
