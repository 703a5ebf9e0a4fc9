package markdown

import (
	"iter"
	"strings"
)

// lines yields every line of s with the byte offset it starts at. Line
// terminators are dropped; a final line without one is still yielded.
func lines(s string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		start := 0
		for start < len(s) {
			end := strings.IndexByte(s[start:], '\n')
			if end < 0 {
				yield(start, strings.TrimSuffix(s[start:], "\r"))
				return
			}
			if !yield(start, strings.TrimSuffix(s[start:start+end], "\r")) {
				return
			}
			start += end + 1
		}
	}
}
