// Package ordering assigns positions to features within a project and PBIs
// within a feature.
//
// A requested position of 0 is indistinguishable from "not specified": both
// append after the highest existing sibling. Callers therefore cannot place a
// new item at position 0 once siblings exist.
package ordering

// Unspecified is the requested position that asks for the next free slot.
const Unspecified = 0

// Next returns the position after the highest sibling, or 0 with no siblings.
func Next(maxOrder int, hasSiblings bool) int {
	if !hasSiblings {
		return 0
	}
	return maxOrder + 1
}

// Resolve keeps an explicit position and replaces Unspecified with next.
func Resolve(requested, next int) int {
	if requested == Unspecified {
		return next
	}
	return requested
}

// Sequence returns n consecutive positions starting at start.
func Sequence(start, n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}
