package shape

import "fmt"

// NextLabel returns the first label not present in used, walking the
// shared label namespace: single lowercase letters a-z, then numbered
// "?<n>" placeholders once the alphabet is exhausted.
//
// The namespace is global across all images; both the manual-draw path
// and the auto-detector allocate from it through this function so mixed
// manual/auto shapes never collide.
func NextLabel(used map[string]bool) string {
	for c := 'a'; c <= 'z'; c++ {
		label := string(c)
		if !used[label] {
			return label
		}
	}
	for i := 1; ; i++ {
		label := fmt.Sprintf("?%d", i)
		if !used[label] {
			return label
		}
	}
}
