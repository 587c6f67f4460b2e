package bind

import (
	"strconv"
	"strings"
)

// SplitPath cuts a dotted identifier into its segments.
func SplitPath(identifier string) []string {
	return strings.Split(identifier, ".")
}

// JoinPath is the inverse of SplitPath.
func JoinPath(segments []string) string {
	return strings.Join(segments, ".")
}

// Resolve walks a data graph along path segments. It never panics: any
// missing key, out-of-range index or non-container intermediate short-circuits
// to nil, nil being the missing-value sentinel throughout the package.
// A List supports numeric segments and the "length" pseudo-segment.
func Resolve(root any, segments []string) any {
	cur := root
	for _, seg := range segments {
		if cur == nil {
			return nil
		}
		switch t := cur.(type) {
		case *Object:
			v, ok := t.Get(seg)
			if !ok {
				return nil
			}
			cur = v
		case *List:
			if seg == "length" {
				cur = t.Len()
				continue
			}
			index, err := strconv.Atoi(seg)
			if err != nil {
				return nil
			}
			v, ok := t.Get(index)
			if !ok {
				return nil
			}
			cur = v
		default:
			return nil
		}
	}
	return cur
}
