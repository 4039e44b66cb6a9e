package sim

import "strings"

// ParsePadRef splits a dotted "instance.pad" reference, the shape topology
// bindings use. Trimmed down from the source's hierarchical, bracket-
// indexed name grammar (`Foo[3].Bar[1]`): topology refs are always a flat
// two-part name, so the indexing and multi-segment machinery has no
// referent here.
func ParsePadRef(ref string) (instance, pad string, ok bool) {
	i := strings.IndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}
