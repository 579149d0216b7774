package extract

import "strings"

// Resolve maps an entity's text back to exact character offsets in the
// header: the first literal occurrence wins. Entities that already carry
// offsets pass through untouched. An unlocatable entity (the remote model
// paraphrased or normalized the value) is retained without offsets; a
// missing position is never a document failure.
func Resolve(header string, e Entity) Entity {
	if e.HasOffsets() {
		return e
	}
	idx := strings.Index(header, e.Text)
	if idx < 0 {
		return e
	}
	start, end := idx, idx+len(e.Text)
	e.Start = &start
	e.End = &end
	return e
}

// ResolveAll resolves offsets for every entity lacking them.
func ResolveAll(header string, entities []Entity) []Entity {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		out[i] = Resolve(header, e)
	}
	return out
}
