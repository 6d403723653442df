package tokenizer

import (
	radix "github.com/armon/go-radix"
)

// SpecialTokenRegistry maps special token text to token ids.
// Backed by a radix tree so sentinel families that share a textual prefix
// ("<extra_id_0>".."<extra_id_99>") can be collected in one walk.
type SpecialTokenRegistry struct {
	tree *radix.Tree
	ids  map[int64]struct{}
}

func NewSpecialTokenRegistry() *SpecialTokenRegistry {
	return &SpecialTokenRegistry{
		tree: radix.New(),
		ids:  make(map[int64]struct{}),
	}
}

// Add registers a special token by its text and id.
func (r *SpecialTokenRegistry) Add(token string, id int64) {
	r.tree.Insert(token, id)
	r.ids[id] = struct{}{}
}

// Lookup returns the id registered for token text.
func (r *SpecialTokenRegistry) Lookup(token string) (int64, bool) {
	v, ok := r.tree.Get(token)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// IDsWithPrefix collects the ids of every registered token whose text starts
// with prefix, e.g. the whole "<extra_id_" sentinel family.
func (r *SpecialTokenRegistry) IDsWithPrefix(prefix string) []int64 {
	var out []int64
	r.tree.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		out = append(out, v.(int64))
		return false
	})
	return out
}

// Contains reports whether id belongs to any registered special token.
func (r *SpecialTokenRegistry) Contains(id int64) bool {
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of registered special tokens.
func (r *SpecialTokenRegistry) Len() int {
	return r.tree.Len()
}
