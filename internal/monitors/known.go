package monitors

// KnownSet records transaction ids that have already been evaluated. It is
// owned by a single monitor and is not safe for concurrent use. Entries are
// never evicted, so the set grows for the lifetime of the process.
type KnownSet struct {
	ids map[string]struct{}
}

func NewKnownSet() *KnownSet {
	return &KnownSet{ids: make(map[string]struct{})}
}

// Add inserts id and reports whether it was not already present
func (k *KnownSet) Add(id string) bool {
	if _, ok := k.ids[id]; ok {
		return false
	}
	k.ids[id] = struct{}{}
	return true
}

func (k *KnownSet) Contains(id string) bool {
	_, ok := k.ids[id]
	return ok
}

func (k *KnownSet) Len() int {
	return len(k.ids)
}
