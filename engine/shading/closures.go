package shading

// Closure is one shading-tree stack frame (§4.5 "shading tree closure
// stack"): a name, the monotonic id that name was first assigned, and the
// inline-expression strings accumulated for every property acquired while
// the frame was on top, keyed by property name so a repeat addX on the
// same name in the same frame is detectable (§8 property 5).
type Closure struct {
	Name       string
	ID         int
	Parameters map[string]string
}

func newClosure(name string, id int) *Closure {
	return &Closure{Name: name, ID: id, Parameters: make(map[string]string)}
}

// closureIDAllocator hands out a monotonically increasing id the first time
// it sees a given name, and the same id on every later sighting of that
// name (§4.5: "hash-free: monotonic counter per distinct name"). Because the
// counter only ever advances on a name it has never seen, two distinct
// names can never collide on the same id (§8 property 4: injective).
type closureIDAllocator struct {
	ids  map[string]int
	next int
}

func newClosureIDAllocator() *closureIDAllocator {
	return &closureIDAllocator{ids: make(map[string]int)}
}

func (a *closureIDAllocator) idFor(name string) int {
	if id, ok := a.ids[name]; ok {
		return id
	}
	id := a.next
	a.ids[name] = id
	a.next++
	return id
}
