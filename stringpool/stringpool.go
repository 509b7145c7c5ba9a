// Package stringpool interns byte strings produced during a scan (e.g.
// module output strings) so match data can be referenced by a small id
// instead of copied repeatedly.
package stringpool

// Id identifies an interned string within a Pool.
type Id int

// Pool is a capacity-retaining intern table. It is owned by exactly one
// scanner.Context and is never accessed concurrently, per the single-owner
// scan model.
type Pool struct {
	data []byte
	offs []int // offs[i] is the start offset of string i; offs[i+1]-offs[i] is its length, with a trailing sentinel
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{offs: []int{0}}
}

// Intern copies b into the pool and returns its id.
func (p *Pool) Intern(b []byte) Id {
	id := Id(len(p.offs) - 1)
	p.data = append(p.data, b...)
	p.offs = append(p.offs, len(p.data))
	return id
}

// Get returns the interned bytes for id.
func (p *Pool) Get(id Id) []byte {
	i := int(id)
	return p.data[p.offs[i]:p.offs[i+1]]
}

// Size returns the number of bytes currently held by the pool.
func (p *Pool) Size() int {
	return len(p.data)
}

// Reset clears the pool, preserving its backing capacity.
func (p *Pool) Reset() {
	p.data = p.data[:0]
	p.offs = p.offs[:1]
}
