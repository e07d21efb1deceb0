package combin

// Product enumerates the cartesian product of index ranges [0, sizes[i]).
//
// Tuples are produced in lexicographic order with the last position advancing
// fastest. The product of zero ranges holds exactly one, empty, tuple. If any
// range is empty the product is empty.
//
// A Product is not safe for concurrent use.
//
// Example:
//
//	p := NewProduct([]int{2, 3})
//	for p.Next() {
//	    fmt.Println(p.Indices()) // [0 0] [0 1] [0 2] [1 0] ...
//	}
type Product struct {
	sizes   []int
	indices []int
	started bool
	done    bool
}

// NewProduct creates a product over the given range sizes.
func NewProduct(sizes []int) *Product {
	p := &Product{
		sizes:   append([]int(nil), sizes...),
		indices: make([]int, len(sizes)),
	}
	p.Reset()

	return p
}

// Len returns the total number of tuples.
func (p *Product) Len() int {
	n := 1
	for _, s := range p.sizes {
		if s <= 0 {
			return 0
		}
		n *= s
	}

	return n
}

// Next advances to the next tuple and reports whether one exists.
func (p *Product) Next() bool {
	if p.done {
		return false
	}
	if !p.started {
		p.started = true
		return true
	}

	for i := len(p.indices) - 1; i >= 0; i-- {
		p.indices[i]++
		if p.indices[i] < p.sizes[i] {
			return true
		}
		p.indices[i] = 0
	}
	p.done = true

	return false
}

// Indices returns the current tuple. The slice is reused by Next; copy it to
// retain it.
func (p *Product) Indices() []int {
	return p.indices
}

// Reset rewinds the product to before its first tuple.
func (p *Product) Reset() {
	clear(p.indices)
	p.started = false
	p.done = p.Len() == 0
}
