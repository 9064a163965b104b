package bustest

import "sync"

// Registers simulates a device with an auto-incrementing register pointer. A
// write sets the pointer to w[0] and stores the remaining bytes from there; a
// read returns memory starting at the pointer.
type Registers struct {
	// OnWrite, if set, is called for every stored byte after it is written.
	OnWrite func(reg, val byte)

	mx      sync.Mutex
	mem     [256]byte
	pointer byte
	writes  map[byte]int
}

func NewRegisters() *Registers {
	return &Registers{writes: make(map[byte]int)}
}

func (d *Registers) Set(reg byte, vals ...byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	for i, v := range vals {
		d.mem[reg+byte(i)] = v
	}
}

func (d *Registers) Get(reg byte) byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.mem[reg]
}

// Writes returns how many times reg was written.
func (d *Registers) Writes(reg byte) int {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.writes[reg]
}

func (d *Registers) Respond(w, r []byte) error {
	var hooks [][2]byte
	d.mx.Lock()
	if len(w) > 0 {
		d.pointer = w[0]
		for i, v := range w[1:] {
			reg := w[0] + byte(i)
			d.mem[reg] = v
			d.writes[reg]++
			hooks = append(hooks, [2]byte{reg, v})
		}
	}
	for i := range r {
		r[i] = d.mem[d.pointer+byte(i)]
	}
	onWrite := d.OnWrite
	d.mx.Unlock()
	if onWrite != nil {
		for _, h := range hooks {
			onWrite(h[0], h[1])
		}
	}
	return nil
}
