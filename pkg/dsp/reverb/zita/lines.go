package zita

import "math"

// diffuser is a Schroeder allpass used at the head of each feedback path.
type diffuser struct {
	line []float32
	i    int
	c    float32
}

func (d *diffuser) init(size int, c float32) {
	d.line = make([]float32, size)
	d.i = 0
	d.c = c
}

func (d *diffuser) fini() {
	d.line = nil
}

func (d *diffuser) process(x float32) float32 {
	z := d.line[d.i]
	x -= d.c * z
	d.line[d.i] = x
	if d.i++; d.i == len(d.line) {
		d.i = 0
	}
	return z + d.c*x
}

// delay is a fixed-length circular delay line.
type delay struct {
	line []float32
	i    int
}

func (d *delay) init(size int) {
	d.line = make([]float32, size)
	d.i = 0
}

func (d *delay) fini() {
	d.line = nil
}

func (d *delay) read() float32 {
	return d.line[d.i]
}

func (d *delay) write(x float32) {
	d.line[d.i] = x
	if d.i++; d.i == len(d.line) {
		d.i = 0
	}
}

// vdelay is a delay line with an adjustable read offset, used for the
// pre-delay.
type vdelay struct {
	line []float32
	ir   int
	iw   int
}

func (d *vdelay) init(size int) {
	d.line = make([]float32, size)
	d.ir = 0
	d.iw = 0
}

func (d *vdelay) fini() {
	d.line = nil
}

func (d *vdelay) setDelay(n int) {
	if n >= len(d.line) {
		n = len(d.line) - 1
	}
	if n < 0 {
		n = 0
	}
	d.ir = d.iw - n
	if d.ir < 0 {
		d.ir += len(d.line)
	}
}

func (d *vdelay) read() float32 {
	x := d.line[d.ir]
	if d.ir++; d.ir == len(d.line) {
		d.ir = 0
	}
	return x
}

func (d *vdelay) write(x float32) {
	d.line[d.iw] = x
	if d.iw++; d.iw == len(d.line) {
		d.iw = 0
	}
}

// decayFilter sets the per-loop gain of one feedback path in two bands
// split at the crossover, plus high-frequency damping.
type decayFilter struct {
	gmf float32
	glo float32
	wlo float32
	whi float32
	slo float32
	shi float32
}

// setParams derives the filter from the loop delay del (seconds), the mid
// and low decay times, the crossover weight wlo, the high decay time thi and
// the damping shape chi.
func (f *decayFilter) setParams(del, tmf, tlo, wlo, thi, chi float64) {
	gmf := math.Pow(0.001, del/tmf)
	f.gmf = float32(gmf)
	f.glo = float32(math.Pow(0.001, del/tlo)/gmf - 1)
	f.wlo = float32(wlo)

	g := math.Pow(0.001, del/thi) / gmf
	t := (1 - g*g) / (2 * g * g * chi)
	f.whi = float32((math.Sqrt(1+4*t) - 1) / (2 * t))
}

func (f *decayFilter) reset() {
	f.slo = 0
	f.shi = 0
}

func (f *decayFilter) process(x float32) float32 {
	// The small offset keeps the low band state out of the denormal range.
	f.slo += f.wlo*(x-f.slo) + 1e-10
	x += f.glo * f.slo
	f.shi += f.whi * (x - f.shi)
	return f.gmf * f.shi
}
