package forecast

import (
	"math"
	"math/rand"
)

// tensor is a parameter block with its gradient and Adam moment estimates.
type tensor struct {
	data []float64
	grad []float64
	m    []float64
	v    []float64
}

func newTensor(size int) *tensor {
	return &tensor{
		data: make([]float64, size),
		grad: make([]float64, size),
		m:    make([]float64, size),
		v:    make([]float64, size),
	}
}

// Gate indices for the recurrent cell.
const (
	gateInput = iota
	gateForget
	gateCell
	gateOutput
	gateCount
)

// lstmCell is one recurrent layer. Each gate weight is hid x (in+hid),
// row-major, applied to the concatenation [x_t ; h_{t-1}].
type lstmCell struct {
	in  int
	hid int
	w   [gateCount]*tensor
	b   [gateCount]*tensor
}

func newLSTMCell(in, hid int, rng *rand.Rand) *lstmCell {
	c := &lstmCell{in: in, hid: hid}
	scale := 1.0 / math.Sqrt(float64(in+hid))
	for g := 0; g < gateCount; g++ {
		c.w[g] = newTensor(hid * (in + hid))
		for i := range c.w[g].data {
			c.w[g].data[i] = (rng.Float64()*2 - 1) * scale
		}
		c.b[g] = newTensor(hid)
	}
	// Forget bias starts at 1 so early training does not wipe cell state.
	for i := range c.b[gateForget].data {
		c.b[gateForget].data[i] = 1
	}
	return c
}

func (c *lstmCell) tensors() []*tensor {
	out := make([]*tensor, 0, 2*gateCount)
	for g := 0; g < gateCount; g++ {
		out = append(out, c.w[g], c.b[g])
	}
	return out
}

// lstmStep caches one timestep's activations for backpropagation.
type lstmStep struct {
	z     []float64 // [x ; hPrev], length in+hid
	gates [gateCount][]float64
	cPrev []float64
	c     []float64
	tanhC []float64
	h     []float64
}

// forward runs the cell over a sequence, returning per-step hidden states
// and the caches backward needs.
func (c *lstmCell) forward(xs [][]float64) ([][]float64, []lstmStep) {
	T := len(xs)
	hs := make([][]float64, T)
	steps := make([]lstmStep, T)

	hPrev := make([]float64, c.hid)
	cPrev := make([]float64, c.hid)
	width := c.in + c.hid

	for t := 0; t < T; t++ {
		step := lstmStep{
			z:     make([]float64, width),
			cPrev: cPrev,
			c:     make([]float64, c.hid),
			tanhC: make([]float64, c.hid),
			h:     make([]float64, c.hid),
		}
		copy(step.z, xs[t])
		copy(step.z[c.in:], hPrev)

		for g := 0; g < gateCount; g++ {
			step.gates[g] = make([]float64, c.hid)
			w := c.w[g].data
			b := c.b[g].data
			for j := 0; j < c.hid; j++ {
				sum := b[j]
				row := w[j*width : (j+1)*width]
				for k, zv := range step.z {
					sum += row[k] * zv
				}
				if g == gateCell {
					step.gates[g][j] = math.Tanh(sum)
				} else {
					step.gates[g][j] = sigmoid(sum)
				}
			}
		}

		for j := 0; j < c.hid; j++ {
			step.c[j] = step.gates[gateForget][j]*cPrev[j] + step.gates[gateInput][j]*step.gates[gateCell][j]
			step.tanhC[j] = math.Tanh(step.c[j])
			step.h[j] = step.gates[gateOutput][j] * step.tanhC[j]
		}

		steps[t] = step
		hs[t] = step.h
		hPrev = step.h
		cPrev = step.c
	}
	return hs, steps
}

// backward propagates per-timestep upstream gradients dhs through the
// sequence, accumulating weight gradients and returning gradients w.r.t.
// the inputs.
func (c *lstmCell) backward(steps []lstmStep, dhs [][]float64) [][]float64 {
	T := len(steps)
	width := c.in + c.hid
	dxs := make([][]float64, T)

	dhNext := make([]float64, c.hid)
	dcNext := make([]float64, c.hid)
	var dGate [gateCount][]float64
	for g := 0; g < gateCount; g++ {
		dGate[g] = make([]float64, c.hid)
	}

	for t := T - 1; t >= 0; t-- {
		step := steps[t]
		for j := 0; j < c.hid; j++ {
			dh := dhNext[j]
			if dhs[t] != nil {
				dh += dhs[t][j]
			}
			o := step.gates[gateOutput][j]
			dc := dh*o*(1-step.tanhC[j]*step.tanhC[j]) + dcNext[j]

			i := step.gates[gateInput][j]
			f := step.gates[gateForget][j]
			g := step.gates[gateCell][j]

			dGate[gateOutput][j] = dh * step.tanhC[j] * o * (1 - o)
			dGate[gateInput][j] = dc * g * i * (1 - i)
			dGate[gateForget][j] = dc * step.cPrev[j] * f * (1 - f)
			dGate[gateCell][j] = dc * i * (1 - g*g)
			dcNext[j] = dc * f
		}

		dz := make([]float64, width)
		for g := 0; g < gateCount; g++ {
			w := c.w[g].data
			dw := c.w[g].grad
			db := c.b[g].grad
			for j := 0; j < c.hid; j++ {
				d := dGate[g][j]
				if d == 0 {
					continue
				}
				db[j] += d
				row := j * width
				for k := 0; k < width; k++ {
					dw[row+k] += d * step.z[k]
					dz[k] += w[row+k] * d
				}
			}
		}

		dxs[t] = dz[:c.in]
		copy(dhNext, dz[c.in:])
	}
	return dxs
}

// denseLayer is a fully connected layer, out x in.
type denseLayer struct {
	in  int
	out int
	w   *tensor
	b   *tensor
}

func newDenseLayer(in, out int, rng *rand.Rand) *denseLayer {
	d := &denseLayer{in: in, out: out, w: newTensor(out * in), b: newTensor(out)}
	scale := 1.0 / math.Sqrt(float64(in))
	for i := range d.w.data {
		d.w.data[i] = (rng.Float64()*2 - 1) * scale
	}
	return d
}

func (d *denseLayer) tensors() []*tensor { return []*tensor{d.w, d.b} }

func (d *denseLayer) forward(x []float64) []float64 {
	y := make([]float64, d.out)
	for j := 0; j < d.out; j++ {
		sum := d.b.data[j]
		row := d.w.data[j*d.in : (j+1)*d.in]
		for k, xv := range x {
			sum += row[k] * xv
		}
		y[j] = sum
	}
	return y
}

func (d *denseLayer) backward(x, dy []float64) []float64 {
	dx := make([]float64, d.in)
	for j := 0; j < d.out; j++ {
		g := dy[j]
		if g == 0 {
			continue
		}
		d.b.grad[j] += g
		row := j * d.in
		for k := 0; k < d.in; k++ {
			d.w.grad[row+k] += g * x[k]
			dx[k] += d.w.data[row+k] * g
		}
	}
	return dx
}

// lstmNetwork is the stacked sequence model: two recurrent layers with
// dropout between them, a relu projection, and a single linear output unit.
type lstmNetwork struct {
	features int
	dropout  float64

	l1 *lstmCell
	l2 *lstmCell
	d1 *denseLayer
	d2 *denseLayer

	rng *rand.Rand
	all []*tensor
}

func newLSTMNetwork(features, hidden1, hidden2, denseSize int, dropout float64, rng *rand.Rand) *lstmNetwork {
	n := &lstmNetwork{
		features: features,
		dropout:  dropout,
		l1:       newLSTMCell(features, hidden1, rng),
		l2:       newLSTMCell(hidden1, hidden2, rng),
		rng:      rng,
	}
	n.d1 = newDenseLayer(hidden2, denseSize, rng)
	n.d2 = newDenseLayer(denseSize, 1, rng)
	n.all = append(n.all, n.l1.tensors()...)
	n.all = append(n.all, n.l2.tensors()...)
	n.all = append(n.all, n.d1.tensors()...)
	n.all = append(n.all, n.d2.tensors()...)
	return n
}

// fwdCache holds everything backward needs for one example.
type fwdCache struct {
	steps1 []lstmStep
	mask1  [][]float64
	hs2In  [][]float64
	steps2 []lstmStep
	mask2  []float64
	h2     []float64 // post-dropout final hidden state
	a1     []float64 // relu output
	pred   float64
}

// forward runs one window. Dropout is applied only when training.
func (n *lstmNetwork) forward(window [][]float64, training bool) (float64, *fwdCache) {
	cache := &fwdCache{}

	hs1, steps1 := n.l1.forward(window)
	cache.steps1 = steps1

	if training && n.dropout > 0 {
		cache.mask1 = make([][]float64, len(hs1))
		dropped := make([][]float64, len(hs1))
		for t, h := range hs1 {
			mask, out := n.dropoutVector(h)
			cache.mask1[t] = mask
			dropped[t] = out
		}
		hs1 = dropped
	}
	cache.hs2In = hs1

	hs2, steps2 := n.l2.forward(hs1)
	cache.steps2 = steps2

	h2 := hs2[len(hs2)-1]
	if training && n.dropout > 0 {
		mask, out := n.dropoutVector(h2)
		cache.mask2 = mask
		h2 = out
	}
	cache.h2 = h2

	z1 := n.d1.forward(h2)
	for i, v := range z1 {
		if v < 0 {
			z1[i] = 0
		}
	}
	cache.a1 = z1

	out := n.d2.forward(z1)
	cache.pred = out[0]
	return cache.pred, cache
}

// backward accumulates gradients for one example given dLoss/dPred.
func (n *lstmNetwork) backward(cache *fwdCache, dPred float64) {
	da1 := n.d2.backward(cache.a1, []float64{dPred})
	for i := range da1 {
		if cache.a1[i] <= 0 {
			da1[i] = 0
		}
	}
	dh2 := n.d1.backward(cache.h2, da1)
	if cache.mask2 != nil {
		for i := range dh2 {
			dh2[i] *= cache.mask2[i]
		}
	}

	dhs2 := make([][]float64, len(cache.steps2))
	dhs2[len(dhs2)-1] = dh2
	dxs2 := n.l2.backward(cache.steps2, dhs2)

	if cache.mask1 != nil {
		for t := range dxs2 {
			for i := range dxs2[t] {
				dxs2[t][i] *= cache.mask1[t][i]
			}
		}
	}
	n.l1.backward(cache.steps1, dxs2)
}

// dropoutVector applies inverted dropout, returning the mask (already
// containing the 1/keep scaling) and the masked copy.
func (n *lstmNetwork) dropoutVector(h []float64) ([]float64, []float64) {
	keep := 1 - n.dropout
	mask := make([]float64, len(h))
	out := make([]float64, len(h))
	for i, v := range h {
		if n.rng.Float64() < keep {
			mask[i] = 1 / keep
			out[i] = v * mask[i]
		}
	}
	return mask, out
}

// snapshot copies all parameter values; restore writes them back. Used to
// keep the best validation-loss weights during early stopping.
func (n *lstmNetwork) snapshot() [][]float64 {
	out := make([][]float64, len(n.all))
	for i, t := range n.all {
		out[i] = append([]float64(nil), t.data...)
	}
	return out
}

func (n *lstmNetwork) restore(snap [][]float64) {
	for i, t := range n.all {
		copy(t.data, snap[i])
	}
}

// adam is the adaptive gradient optimizer used for training.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
}

func newAdam(lr float64) *adam {
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
}

// step applies one update using the accumulated gradients scaled by scale
// (1/batchSize), then clears them.
func (a *adam) step(tensors []*tensor, scale float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for _, t := range tensors {
		for i := range t.data {
			g := t.grad[i] * scale
			t.m[i] = a.beta1*t.m[i] + (1-a.beta1)*g
			t.v[i] = a.beta2*t.v[i] + (1-a.beta2)*g*g
			mHat := t.m[i] / c1
			vHat := t.v[i] / c2
			t.data[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
			t.grad[i] = 0
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
