// SPDX-License-Identifier: MIT

package viscal

import (
	"fmt"

	"github.com/katalvlaran/viscal/jones"
)

// kind describes one standard antenna-based Jones term.
type kind struct {
	layout  jones.Type
	freqDep bool
}

var kinds = map[Type]kind{
	G: {layout: jones.Diagonal},
	T: {layout: jones.Scalar},
	B: {layout: jones.Diagonal, freqDep: true},
	D: {layout: jones.GenLinear},
	J: {layout: jones.General},
}

// Term is a standard antenna-based Jones term that can be applied and
// solved for. It is not safe for concurrent use; Clone it per goroutine.
type Term struct {
	typ  Type
	kind kind
	opts Options

	nAnt     int
	nPar     int
	nChanPar int
	focus    int

	par    []complex128 // [nChanPar][nAnt][nPar]
	parOK  []bool
	parErr []float64

	badSpw map[int]bool
	dJ     []mat2 // ∂J/∂p per parameter, constant for the layout
}

// New creates a standard term of type typ with identity parameters, all ok.
// nChanPar is the number of parameter channels; it must be 1 for terms that
// are not frequency dependent.
// Stage 1 (Validate): type, antenna and channel counts.
// Stage 2 (Prepare): allocate [nChanPar][nAnt][nPar] storage at identity.
// Complexity: O(nChanPar*nAnt*nPar).
func New(typ Type, nAnt, nChanPar int, opts ...Option) (*Term, error) {
	k, ok := kinds[typ]
	if !ok {
		return nil, fmt.Errorf("viscal.New(%v): %w", typ, ErrUnknownType)
	}
	if nAnt < 1 {
		return nil, fmt.Errorf("viscal.New(%v, nAnt=%d): %w", typ, nAnt, ErrAntenna)
	}
	if nChanPar < 1 || (!k.freqDep && nChanPar != 1) {
		return nil, fmt.Errorf("viscal.New(%v, nChanPar=%d): %w", typ, nChanPar, ErrChannel)
	}

	nPar := k.layout.NStored()
	n := nChanPar * nAnt * nPar
	t := &Term{
		typ:      typ,
		kind:     k,
		opts:     gatherOptions(opts...),
		nAnt:     nAnt,
		nPar:     nPar,
		nChanPar: nChanPar,
		par:      make([]complex128, n),
		parOK:    make([]bool, n),
		parErr:   make([]float64, n),
		dJ:       parDerivs(k.layout),
	}
	t.Reset()

	return t, nil
}

// NewG creates an electronic gain term.
func NewG(nAnt int, opts ...Option) (*Term, error) { return New(G, nAnt, 1, opts...) }

// NewT creates a polarization-independent gain term.
func NewT(nAnt int, opts ...Option) (*Term, error) { return New(T, nAnt, 1, opts...) }

// NewB creates a bandpass term with nChan parameter channels.
func NewB(nAnt, nChan int, opts ...Option) (*Term, error) { return New(B, nAnt, nChan, opts...) }

// NewD creates a polarization leakage term.
func NewD(nAnt int, opts ...Option) (*Term, error) { return New(D, nAnt, 1, opts...) }

// NewJ creates a full-matrix term.
func NewJ(nAnt int, opts ...Option) (*Term, error) { return New(J, nAnt, 1, opts...) }

// Reset sets every parameter to identity, ok, with zero error.
func (t *Term) Reset() {
	id := jones.MustNew(t.kind.layout).Values()
	for i := range t.par {
		t.par[i] = id[i%t.nPar]
		t.parOK[i] = true
		t.parErr[i] = 0
	}
}

// Name returns the display name.
func (t *Term) Name() string {
	if t.opts.name != "" {
		return t.opts.name
	}

	return t.typ.String() + " Jones"
}

// Type returns the term's position in the equation.
func (t *Term) Type() Type { return t.typ }

// JonesType returns the matrix layout.
func (t *Term) JonesType() jones.Type { return t.kind.layout }

// SpwOK reports whether spw has not been disabled via SetSpwOK.
func (t *Term) SpwOK(spw int) bool { return !t.badSpw[spw] }

// SetSpwOK enables or disables a spectral window.
func (t *Term) SetSpwOK(spw int, ok bool) {
	if t.badSpw == nil {
		t.badSpw = make(map[int]bool)
	}
	t.badSpw[spw] = !ok
}

// FreqDepMat reports whether the applied matrices vary with channel.
func (t *Term) FreqDepMat() bool { return t.kind.freqDep }

// FreqDepPar reports whether the parameters vary with channel.
func (t *Term) FreqDepPar() bool { return t.kind.freqDep }

// NAnt returns the antenna count.
func (t *Term) NAnt() int { return t.nAnt }

// NPar returns the parameter count per antenna.
func (t *Term) NPar() int { return t.nPar }

// NChanPar returns the number of parameter channels.
func (t *Term) NChanPar() int { return t.nChanPar }

// NTotalPar returns the parameter count of one solve.
func (t *Term) NTotalPar() int { return t.nAnt * t.nPar }

// SolvePol returns the polarization solve mode.
func (t *Term) SolvePol() int { return t.opts.solvePol }

// RefAnt returns the configured reference antenna (-1 when unset).
func (t *Term) RefAnt() int { return t.opts.refAnt }

// MinBlPerAnt returns the baseline threshold of VerifyConstraints.
func (t *Term) MinBlPerAnt() int { return t.opts.minBlPerAnt }

// FocusChan returns the parameter channel being solved.
func (t *Term) FocusChan() int { return t.focus }

// SetFocusChan selects the parameter channel block exposed to the solver.
func (t *Term) SetFocusChan(ch int) error {
	if ch < 0 || ch >= t.nChanPar {
		return fmt.Errorf("Term.SetFocusChan(%d): %w", ch, ErrChannel)
	}
	t.focus = ch

	return nil
}

// block returns the [lo,hi) range of parameter channel ch.
func (t *Term) block(ch int) (int, int) {
	n := t.nAnt * t.nPar
	return ch * n, (ch + 1) * n
}

// SolveCPar aliases the in-focus parameter block.
func (t *Term) SolveCPar() []complex128 {
	lo, hi := t.block(t.focus)
	return t.par[lo:hi:hi]
}

// SolveParOK aliases the in-focus ok flags.
func (t *Term) SolveParOK() []bool {
	lo, hi := t.block(t.focus)
	return t.parOK[lo:hi:hi]
}

// SolveParErr aliases the in-focus parameter errors.
func (t *Term) SolveParErr() []float64 {
	lo, hi := t.block(t.focus)
	return t.parErr[lo:hi:hi]
}

// antRange returns the [lo,hi) parameter range of antenna ant in channel ch.
func (t *Term) antRange(ch, ant int) (int, int, error) {
	if ch < 0 || ch >= t.nChanPar {
		return 0, 0, fmt.Errorf("channel %d: %w", ch, ErrChannel)
	}
	if ant < 0 || ant >= t.nAnt {
		return 0, 0, fmt.Errorf("antenna %d: %w", ant, ErrAntenna)
	}
	lo := (ch*t.nAnt + ant) * t.nPar

	return lo, lo + t.nPar, nil
}

// Par returns the parameters of ant in channel ch (aliases storage).
func (t *Term) Par(ch, ant int) ([]complex128, error) {
	lo, hi, err := t.antRange(ch, ant)
	if err != nil {
		return nil, fmt.Errorf("Term.Par: %w", err)
	}

	return t.par[lo:hi:hi], nil
}

// ParOK returns the ok flags of ant in channel ch (aliases storage).
func (t *Term) ParOK(ch, ant int) ([]bool, error) {
	lo, hi, err := t.antRange(ch, ant)
	if err != nil {
		return nil, fmt.Errorf("Term.ParOK: %w", err)
	}

	return t.parOK[lo:hi:hi], nil
}

// ParErr returns the parameter errors of ant in channel ch (aliases storage).
func (t *Term) ParErr(ch, ant int) ([]float64, error) {
	lo, hi, err := t.antRange(ch, ant)
	if err != nil {
		return nil, fmt.Errorf("Term.ParErr: %w", err)
	}

	return t.parErr[lo:hi:hi], nil
}

// SetPar loads the parameters of ant in channel ch and marks them ok.
func (t *Term) SetPar(ch, ant int, vals []complex128) error {
	lo, hi, err := t.antRange(ch, ant)
	if err != nil {
		return fmt.Errorf("Term.SetPar: %w", err)
	}
	if len(vals) != t.nPar {
		return fmt.Errorf("Term.SetPar: %d values for %d parameters: %w", len(vals), t.nPar, ErrParShape)
	}
	copy(t.par[lo:hi], vals)
	for i := lo; i < hi; i++ {
		t.parOK[i] = true
	}

	return nil
}

// antOK reports whether every parameter of ant in channel ch is ok.
func (t *Term) antOK(ch, ant int) bool {
	lo := (ch*t.nAnt + ant) * t.nPar
	for i := lo; i < lo+t.nPar; i++ {
		if !t.parOK[i] {
			return false
		}
	}

	return true
}

// jonesFor builds one Jones matrix per antenna from parameter channel ch.
func (t *Term) jonesFor(ch int) []*jones.Jones {
	js := make([]*jones.Jones, t.nAnt)
	for a := range js {
		lo := (ch*t.nAnt + a) * t.nPar
		js[a] = jones.MustNew(t.kind.layout)
		// lengths match the layout by construction
		_ = js[a].Set(t.par[lo:lo+t.nPar], t.parOK[lo:lo+t.nPar])
	}

	return js
}

// Clone returns an independent copy sharing only the logger.
func (t *Term) Clone() *Term {
	c := *t
	c.par = append([]complex128(nil), t.par...)
	c.parOK = append([]bool(nil), t.parOK...)
	c.parErr = append([]float64(nil), t.parErr...)
	if t.badSpw != nil {
		c.badSpw = make(map[int]bool, len(t.badSpw))
		for k, v := range t.badSpw {
			c.badSpw[k] = v
		}
	}

	return &c
}

// String implements fmt.Stringer.
func (t *Term) String() string {
	return fmt.Sprintf("%s{%v nAnt=%d nPar=%d nChanPar=%d focus=%d}",
		t.Name(), t.kind.layout, t.nAnt, t.nPar, t.nChanPar, t.focus)
}
