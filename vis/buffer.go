// SPDX-License-Identifier: MIT

package vis

import (
	"fmt"
	"sort"

	"github.com/katalvlaran/viscal/cube"
)

// Buffer is one chunk of visibility rows.
//
// The observed (VisCube), model (ModelVisCube) and corrected
// (CorrectedVisCube) cubes share the flag cube; weights and sigmas are held
// per row and correlation. All accessors return the live containers: the
// calibration terms transform them in place.
type Buffer struct {
	nCorr, nChan, nRow int

	spw   int
	ant1  []int
	ant2  []int
	time  []float64
	freq  []float64 // channel centre frequencies [Hz]
	corrs []Corr

	flagRow   []bool
	flagCube  *cube.Bool
	vis       *cube.Complex
	model     *cube.Complex
	corrected *cube.Complex // nil until first requested
	weight    *cube.Matrix  // [nRow][nCorr]
	sigma     *cube.Matrix  // [nRow][nCorr]

	perm []int // non-nil while correlations are sorted
}

// New allocates a buffer with unit sigmas and weights, zero cubes, no flags
// and the default linear correlation set for nCorr.
// Stage 1 (Validate): dimensions and correlation count.
// Stage 2 (Prepare): allocate cubes and metadata slices.
// Complexity: O(nCorr*nChan*nRow).
func New(nCorr, nChan, nRow int) (*Buffer, error) {
	if nCorr <= 0 || nChan <= 0 || nRow <= 0 {
		return nil, fmt.Errorf("vis.New(%d,%d,%d): %w", nCorr, nChan, nRow, ErrBadShape)
	}
	corrs, err := DefaultCorrs(nCorr)
	if err != nil {
		return nil, fmt.Errorf("vis.New: %w", err)
	}

	b := &Buffer{
		nCorr: nCorr, nChan: nChan, nRow: nRow,
		ant1:    make([]int, nRow),
		ant2:    make([]int, nRow),
		time:    make([]float64, nRow),
		freq:    make([]float64, nChan),
		corrs:   corrs,
		flagRow: make([]bool, nRow),
	}
	if b.flagCube, err = cube.NewBool(nCorr, nChan, nRow); err != nil {
		return nil, err
	}
	if b.vis, err = cube.NewComplex(nCorr, nChan, nRow); err != nil {
		return nil, err
	}
	if b.model, err = cube.NewComplex(nCorr, nChan, nRow); err != nil {
		return nil, err
	}
	if b.weight, err = cube.NewMatrix(nRow, nCorr); err != nil {
		return nil, err
	}
	if b.sigma, err = cube.NewMatrix(nRow, nCorr); err != nil {
		return nil, err
	}
	b.weight.Fill(1)
	b.sigma.Fill(1)

	return b, nil
}

// NCorr returns the number of correlations.
func (b *Buffer) NCorr() int { return b.nCorr }

// NChannel returns the number of channels.
func (b *Buffer) NChannel() int { return b.nChan }

// NRow returns the number of rows.
func (b *Buffer) NRow() int { return b.nRow }

// SpectralWindow returns the spectral window id.
func (b *Buffer) SpectralWindow() int { return b.spw }

// SetSpectralWindow assigns the spectral window id.
func (b *Buffer) SetSpectralWindow(spw int) { b.spw = spw }

// Antenna1 returns the first antenna of every row.
func (b *Buffer) Antenna1() []int { return b.ant1 }

// Antenna2 returns the second antenna of every row.
func (b *Buffer) Antenna2() []int { return b.ant2 }

// SetAntennas assigns the baseline antennas of every row.
func (b *Buffer) SetAntennas(ant1, ant2 []int) error {
	if len(ant1) != b.nRow || len(ant2) != b.nRow {
		return fmt.Errorf("Buffer.SetAntennas: %w", ErrBadLength)
	}
	for i := range ant1 {
		if ant1[i] < 0 || ant2[i] < 0 {
			return fmt.Errorf("Buffer.SetAntennas: row %d: %w", i, ErrBadAntenna)
		}
	}
	copy(b.ant1, ant1)
	copy(b.ant2, ant2)

	return nil
}

// NAnt returns one more than the largest antenna index referenced.
func (b *Buffer) NAnt() int {
	n := 0
	for i := 0; i < b.nRow; i++ {
		n = max(n, b.ant1[i]+1, b.ant2[i]+1)
	}

	return n
}

// Time returns the per-row timestamps (writable).
func (b *Buffer) Time() []float64 { return b.time }

// Frequency returns the channel frequencies (writable).
func (b *Buffer) Frequency() []float64 { return b.freq }

// CorrTypes returns the correlation types in their current order.
func (b *Buffer) CorrTypes() []Corr {
	out := make([]Corr, len(b.corrs))
	copy(out, b.corrs)

	return out
}

// SetCorrTypes declares the correlation order of the stored cubes.
func (b *Buffer) SetCorrTypes(cs []Corr) error {
	if len(cs) != b.nCorr {
		return fmt.Errorf("Buffer.SetCorrTypes: %w", ErrBadLength)
	}
	if err := validateCorrs(cs); err != nil {
		return fmt.Errorf("Buffer.SetCorrTypes: %w", err)
	}
	copy(b.corrs, cs)

	return nil
}

// FlagRow returns the per-row flags (writable).
func (b *Buffer) FlagRow() []bool { return b.flagRow }

// FlagCube returns the per-element flags.
func (b *Buffer) FlagCube() *cube.Bool { return b.flagCube }

// VisCube returns the observed data cube.
func (b *Buffer) VisCube() *cube.Complex { return b.vis }

// ModelVisCube returns the model data cube.
func (b *Buffer) ModelVisCube() *cube.Complex { return b.model }

// CorrectedVisCube returns the corrected data cube, initialising it from
// the observed data on first use.
func (b *Buffer) CorrectedVisCube() *cube.Complex {
	if b.corrected == nil {
		b.corrected = b.vis.Clone()
	}

	return b.corrected
}

// WeightMat returns the [nRow][nCorr] weights.
func (b *Buffer) WeightMat() *cube.Matrix { return b.weight }

// Sigma returns the [nRow][nCorr] per-visibility noise.
func (b *Buffer) Sigma() *cube.Matrix { return b.sigma }

// ResetWeightMat recomputes weights as 1/sigma²; non-positive sigma gives
// zero weight.
func (b *Buffer) ResetWeightMat() {
	w, s := b.weight.Data(), b.sigma.Data()
	for i := range w {
		if s[i] > 0 {
			w[i] = 1 / (s[i] * s[i])
		} else {
			w[i] = 0
		}
	}
}

// Sorted reports whether correlations are currently in canonical order via
// SortCorr.
func (b *Buffer) Sorted() bool { return b.perm != nil }

// SortCorr permutes every correlation-indexed container into canonical
// order. Calling it on an already sorted buffer is a no-op.
// Complexity: O(nCorr*nChan*nRow).
func (b *Buffer) SortCorr() {
	if b.perm != nil {
		return
	}
	perm := make([]int, b.nCorr)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return b.corrs[perm[i]].rank() < b.corrs[perm[j]].rank()
	})
	b.permute(perm, false)
	b.perm = perm
}

// UnSortCorr restores the correlation order seen before SortCorr.
func (b *Buffer) UnSortCorr() {
	if b.perm == nil {
		return
	}
	b.permute(b.perm, true)
	b.perm = nil
}

// permute applies perm (dst[i] = src[perm[i]]) or its inverse to every
// correlation axis.
func (b *Buffer) permute(perm []int, inverse bool) {
	cTmp := make([]complex128, b.nCorr)
	fTmp := make([]bool, b.nCorr)
	rTmp := make([]float64, b.nCorr)
	for row := 0; row < b.nRow; row++ {
		for ch := 0; ch < b.nChan; ch++ {
			permuteSlice(b.vis.Cell(ch, row), cTmp, perm, inverse)
			permuteSlice(b.model.Cell(ch, row), cTmp, perm, inverse)
			if b.corrected != nil {
				permuteSlice(b.corrected.Cell(ch, row), cTmp, perm, inverse)
			}
			permuteSlice(b.flagCube.Cell(ch, row), fTmp, perm, inverse)
		}
		permuteSlice(b.weight.Row(row), rTmp, perm, inverse)
		permuteSlice(b.sigma.Row(row), rTmp, perm, inverse)
	}
	permuteSlice(b.corrs, make([]Corr, b.nCorr), perm, inverse)
}

func permuteSlice[T any](s, tmp []T, perm []int, inverse bool) {
	copy(tmp, s)
	for i, p := range perm {
		if inverse {
			s[p] = tmp[i]
		} else {
			s[i] = tmp[p]
		}
	}
}

// FreqAveCubes averages the observed, model and corrected cubes over
// channels, leaving a single channel. Each output element is the mean of
// its unflagged inputs; when every input is flagged the plain mean is kept
// and the element stays flagged. The channel frequency becomes the mean
// frequency. A single-channel buffer is left untouched.
// Complexity: O(nCorr*nChan*nRow).
func (b *Buffer) FreqAveCubes() error {
	if b.nChan == 1 {
		return nil
	}

	flags, err := cube.NewBool(b.nCorr, 1, b.nRow)
	if err != nil {
		return err
	}
	vis, err := b.aveCube(b.vis, flags)
	if err != nil {
		return err
	}
	model, err := b.aveCube(b.model, nil)
	if err != nil {
		return err
	}
	if b.corrected != nil {
		if b.corrected, err = b.aveCube(b.corrected, nil); err != nil {
			return err
		}
	}

	fsum := 0.0
	for _, f := range b.freq {
		fsum += f
	}
	b.freq = []float64{fsum / float64(b.nChan)}
	b.vis, b.model, b.flagCube = vis, model, flags
	b.nChan = 1

	return nil
}

// aveCube averages c over channels using the current flag cube; when out
// flags are given they receive the "all inputs flagged" result.
func (b *Buffer) aveCube(c *cube.Complex, outFlags *cube.Bool) (*cube.Complex, error) {
	out, err := cube.NewComplex(b.nCorr, 1, b.nRow)
	if err != nil {
		return nil, err
	}
	for row := 0; row < b.nRow; row++ {
		for corr := 0; corr < b.nCorr; corr++ {
			var good, all complex128
			n := 0
			for ch := 0; ch < b.nChan; ch++ {
				v := c.Data()[c.Index(corr, ch, row)]
				all += v
				if !b.flagCube.Data()[b.flagCube.Index(corr, ch, row)] {
					good += v
					n++
				}
			}
			idx := out.Index(corr, 0, row)
			if n > 0 {
				out.Data()[idx] = good / complex(float64(n), 0)
			} else {
				out.Data()[idx] = all / complex(float64(b.nChan), 0)
			}
			if outFlags != nil {
				outFlags.Data()[idx] = n == 0
			}
		}
	}

	return out, nil
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		nCorr: b.nCorr, nChan: b.nChan, nRow: b.nRow,
		spw:      b.spw,
		ant1:     append([]int(nil), b.ant1...),
		ant2:     append([]int(nil), b.ant2...),
		time:     append([]float64(nil), b.time...),
		freq:     append([]float64(nil), b.freq...),
		corrs:    append([]Corr(nil), b.corrs...),
		flagRow:  append([]bool(nil), b.flagRow...),
		flagCube: b.flagCube.Clone(),
		vis:      b.vis.Clone(),
		model:    b.model.Clone(),
		weight:   b.weight.Clone(),
		sigma:    b.sigma.Clone(),
	}
	if b.corrected != nil {
		c.corrected = b.corrected.Clone()
	}
	if b.perm != nil {
		c.perm = append([]int(nil), b.perm...)
	}

	return c
}

// String implements fmt.Stringer.
func (b *Buffer) String() string {
	return fmt.Sprintf("vis.Buffer{spw=%d corr=%v nChan=%d nRow=%d nAnt=%d}",
		b.spw, b.corrs, b.nChan, b.nRow, b.NAnt())
}
