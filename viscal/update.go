// SPDX-License-Identifier: MIT

package viscal

import (
	"fmt"
	"math/cmplx"

	"github.com/katalvlaran/viscal/jones"
	"github.com/sirupsen/logrus"
)

// snrNoError is the SNR reported for an ok parameter with zero error.
const snrNoError = 9999999.0

// UpdatePar adds dpar to the in-focus parameters. Increments of parameters
// that are not ok are zeroed in dpar first.
func (t *Term) UpdatePar(dpar []complex128) error {
	par, ok := t.SolveCPar(), t.SolveParOK()
	if len(dpar) != len(par) {
		return fmt.Errorf("%s.UpdatePar: %d increments for %d parameters: %w", t.Name(), len(dpar), len(par), ErrParShape)
	}
	for i := range dpar {
		if !ok[i] {
			dpar[i] = 0
		}
		par[i] += dpar[i]
	}

	return nil
}

// ReReference rotates every antenna's gain phases so that refant's become
// zero, channel by channel and polarization by polarization. When refant is
// not ok in a channel, the first ok antenna is used instead; a channel
// without any ok antenna is left alone. Only Scalar and Diagonal terms
// carry a free phase; other layouts are unchanged.
// Complexity: O(nChanPar*nAnt*nPar).
func (t *Term) ReReference(refant int) error {
	if refant < 0 || refant >= t.nAnt {
		return fmt.Errorf("%s.ReReference(%d): %w", t.Name(), refant, ErrAntenna)
	}
	if t.kind.layout != jones.Scalar && t.kind.layout != jones.Diagonal {
		return nil
	}

	for ch := 0; ch < t.nChanPar; ch++ {
		ref := refant
		if !t.antOK(ch, ref) {
			ref = -1
			for a := 0; a < t.nAnt; a++ {
				if t.antOK(ch, a) {
					ref = a
					break
				}
			}
			if ref < 0 {
				continue
			}
			t.opts.log.WithFields(logrus.Fields{
				"term": t.Name(), "channel": ch, "refant": refant, "using": ref,
			}).Debug("reference antenna not ok, substituting")
		}

		for p := 0; p < t.nPar; p++ {
			r := t.par[(ch*t.nAnt+ref)*t.nPar+p]
			if r == 0 {
				continue
			}
			rot := cmplx.Conj(r) / complex(cmplx.Abs(r), 0)
			for a := 0; a < t.nAnt; a++ {
				i := (ch*t.nAnt+a)*t.nPar + p
				if t.parOK[i] {
					t.par[i] *= rot
				}
			}
		}
	}

	return nil
}

// FormSNR returns |par|/err for the in-focus parameters: 0 when not ok and
// 9999999 when the error is zero.
func (t *Term) FormSNR() []float64 {
	par, ok, perr := t.SolveCPar(), t.SolveParOK(), t.SolveParErr()
	snr := make([]float64, len(par))
	for i := range par {
		switch {
		case !ok[i]:
			snr[i] = 0
		case perr[i] > 0:
			snr[i] = cmplx.Abs(par[i]) / perr[i]
		default:
			snr[i] = snrNoError
		}
	}

	return snr
}

// ApplySNRThreshold marks in-focus parameters below the configured minimum
// SNR not ok and returns how many it flagged. A zero threshold does nothing.
func (t *Term) ApplySNRThreshold() int {
	if t.opts.minSNR <= 0 {
		return 0
	}
	ok := t.SolveParOK()
	n := 0
	for i, s := range t.FormSNR() {
		if ok[i] && s < t.opts.minSNR {
			ok[i] = false
			n++
		}
	}
	if n > 0 {
		t.opts.log.WithFields(logrus.Fields{
			"term": t.Name(), "flagged": n, "minsnr": t.opts.minSNR,
		}).Info("parameters below SNR threshold")
	}

	return n
}
