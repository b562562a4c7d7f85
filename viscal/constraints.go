// SPDX-License-Identifier: MIT

package viscal

import (
	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// VerifyConstraints checks that every antenna has at least MinBlPerAnt
// weighted baselines.
// Stage 1 (Accumulate): per-baseline weight sums over all buffers.
// Stage 2 (Eliminate): repeatedly drop the first antenna with too few
// baselines and rescan, since each elimination removes baselines from
// its partners.
// Stage 3 (Mark): in-focus parameters of survivors are ok, all others not.
// Complexity: O(rows*nChan*nCorr + nAnt³) worst case.
func (t *Term) VerifyConstraints(sdbs *sdb.List) bool {
	blwtsum, err := cube.NewMatrix(t.nAnt, t.nAnt)
	if err != nil {
		return false
	}

	for _, sb := range sdbs.Buffers() {
		a1, a2 := sb.Antenna1(), sb.Antenna2()
		wt := sb.InfocusWtSpec()
		for row := 0; row < sb.NRow(); row++ {
			if sb.FlagRow()[row] || a1[row] == a2[row] || a1[row] >= t.nAnt || a2[row] >= t.nAnt {
				continue
			}
			w := 0.0
			for ch := 0; ch < sb.NChannel(); ch++ {
				w += floats.Sum(wt.Cell(ch, row))
			}
			if w > 0 {
				blwtsum.Row(a1[row])[a2[row]] += w
				blwtsum.Row(a2[row])[a1[row]] += w
			}
		}
	}

	minbl := t.opts.minBlPerAnt
	for restart := true; restart; {
		restart = false
		for a := 0; a < t.nAnt; a++ {
			if n := countBaselines(blwtsum, a); n > 0 && n < minbl {
				t.opts.log.WithFields(logrus.Fields{
					"term": t.Name(), "antenna": a, "baselines": n, "minblperant": minbl,
				}).Debug("eliminating under-constrained antenna")
				blwtsum.ZeroRowCol(a)
				restart = true
				break
			}
		}
	}

	ok := t.SolveParOK()
	survivors := 0
	for a := 0; a < t.nAnt; a++ {
		good := countBaselines(blwtsum, a) >= minbl
		if good {
			survivors++
		}
		for p := 0; p < t.nPar; p++ {
			ok[a*t.nPar+p] = good
		}
	}

	return survivors > 0
}

// countBaselines counts antenna a's baselines with positive weight.
func countBaselines(m *cube.Matrix, a int) int {
	n := 0
	for _, w := range m.Row(a) {
		if w > 0 {
			n++
		}
	}

	return n
}
