// SPDX-License-Identifier: MIT

package sdb

import (
	"fmt"

	"github.com/katalvlaran/viscal/vis"
)

// List is the ordered set of buffers of one solution interval.
type List struct {
	bufs []*Buffer
}

// NewList returns an empty list.
func NewList() *List { return &List{} }

// FromVisBuffers builds one Buffer per visibility buffer with the given
// focus channel.
func FromVisBuffers(vbs []*vis.Buffer, focusChan int) (*List, error) {
	l := &List{bufs: make([]*Buffer, 0, len(vbs))}
	for i, vb := range vbs {
		b, err := New(vb, focusChan)
		if err != nil {
			return nil, fmt.Errorf("sdb.FromVisBuffers: buffer %d: %w", i, err)
		}
		l.bufs = append(l.bufs, b)
	}

	return l, nil
}

// Add appends b.
func (l *List) Add(b *Buffer) { l.bufs = append(l.bufs, b) }

// NSDB returns the number of buffers.
func (l *List) NSDB() int { return len(l.bufs) }

// At returns buffer i.
func (l *List) At(i int) *Buffer { return l.bufs[i] }

// Buffers returns the buffers in order; the slice must not be modified.
func (l *List) Buffers() []*Buffer { return l.bufs }

// NAnt returns the antenna count spanned by all buffers.
func (l *List) NAnt() int {
	n := 0
	for _, b := range l.bufs {
		n = max(n, b.NAnt())
	}

	return n
}

// NCorr returns the correlation count shared by the buffers.
func (l *List) NCorr() (int, error) {
	if len(l.bufs) == 0 {
		return 0, ErrEmptyList
	}

	return l.bufs[0].NCorr(), nil
}

// NWeighted counts the unflagged positive-weight cross-correlation
// elements across all buffers.
func (l *List) NWeighted() int {
	n := 0
	for _, b := range l.bufs {
		for row := 0; row < b.nRow; row++ {
			if b.flagRow[row] || b.ant1[row] == b.ant2[row] {
				continue
			}
			for ch := 0; ch < b.nChan; ch++ {
				for _, w := range b.wt.Cell(ch, row) {
					if w > 0 {
						n++
					}
				}
			}
		}
	}

	return n
}
