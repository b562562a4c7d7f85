// Package cube provides the explicit array containers used by the
// calibration engine: visibility cubes, flag cubes, weight matrices and the
// five-axis derivative array produced while differentiating residuals.
//
// All containers store their elements in a single flat slice. The
// correlation axis varies fastest, followed by channel and row, so the
// correlations of one (channel,row) cell are contiguous and can be handed
// out as a sub-slice:
//
//	Complex / Bool / Float : [nCorr][nChan][nRow]
//	Deriv                  : [nCorr][nPar][nChan][nRow][2]
//	Matrix                 : [rows][cols] (row-major)
//
// Checked accessors (At/Set) return ErrOutOfRange instead of panicking;
// hot loops use Index/Data/Cell for unchecked access after validating shape
// once up front.
//
// Complexity:
//
//	At/Set/Index: O(1)
//	Fill/Clone/Sub/Add: O(n) over the element count
package cube
