package lattice

// Abstract natural numbers live in the free semilattice over four classes:
// 0, 1, even >= 2 and odd >= 3, encoded as the bits 1, 2, 4 and 8.
// 0xf means any value, 0 means no value.
const (
	NatZero    = 1
	NatOne     = 2
	NatEven    = 4
	NatOdd     = 8
	NatAnyBits = 0xf
)

var (
	natAddBase    = [4][4]uint8{{0, 1, 2, 3}, {1, 2, 3, 2}, {2, 3, 2, 3}, {3, 2, 3, 2}}
	natMulBase    = [4][4]uint8{{0, 0, 0, 0}, {0, 1, 2, 3}, {0, 2, 2, 2}, {0, 3, 2, 3}}
	natGetBitBase = [4][4]uint8{{1, 1, 1, 1}, {2, 1, 1, 1}, {1, 3, 3, 3}, {2, 3, 3, 3}}

	natAddTable    = semilatTable(natAddBase, true)
	natMulTable    = semilatTable(natMulBase, true)
	natGetBitTable = semilatTable(natGetBitBase, false)
)

// semilatTable lifts base to sets of classes. When classes is set, base
// holds result classes; otherwise it already holds result sets.
func semilatTable(base [4][4]uint8, classes bool) (table [16][16]uint8) {
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			res := 0
			for i := 0; i < 4; i++ {
				if (x>>i)&1 == 0 {
					continue
				}
				for j := 0; j < 4; j++ {
					if (y>>j)&1 == 0 {
						continue
					}
					if classes {
						res |= 1 << base[i][j]
					} else {
						res |= int(base[i][j])
					}
				}
			}
			table[x][y] = uint8(res)
		}
	}
	return table
}

// NatConst is the abstract value of the constant v
func NatConst(v int) int {
	shift := v & 1
	if v >= 2 {
		shift += 2
	}
	return 1 << shift
}

func NatAdd(x, y int) int    { return int(natAddTable[x&15][y&15]) }
func NatMul(x, y int) int    { return int(natMulTable[x&15][y&15]) }
func NatGetBit(x, y int) int { return int(natGetBitTable[x&15][y&15]) }

// NatAbs maps a concrete value to its class index in 0..3
func NatAbs(v int) int {
	if v > 1 {
		return 2 + v&1
	}
	return v
}
