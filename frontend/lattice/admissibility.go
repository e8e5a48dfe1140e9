package lattice

import "strings"

// AdmissibilityInfo records which combinations of abstract parameter values
// a constructor admits. With Dim parameters there are 4^Dim entries; the
// abstract value of parameter k is bits 2k..2k+1 of the entry index.
// Parameters beyond Dim are unconstrained, so lookups wrap around.
type AdmissibilityInfo struct {
	Dim  int
	info []bool
}

func NewAdmissibilityInfo() AdmissibilityInfo {
	return AdmissibilityInfo{info: []bool{false}}
}

func (a *AdmissibilityInfo) SetAll(val bool) {
	a.Dim = 0
	a.info = []bool{val}
}

func (a *AdmissibilityInfo) ClearAll() {
	a.SetAll(false)
}

func (a *AdmissibilityInfo) ensure() {
	if len(a.info) == 0 {
		a.info = []bool{false}
	}
}

func (a *AdmissibilityInfo) Extend(dim int) {
	a.ensure()
	if a.Dim >= dim {
		return
	}
	n, n1 := len(a.info), 1<<(2*dim)
	grown := make([]bool, n1)
	copy(grown, a.info)
	for i := n; i < n1; i++ {
		grown[i] = grown[i-n]
	}
	a.info = grown
	a.Dim = dim
}

// Or admits everything other admits
func (a *AdmissibilityInfo) Or(other AdmissibilityInfo) {
	other.ensure()
	a.Extend(other.Dim)
	n1 := len(other.info)
	for i, j := 0, 0; i < len(a.info); i++ {
		a.info[i] = a.info[i] || other.info[j]
		j = (j + 1) & (n1 - 1)
	}
}

// SetByPattern admits every combination where parameter i has an abstract
// value in pattern[i], a bitmask over {0, 1, even>=2, odd>=3}
func (a *AdmissibilityInfo) SetByPattern(pattern []int) {
	a.Extend(len(pattern))
	for x := range a.info {
		y := x
		f := true
		for _, p := range pattern {
			if (p>>(y&3))&1 == 0 {
				f = false
				break
			}
			y >>= 2
		}
		if f {
			a.info[x] = true
		}
	}
}

// Get reports whether the combination i is admissible
func (a AdmissibilityInfo) Get(i int) bool {
	if len(a.info) == 0 {
		return false
	}
	return a.info[i&(len(a.info)-1)]
}

func (a AdmissibilityInfo) IsSetAll() bool {
	if len(a.info) == 0 {
		return false
	}
	for _, x := range a.info {
		if !x {
			return false
		}
	}
	return true
}

// ConflictsAt returns the first combination both a and other admit, or -1
func (a AdmissibilityInfo) ConflictsAt(other AdmissibilityInfo) int {
	n1, n2 := len(a.info), len(other.info)
	if n1 == 0 || n2 == 0 {
		return -1
	}
	n := max(n1, n2)
	for i := 0; i < n; i++ {
		if a.info[i&(n1-1)] && other.info[i&(n2-1)] {
			return i
		}
	}
	return -1
}

func (a AdmissibilityInfo) ConflictsWith(other AdmissibilityInfo) bool {
	return a.ConflictsAt(other) >= 0
}

// Extract1 projects onto parameter p1 and writes tag into every admitted cell of table.
// It fails, marking the cell with -1, when a cell already holds another tag.
func (a AdmissibilityInfo) Extract1(table *[4]int, tag int, p1 int) bool {
	var b [4]bool
	p1 <<= 1
	n := len(a.info) - 1
	for x := 0; x <= n; x++ {
		if a.info[x] {
			b[(x>>p1)&3] = true
		}
	}
	m1 := (n >> p1) & 3
	for i := 0; i < 4; i++ {
		if b[i&m1] {
			if table[i] != 0 && table[i] != tag {
				table[i] = -1
				return false
			}
			table[i] = tag
		}
	}
	return true
}

// Extract2 is Extract1 over two parameters
func (a AdmissibilityInfo) Extract2(table *[4][4]int, tag int, p1, p2 int) bool {
	var b [4][4]bool
	p1 <<= 1
	p2 <<= 1
	n := len(a.info) - 1
	for x := 0; x <= n; x++ {
		if a.info[x] {
			b[(x>>p1)&3][(x>>p2)&3] = true
		}
	}
	m1, m2 := (n>>p1)&3, (n>>p2)&3
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if b[i&m1][j&m2] {
				if table[i][j] != 0 && table[i][j] != tag {
					table[i][j] = -1
					return false
				}
				table[i][j] = tag
			}
		}
	}
	return true
}

// Extract3 is Extract1 over three parameters
func (a AdmissibilityInfo) Extract3(table *[4][4][4]int, tag int, p1, p2, p3 int) bool {
	var b [4][4][4]bool
	p1 <<= 1
	p2 <<= 1
	p3 <<= 1
	n := len(a.info) - 1
	for x := 0; x <= n; x++ {
		if a.info[x] {
			b[(x>>p1)&3][(x>>p2)&3][(x>>p3)&3] = true
		}
	}
	m1, m2, m3 := (n>>p1)&3, (n>>p2)&3, (n>>p3)&3
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				if b[i&m1][j&m2][k&m3] {
					if table[i][j][k] != 0 && table[i][j][k] != tag {
						table[i][j][k] = -1
						return false
					}
					table[i][j][k] = tag
				}
			}
		}
	}
	return true
}

// String renders the admissibility vector like [0110]
func (a AdmissibilityInfo) String() string {
	sb := strings.Builder{}
	sb.WriteByte('[')
	for _, x := range a.info {
		if x {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
