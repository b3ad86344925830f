package city

import "github.com/talgya/gridcity/internal/catalog"

// Len returns the number of cells in the grid.
func (s *State) Len() int {
	return len(s.Cells)
}

// InBounds returns true if index addresses a cell.
func (s *State) InBounds(index int) bool {
	return index >= 0 && index < len(s.Cells)
}

// Index converts a column/row pair to a cell index, or -1 if off the grid.
func (s *State) Index(col, row int) int {
	if col < 0 || col >= s.Cols || row < 0 || row >= s.Rows {
		return -1
	}
	return row*s.Cols + col
}

// Coord converts a cell index back to its column and row.
func (s *State) Coord(index int) (col, row int) {
	return index % s.Cols, index / s.Cols
}

// KindCounts tallies the cells by building kind. Empty cells are included.
func (s *State) KindCounts() map[catalog.BuildingKind]int {
	counts := make(map[catalog.BuildingKind]int)
	for _, c := range s.Cells {
		counts[c.Kind]++
	}
	return counts
}

// Built returns the number of non-Empty cells.
func (s *State) Built() int {
	n := 0
	for _, c := range s.Cells {
		if c.Kind != catalog.KindEmpty {
			n++
		}
	}
	return n
}
