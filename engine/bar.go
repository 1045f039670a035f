package engine

// BarRow mirrors Track's ctrl/led/status arrays over the 8-element bar1..bar8
// function set. Exactly one cell across all rows may be ON at a time.
type BarRow struct {
	Index  int
	status [barsPerRow]Status
}

// NewBarRow creates an empty bar-selector row.
func NewBarRow(index int) *BarRow {
	return &BarRow{Index: index}
}

// Status returns the status of column col (0-based).
func (r *BarRow) Status(col int) Status {
	return r.status[col]
}

// BarSelector owns all the bar-selector rows and the derived
// number-of-bars value.
type BarSelector struct {
	rows []*BarRow

	// updates is the scratch buffer Press fills and returns a slice of, so
	// a press never allocates on the realtime path.
	updates []barLEDUpdate
}

// NewBarSelector creates numRows empty bar-selector rows.
func NewBarSelector(numRows int) *BarSelector {
	bs := &BarSelector{
		rows:    make([]*BarRow, numRows),
		updates: make([]barLEDUpdate, 0, numRows*barsPerRow),
	}
	for i := range bs.rows {
		bs.rows[i] = NewBarRow(i)
	}
	return bs
}

// Rows returns the bar-selector rows.
func (bs *BarSelector) Rows() []*BarRow {
	return bs.rows
}

// NumberOfBars returns the bar count encoded by whichever cell is ON, or 0
// if none is.
func (bs *BarSelector) NumberOfBars() int {
	for _, r := range bs.rows {
		for col, st := range r.status {
			if st == StatusOn {
				return r.Index*barsPerRow + col + 1
			}
		}
	}
	return 0
}

// barLEDUpdate is one resulting LED change from a bar-row press, reported
// back to the caller so it can enqueue the corresponding request.
type barLEDUpdate struct {
	row, col int
	state    Status
}

// Press toggles the cell at (row, col), forces every other cell OFF, and
// returns every LED update that resulted (including the pressed cell
// itself). The returned slice is valid until the next Press.
func (bs *BarSelector) Press(row, col int) []barLEDUpdate {
	updates := bs.updates[:0]

	r := bs.rows[row]
	r.status[col] = NextStatus2(r.status[col])

	for _, other := range bs.rows {
		for c := range other.status {
			if other.Index == row && c == col {
				continue
			}
			other.status[c] = StatusOff
			updates = append(updates, barLEDUpdate{row: other.Index, col: c, state: StatusOff})
		}
	}

	updates = append(updates, barLEDUpdate{row: row, col: col, state: r.status[col]})
	return updates
}
