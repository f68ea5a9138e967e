package simulation

var fantasyPointsTable = [...]int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}

// FantasyPoints returns the points awarded for a finishing position. Positions
// outside the top ten score nothing.
func FantasyPoints(position int) int {
	if position < 1 || position > len(fantasyPointsTable) {
		return 0
	}
	return fantasyPointsTable[position-1]
}
