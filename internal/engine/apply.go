package engine

// ApplyMove returns the board after m. m must come from
// GenerateLegalMoves(b, m.Player); legality is not re-checked. The moving
// piece is lifted, every captured square is emptied in capture order, and the
// piece (promoted when m.IsPromotion) is placed on m.To. b is not modified.
func ApplyMove(b Board, m Move) Board {
	pc, ok := b.PieceAt(m.From)
	if !ok {
		return b
	}
	next := b
	next.clear(m.From)
	for _, c := range m.CapturedSquares {
		next.clear(c)
	}
	if m.IsPromotion {
		pc = pc.Promoted()
	}
	next.set(m.To, pc)
	return next
}
