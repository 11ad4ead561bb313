package engine

// GenerateLegalMoves enumerates every legal move for player. Capturing is
// mandatory: when any piece can jump, only maximal capture chains are
// returned, every branch of them, not just the longest. The board is never
// modified. An empty result means player cannot move.
func GenerateLegalMoves(b Board, player Color) []Move {
	pieces := b.Pieces()

	captures := make([]Move, 0)
	for _, pl := range pieces {
		if pl.Piece.Color != player {
			continue
		}
		captures = append(captures, captureMoves(b, pl.Position, pl.Piece)...)
	}
	if len(captures) > 0 {
		return captures
	}

	moves := make([]Move, 0)
	for _, pl := range pieces {
		if pl.Piece.Color != player {
			continue
		}
		moves = append(moves, simpleMoves(b, pl.Position, pl.Piece)...)
	}
	return moves
}

// LegalMovesFrom filters GenerateLegalMoves to one origin square. Mandatory
// capture still applies board-wide.
func LegalMovesFrom(b Board, player Color, from Position) []Move {
	out := make([]Move, 0)
	for _, m := range GenerateLegalMoves(b, player) {
		if m.From == from {
			out = append(out, m)
		}
	}
	return out
}

// HasCapture reports whether player has any capture on b.
func HasCapture(b Board, player Color) bool {
	for _, pl := range b.Pieces() {
		if pl.Piece.Color != player {
			continue
		}
		work := b.Without(pl.Position)
		if len(jumps(work, pl.Position, pl.Piece, visitedSet(0).add(pl.Position))) > 0 {
			return true
		}
	}
	return false
}

func simpleMoves(b Board, from Position, pc Piece) []Move {
	var out []Move
	for _, d := range pc.directions() {
		to, ok := from.step(d)
		for ok && b.IsEmpty(to) {
			out = append(out, Move{
				Player:      pc.Color,
				From:        from,
				To:          to,
				IsPromotion: promotes(pc, to),
				Notation:    Notation(from, to, nil),
			})
			if pc.Type != King {
				break
			}
			to, ok = to.step(d)
		}
	}
	return out
}

// jump is one capture step: the victim square and where the piece lands.
type jump struct {
	victim  Position
	landing Position
}

// visitedSet is a bitmask of squares already stood on during one chain.
type visitedSet uint32

func (v visitedSet) add(p Position) visitedSet {
	return v | 1<<uint(p.index())
}

func (v visitedSet) has(p Position) bool {
	return v&(1<<uint(p.index())) != 0
}

// jumps lists the captures available to pc standing on at. b must already
// have the moving piece lifted off its origin and earlier victims removed.
func jumps(b Board, at Position, pc Piece, visited visitedSet) []jump {
	var out []jump
	for _, d := range pc.directions() {
		if pc.Type == Man {
			over, ok := at.step(d)
			if !ok {
				continue
			}
			victim, occupied := b.PieceAt(over)
			if !occupied || victim.Color == pc.Color {
				continue
			}
			landing, ok := over.step(d)
			if !ok || !b.IsEmpty(landing) || visited.has(landing) {
				continue
			}
			out = append(out, jump{victim: over, landing: landing})
			continue
		}

		// Flying king: slide to the first occupied square, then every empty
		// square behind an opposing piece is a separate landing.
		over, ok := at.step(d)
		for ok && b.IsEmpty(over) {
			over, ok = over.step(d)
		}
		if !ok {
			continue
		}
		victim, _ := b.PieceAt(over)
		if victim.Color == pc.Color {
			continue
		}
		landing, ok := over.step(d)
		for ok && b.IsEmpty(landing) {
			if !visited.has(landing) {
				out = append(out, jump{victim: over, landing: landing})
			}
			landing, ok = landing.step(d)
		}
	}
	return out
}

// chain is one maximal capture route.
type chain struct {
	landings []Position
	victims  []Position
}

// searchChains walks the capture tree from at. Each call gets its own board
// copy and its own slices, so branches never share state.
func searchChains(b Board, at Position, pc Piece, visited visitedSet, landings, victims []Position) []chain {
	var out []chain
	for _, j := range jumps(b, at, pc, visited) {
		nextLandings := append(append(make([]Position, 0, len(landings)+1), landings...), j.landing)
		nextVictims := append(append(make([]Position, 0, len(victims)+1), victims...), j.victim)

		further := searchChains(b.Without(j.victim), j.landing, pc, visited.add(j.landing), nextLandings, nextVictims)
		if len(further) == 0 {
			out = append(out, chain{landings: nextLandings, victims: nextVictims})
			continue
		}
		out = append(out, further...)
	}
	return out
}

func captureMoves(b Board, from Position, pc Piece) []Move {
	chains := searchChains(b.Without(from), from, pc, visitedSet(0).add(from), nil, nil)
	if len(chains) == 0 {
		return nil
	}

	out := make([]Move, 0, len(chains))
	seen := make(map[string]bool, len(chains))
	for _, c := range chains {
		to := c.landings[len(c.landings)-1]
		notation := Notation(from, to, c.victims)
		// Distinct king landings can yield the same jumped pieces and the
		// same destination; those are one move.
		if seen[notation] {
			continue
		}
		seen[notation] = true
		out = append(out, Move{
			Player:          pc.Color,
			From:            from,
			To:              to,
			CapturedSquares: c.victims,
			Path:            c.landings,
			IsPromotion:     promotes(pc, to),
			Notation:        notation,
		})
	}
	return out
}

func promotes(pc Piece, to Position) bool {
	return pc.Type == Man && to.Row() == pc.Color.PromotionRow()
}
