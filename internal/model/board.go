package model

import "github.com/drafti/drafti-backend/internal/engine"

// Square is one dark square of the board payload. Row and Col are given so
// clients need not know the numbering.
type Square struct {
	Position engine.Position `json:"position"`
	Row      int             `json:"row"`
	Col      int             `json:"col"`
	Piece    *engine.Piece   `json:"piece"`
}

type BoardState struct {
	Squares []Square `json:"squares"`
	FEN     string   `json:"fen"`
}

func NewBoardState(b engine.Board, toMove engine.Color) *BoardState {
	state := &BoardState{
		Squares: make([]Square, 0, engine.NumSquares),
		FEN:     engine.FEN(b, toMove),
	}
	for n := 1; n <= engine.NumSquares; n++ {
		p := engine.MustPosition(n)
		sq := Square{Position: p, Row: p.Row(), Col: p.Col()}
		if pc, ok := b.PieceAt(p); ok {
			sq.Piece = &pc
		}
		state.Squares = append(state.Squares, sq)
	}
	return state
}
