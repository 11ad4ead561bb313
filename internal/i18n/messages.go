// Package i18n renders validation errors for players in English or Swahili.
package i18n

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/drafti/drafti-backend/internal/engine"
)

// Supported lists the languages with a full catalog. The first is the fallback.
var Supported = []language.Tag{language.English, language.Swahili}

var (
	matcher = language.NewMatcher(Supported)
	cat     = catalog.NewBuilder(catalog.Fallback(language.English))
)

type entry struct {
	en, sw string
	// args extracts the format arguments from the error.
	args func(e *engine.ValidationError, p *message.Printer) []interface{}
}

func noArgs(*engine.ValidationError, *message.Printer) []interface{} {
	return nil
}

func square(e *engine.ValidationError, _ *message.Printer) []interface{} {
	return []interface{}{int(e.Position)}
}

func squareAndExpected(e *engine.ValidationError, p *message.Printer) []interface{} {
	return []interface{}{int(e.Position), colorName(p, e.ExpectedPlayer)}
}

func expected(e *engine.ValidationError, p *message.Printer) []interface{} {
	return []interface{}{colorName(p, e.ExpectedPlayer)}
}

func squares(e *engine.ValidationError, _ *message.Printer) []interface{} {
	return []interface{}{joinSquares(e.Squares)}
}

func squareAndSquares(e *engine.ValidationError, _ *message.Printer) []interface{} {
	return []interface{}{int(e.Position), joinSquares(e.Squares)}
}

var entries = map[engine.ErrorKind]entry{
	engine.GameNotActive: {
		"The game is not active yet.",
		"Mchezo bado haujaanza.",
		noArgs,
	},
	engine.GameAlreadyFinished: {
		"The game has already finished.",
		"Mchezo umekwisha.",
		noArgs,
	},
	engine.WrongTurn: {
		"It is %[1]s's turn.",
		"Ni zamu ya %[1]s.",
		expected,
	},
	engine.NoPiece: {
		"There is no piece on square %[1]d.",
		"Hakuna kete kwenye mraba %[1]d.",
		square,
	},
	engine.WrongPieceColor: {
		"The piece on square %[1]d is not yours; you play %[2]s.",
		"Kete kwenye mraba %[1]d si yako; unacheza %[2]s.",
		squareAndExpected,
	},
	engine.InvalidMove: {
		"That move is not allowed.",
		"Hatua hiyo hairuhusiwi.",
		noArgs,
	},
	engine.InvalidDirection: {
		"A man may only move forward.",
		"Kete ya kawaida husonga mbele tu.",
		noArgs,
	},
	engine.PathBlocked: {
		"The path is blocked at square %[1]d.",
		"Njia imezibwa kwenye mraba %[1]d.",
		square,
	},
	engine.DestinationOccupied: {
		"Square %[1]d is already occupied.",
		"Mraba %[1]d tayari una kete.",
		square,
	},
	engine.CaptureRequired: {
		"A capture is available and must be played (from %[1]s).",
		"Lazima ule kete (kutoka %[1]s).",
		squares,
	},
	engine.InvalidCapture: {
		"That capture is not allowed.",
		"Ulaji huo hauruhusiwi.",
		noArgs,
	},
	engine.NoPieceToCapture: {
		"There is no piece to capture on square %[1]d.",
		"Hakuna kete ya kula kwenye mraba %[1]d.",
		square,
	},
	engine.CannotCaptureOwnPiece: {
		"You cannot capture your own piece on square %[1]d.",
		"Huwezi kula kete yako mwenyewe kwenye mraba %[1]d.",
		square,
	},
	engine.IncompleteCaptureSequence: {
		"The capture must continue from square %[1]d (next: %[2]s).",
		"Ulaji lazima uendelee kutoka mraba %[1]d (unaofuata: %[2]s).",
		squareAndSquares,
	},
}

const (
	keyWhite = "color.white"
	keyBlack = "color.black"
)

func init() {
	for kind, e := range entries {
		mustSet(language.English, string(kind), e.en)
		mustSet(language.Swahili, string(kind), e.sw)
	}
	mustSet(language.English, keyWhite, "white")
	mustSet(language.English, keyBlack, "black")
	mustSet(language.Swahili, keyWhite, "mweupe")
	mustSet(language.Swahili, keyBlack, "mweusi")
}

func mustSet(tag language.Tag, key, msg string) {
	if err := cat.SetString(tag, key, msg); err != nil {
		panic(err)
	}
}

// Match picks the best supported language for an Accept-Language header or
// a bare tag such as "sw". Unparseable input yields English.
func Match(accept ...string) language.Tag {
	var wanted []language.Tag
	for _, a := range accept {
		if a == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(a)
		if err != nil {
			continue
		}
		wanted = append(wanted, tags...)
	}
	if len(wanted) == 0 {
		return Supported[0]
	}
	_, idx, _ := matcher.Match(wanted...)
	return Supported[idx]
}

// Printer returns a printer backed by the error catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// Message renders err for a player. Errors other than *engine.ValidationError
// fall back to err.Error().
func Message(tag language.Tag, err error) string {
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	e, ok := entries[verr.Kind]
	if !ok {
		return err.Error()
	}
	p := Printer(tag)
	return p.Sprintf(string(verr.Kind), e.args(verr, p)...)
}

func colorName(p *message.Printer, c *engine.Color) string {
	if c == nil {
		return ""
	}
	if *c == engine.Black {
		return p.Sprintf(keyBlack)
	}
	return p.Sprintf(keyWhite)
}

func joinSquares(ps []engine.Position) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, ", ")
}
