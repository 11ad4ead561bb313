package i18n

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/drafti/drafti-backend/internal/engine"
	"github.com/drafti/drafti-backend/internal/testutil"
)

func TestEveryKindHasMessages(t *testing.T) {
	for _, kind := range engine.ErrorKinds {
		if _, ok := entries[kind]; !ok {
			t.Errorf("no messages for %s", kind)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		in   []string
		want language.Tag
	}{
		{nil, language.English},
		{[]string{""}, language.English},
		{[]string{"sw"}, language.Swahili},
		{[]string{"sw-KE"}, language.Swahili},
		{[]string{"fr-FR,sw;q=0.8,en;q=0.5"}, language.Swahili},
		{[]string{"en-GB"}, language.English},
		{[]string{"fr"}, language.English},
		{[]string{"!!"}, language.English},
		{[]string{"", "sw"}, language.Swahili},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.in, "|"), func(t *testing.T) {
			testutil.AssertEqual(t, Match(tt.in...).String(), tt.want.String())
		})
	}
}

func TestMessage(t *testing.T) {
	black := engine.Black
	tests := []struct {
		name string
		tag  language.Tag
		err  error
		want string
	}{
		{
			name: "no arguments",
			tag:  language.English,
			err:  &engine.ValidationError{Kind: engine.InvalidMove},
			want: "That move is not allowed.",
		},
		{
			name: "square",
			tag:  language.Swahili,
			err:  &engine.ValidationError{Kind: engine.NoPiece, Position: 13},
			want: "Hakuna kete kwenye mraba 13.",
		},
		{
			name: "expected player",
			tag:  language.Swahili,
			err:  &engine.ValidationError{Kind: engine.WrongTurn, ExpectedPlayer: &black},
			want: "Ni zamu ya mweusi.",
		},
		{
			name: "squares",
			tag:  language.English,
			err:  &engine.ValidationError{Kind: engine.IncompleteCaptureSequence, Position: 19, Squares: []engine.Position{28, 26}},
			want: "The capture must continue from square 19 (next: 28, 26).",
		},
		{
			name: "wrapped",
			tag:  language.English,
			err:  errors.Join(errors.New("move rejected"), &engine.ValidationError{Kind: engine.PathBlocked, Position: 19}),
			want: "The path is blocked at square 19.",
		},
		{
			name: "plain error",
			tag:  language.Swahili,
			err:  errors.New("game not found"),
			want: "game not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, Message(tt.tag, tt.err), tt.want)
		})
	}
}
