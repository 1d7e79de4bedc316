package main

import (
	"strings"
	"testing"
)

// TestResolve covers every move pair and the anti-symmetry of outcomes
func TestResolve(t *testing.T) {
	moves := []Move{MoveRock, MovePaper, MoveScissors}

	t.Run("all pairs", func(t *testing.T) {
		cases := []struct {
			a, b Move
			want Outcome
		}{
			{MoveRock, MoveRock, OutcomeDraw},
			{MovePaper, MovePaper, OutcomeDraw},
			{MoveScissors, MoveScissors, OutcomeDraw},
			{MoveRock, MoveScissors, OutcomeFirstWins},
			{MoveScissors, MovePaper, OutcomeFirstWins},
			{MovePaper, MoveRock, OutcomeFirstWins},
			{MoveScissors, MoveRock, OutcomeSecondWins},
			{MovePaper, MoveScissors, OutcomeSecondWins},
			{MoveRock, MovePaper, OutcomeSecondWins},
		}

		for _, tc := range cases {
			if got := resolve(tc.a, tc.b); got != tc.want {
				t.Errorf("resolve(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		}
	})

	t.Run("draw iff equal", func(t *testing.T) {
		for _, a := range moves {
			for _, b := range moves {
				got := resolve(a, b)
				if (got == OutcomeDraw) != (a == b) {
					t.Errorf("resolve(%s, %s) = %v, draw expected only for equal moves", a, b, got)
				}
			}
		}
	})

	t.Run("anti-symmetric", func(t *testing.T) {
		for _, a := range moves {
			for _, b := range moves {
				forward := resolve(a, b)
				reverse := resolve(b, a)

				if forward == OutcomeFirstWins && reverse != OutcomeSecondWins {
					t.Errorf("resolve(%s, %s) = FirstWins but resolve(%s, %s) = %v", a, b, b, a, reverse)
				}
				if forward == OutcomeSecondWins && reverse != OutcomeFirstWins {
					t.Errorf("resolve(%s, %s) = SecondWins but resolve(%s, %s) = %v", a, b, b, a, reverse)
				}
			}
		}
	})
}

func TestParseMove(t *testing.T) {
	t.Run("canonical values", func(t *testing.T) {
		for _, s := range []string{"rock", "paper", "scissors"} {
			move, ok := parseMove(s)
			if !ok {
				t.Fatalf("parseMove(%q) rejected a canonical move", s)
			}
			if string(move) != s {
				t.Errorf("parseMove(%q) = %q", s, move)
			}
		}
	})

	t.Run("case and whitespace", func(t *testing.T) {
		move, ok := parseMove("  Rock ")
		if !ok || move != MoveRock {
			t.Errorf("parseMove(\"  Rock \") = %q, %v", move, ok)
		}
	})

	t.Run("unrecognized values", func(t *testing.T) {
		for _, s := range []string{"", "lizard", "spock", "rocks"} {
			if _, ok := parseMove(s); ok {
				t.Errorf("parseMove(%q) accepted an unrecognized move", s)
			}
		}
	})
}

func TestNewRoomCode(t *testing.T) {
	t.Run("shape", func(t *testing.T) {
		code := newRoomCode(func(string) bool { return false })

		if len(code) != roomCodeLength {
			t.Errorf("Expected %d-char code, got %q", roomCodeLength, code)
		}

		for _, r := range code {
			if !strings.ContainsRune(roomCodeAlphabet, r) {
				t.Errorf("Code %q contains %q, outside the alphabet", code, r)
			}
		}
	})

	t.Run("re-rolls on collision", func(t *testing.T) {
		calls := 0
		code := newRoomCode(func(string) bool {
			calls++
			return calls <= 3
		})

		if calls != 4 {
			t.Errorf("Expected 4 generation attempts, got %d", calls)
		}
		if len(code) != roomCodeLength {
			t.Errorf("Expected %d-char code after re-roll, got %q", roomCodeLength, code)
		}
	})
}

func TestNormalizeRoomCode(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"abc123", "ABC123"},
		{" AbC123 ", "ABC123"},
		{"XYZ789", "XYZ789"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := normalizeRoomCode(tc.in); got != tc.want {
			t.Errorf("normalizeRoomCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
