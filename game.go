/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"strings"
)

// Move is one of the three canonical throws.
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// parseMove validates a client-supplied move string.
func parseMove(s string) (Move, bool) {
	switch Move(strings.ToLower(strings.TrimSpace(s))) {
	case MoveRock:
		return MoveRock, true
	case MovePaper:
		return MovePaper, true
	case MoveScissors:
		return MoveScissors, true
	}

	return "", false
}

func (m Move) beats(o Move) bool {
	switch {
	case m == MoveRock && o == MoveScissors:
		return true
	case m == MoveScissors && o == MovePaper:
		return true
	case m == MovePaper && o == MoveRock:
		return true
	}

	return false
}

// Outcome is the result of comparing two moves in registration order.
type Outcome int

const (
	OutcomeDraw Outcome = iota
	OutcomeFirstWins
	OutcomeSecondWins
)

// resolve compares two moves using the standard three-cycle beats relation.
func resolve(a, b Move) Outcome {
	switch {
	case a == b:
		return OutcomeDraw
	case a.beats(b):
		return OutcomeFirstWins
	}

	return OutcomeSecondWins
}

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// newRoomCode generates a crypto-random room code, re-rolling until the
// result is not currently taken. Collisions are vanishingly rare at this
// length but never assumed away.
func newRoomCode(taken func(string) bool) string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(out)

		if !taken(code) {
			return code
		}
	}
}

// normalizeRoomCode maps client-supplied codes to their canonical
// upper-case form; codes are compared case-insensitively.
func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
