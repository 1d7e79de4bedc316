package games

// Two players are paired into a room and play rock/paper/scissors
// The first player creates a room and receives a short shareable code
// The second player joins with that code (or a /play/<code> link, or the QR code)
// Both players pick a move at the same time; nobody sees the other's move early
// When both moves are in, the server announces the winner to both players
// Either player can request a rematch, which clears the round and restarts the countdown
// If a player leaves, the other is told their opponent left; empty rooms are deleted

// Display formats:
// Three large buttons (rock, paper, scissors), disabled once a move is made
// A status line mirroring the server's human-readable state descriptions

// Implementation details:
// - One websocket per player, JSON events addressed by room code
// - Players identified by a per-connection ID, not a cookie (rooms die with the connection)
// - The countdown is cosmetic; the server never forces a round to resolve

// How to play
// - Enter a name and create a room, then share the code
// - Friend enters the code and their name, and joins
// - Both choose rock, paper, or scissors
// - Winner is announced; hit rematch to go again
