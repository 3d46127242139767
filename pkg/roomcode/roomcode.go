// Package roomcode generates short, human-shareable room codes.
package roomcode

import "crypto/rand"

// Alphabet deliberately omits 0, 1, I and O so codes survive being read
// aloud or scribbled on paper.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of every generated code.
const Length = 6

// Generate returns a Length-character code drawn uniformly from Alphabet.
// Generation carries no uniqueness guarantee; callers must check against
// live rooms and regenerate on collision.
func Generate() string {
	b := make([]byte, Length)
	rand.Read(b)
	for i := range b {
		b[i] = Alphabet[int(b[i])%len(Alphabet)]
	}
	return string(b)
}
