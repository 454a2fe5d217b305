// Package roundid issues sortable round identifiers: a UUIDv7 rendered as
// 26 characters of lowercase Crockford base32, TypeID style.
package roundid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
)

const (
	alphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	Length   = 26
)

// RandSource supplies the random bits of an ID
type RandSource interface {
	IntN(n int) int
}

// Generator creates round IDs from a clock and an optional RandSource.
// A nil RandSource draws from crypto/rand.
type Generator struct {
	clock quartz.Clock
	rand  RandSource
}

// NewGenerator creates a generator. A nil clock uses the real clock.
func NewGenerator(clock quartz.Clock, rand RandSource) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, rand: rand}
}

// New creates an ID on the real clock
func New() string {
	return NewGenerator(nil, nil).Next()
}

// Next returns a new ID. IDs from later milliseconds sort after earlier ones.
func (g *Generator) Next() string {
	return encode(g.uuid())
}

func (g *Generator) uuid() [16]byte {
	var u [16]byte

	ms := g.clock.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		u[i] = byte(ms >> (40 - 8*i))
	}

	if g.rand != nil {
		for i := 6; i < 16; i++ {
			u[i] = byte(g.rand.IntN(256))
		}
	} else if _, err := rand.Read(u[6:]); err != nil {
		panic("roundid: reading random bytes: " + err.Error())
	}

	u[6] = u[6]&0x0f | 0x70 // version 7
	u[8] = u[8]&0x3f | 0x80 // RFC 4122 variant
	return u
}

// encode writes the 128 bits as a 130-bit big-endian number, so the first
// character carries only three bits.
func encode(u [16]byte) string {
	var sb strings.Builder
	sb.Grow(Length)
	for i := 0; i < Length; i++ {
		var v byte
		for b := 0; b < 5; b++ {
			v = v<<1 | bit(u, i*5+b-2)
		}
		sb.WriteByte(alphabet[v])
	}
	return sb.String()
}

func decode(id string) ([16]byte, error) {
	var u [16]byte
	if err := Validate(id); err != nil {
		return u, err
	}
	for i := 0; i < Length; i++ {
		v := byte(strings.IndexByte(alphabet, id[i]))
		for b := 0; b < 5; b++ {
			pos := i*5 + b - 2
			if pos < 0 || v&(1<<(4-b)) == 0 {
				continue
			}
			u[pos/8] |= 1 << (7 - pos%8)
		}
	}
	return u, nil
}

func bit(u [16]byte, pos int) byte {
	if pos < 0 || pos >= 128 {
		return 0
	}
	return u[pos/8] >> (7 - pos%8) & 1
}

// Validate checks that id is 26 base32 characters encoding at most 128 bits
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("round ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("round ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

// Time returns the millisecond timestamp embedded in id
func Time(id string) (time.Time, error) {
	u, err := decode(id)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for i := 0; i < 6; i++ {
		ms = ms<<8 | int64(u[i])
	}
	return time.UnixMilli(ms), nil
}
