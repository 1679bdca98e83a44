package codegen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const segmentLen = 4

// Generator produces redemption codes of the fixed shape
// PREFIX-TTTT-AAAA-BBBB: TTTT derives from the current time, AAAA and
// BBBB from a cryptographically strong random source. All segments are
// uppercase base-36 so codes survive manual transcription and read-back.
type Generator struct {
	prefix string
	now    func() time.Time
	random io.Reader
}

// New creates a generator for the given campaign prefix.
func New(prefix string) *Generator {
	return &Generator{
		prefix: strings.ToUpper(prefix),
		now:    time.Now,
		random: rand.Reader,
	}
}

// Generate returns a fresh redemption code. Codes are opaque strings;
// no ordering is defined between two outputs. If the random source is
// unavailable the call panics rather than degrading to weak randomness.
func (g *Generator) Generate() string {
	ts := base36Tail(uint64(g.now().UnixMilli()))
	a := base36Tail(uint64(g.randomUint32()))
	b := base36Tail(uint64(g.randomUint32()))
	return g.prefix + "-" + ts + "-" + a + "-" + b
}

func (g *Generator) randomUint32() uint32 {
	var buf [4]byte
	if _, err := io.ReadFull(g.random, buf[:]); err != nil {
		panic(fmt.Sprintf("codegen: random source unavailable: %v", err))
	}
	return binary.BigEndian.Uint32(buf[:])
}

// base36Tail keeps the low-order segmentLen characters of v in base 36,
// zero-padded on the left so every segment is fixed width.
func base36Tail(v uint64) string {
	s := strings.ToUpper(strconv.FormatUint(v, 36))
	if len(s) > segmentLen {
		return s[len(s)-segmentLen:]
	}
	return strings.Repeat("0", segmentLen-len(s)) + s
}
