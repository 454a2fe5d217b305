package roundid

import (
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meir-san/ultimateholdem/internal/randutil"
)

func TestNew(t *testing.T) {
	id := New()
	assert.Len(t, id, Length)
	require.NoError(t, Validate(id))
}

func TestNextIsSortedByClock(t *testing.T) {
	mClock := quartz.NewMock(t)
	mClock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	gen := NewGenerator(mClock, randutil.New(7))

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, gen.Next())
		mClock.Advance(time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s should sort before %s", ids[i-1], ids[i])
	}
}

func TestTimeRoundTrip(t *testing.T) {
	mClock := quartz.NewMock(t)
	at := time.Date(2025, 3, 1, 12, 30, 45, 123_000_000, time.UTC)
	mClock.Set(at)

	id := NewGenerator(mClock, randutil.New(1)).Next()
	got, err := Time(id)
	require.NoError(t, err)
	assert.True(t, at.Equal(got), "got %v", got)
}

func TestDeterministicRandSource(t *testing.T) {
	mClock := quartz.NewMock(t)
	a := NewGenerator(mClock, randutil.New(99)).Next()
	b := NewGenerator(mClock, randutil.New(99)).Next()
	c := NewGenerator(mClock, randutil.New(100)).Next()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestVersionBits(t *testing.T) {
	u, err := decode(NewGenerator(quartz.NewMock(t), randutil.New(3)).Next())
	require.NoError(t, err)
	assert.Equal(t, byte(0x70), u[6]&0xf0)
	assert.Equal(t, byte(0x80), u[8]&0xc0)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h5n0et5q6mt3v7ms1234abcd", false},
		{"too short", "01h5n0et5q6mt3v7ms123", true},
		{"too long", "01h5n0et5q6mt3v7ms1234abcdef", true},
		{"first char too high", "81h5n0et5q6mt3v7ms1234abcd", true},
		{"invalid character", "01h5n0et5q6mt3v7ms1234abci", true},
		{"uppercase", "01H5N0ET5Q6MT3V7MS1234ABCD", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, alphabet, 32)
	seen := make(map[rune]bool)
	for _, c := range alphabet {
		assert.False(t, seen[c], "duplicate %c", c)
		seen[c] = true
	}
	for _, c := range "ilou" {
		assert.NotContains(t, alphabet, string(c))
	}
}
