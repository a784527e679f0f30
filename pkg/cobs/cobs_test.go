package cobs

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func seq(n int, from byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = from + byte(i%255)
		if b[i] == 0 {
			b[i] = 1
		}
	}
	return b
}

func TestEncode(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		expect  []byte
	}{
		{"empty", []byte{}, []byte{1}},
		{"single zero", []byte{0}, []byte{1, 1}},
		{"two zeros", []byte{0, 0}, []byte{1, 1, 1}},
		{"zero inside", []byte{0x11, 0x22, 0x00, 0x33}, []byte{3, 0x11, 0x22, 2, 0x33}},
		{"no zero", []byte{0x11, 0x22, 0x33, 0x44}, []byte{5, 0x11, 0x22, 0x33, 0x44}},
		{"trailing zero", []byte{0x11, 0x00}, []byte{2, 0x11, 1}},
		{"strings", []byte{2, 'h', 'i', 3, 'b', 'y', 'e'}, []byte{8, 2, 'h', 'i', 3, 'b', 'y', 'e'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Encode(tc.payload))
		})
	}
}

func TestEncodeLongRun(t *testing.T) {
	data := seq(254, 1)
	encoded := Encode(data)
	require.Len(t, encoded, 256)
	require.Equal(t, byte(0xff), encoded[0])
	require.Equal(t, data, encoded[1:255])
	require.Equal(t, byte(1), encoded[255])

	data = seq(255, 1)
	encoded = Encode(data)
	require.Equal(t, byte(0xff), encoded[0])
	require.Equal(t, byte(2), encoded[255])
	require.Len(t, encoded, MaxEncodedLen(255))
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name    string
		encoded []byte
		expect  []byte
	}{
		{"empty payload", []byte{1}, []byte{}},
		{"single zero", []byte{1, 1}, []byte{0}},
		{"zero inside", []byte{3, 0x11, 0x22, 2, 0x33}, []byte{0x11, 0x22, 0x00, 0x33}},
		{"full block without tail", append([]byte{0xff}, seq(254, 1)...), seq(254, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Decode(tc.encoded)
			require.NoError(t, err)
			require.Equal(t, tc.expect, decoded)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		encoded []byte
	}{
		{"empty", []byte{}},
		{"code past end", []byte{5, 1, 2}},
		{"second code past end", []byte{2, 1, 3, 1}},
		{"zero code", []byte{0}},
		{"zero inside", []byte{3, 1, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.encoded)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	inputs := [][]byte{
		{},
		{0},
		bytes.Repeat([]byte{0}, 600),
		seq(253, 1),
		seq(254, 1),
		seq(255, 1),
		seq(1000, 7),
		append(seq(254, 1), 0),
	}
	for i := 0; i < 200; i++ {
		b := make([]byte, rnd.Intn(1200))
		rnd.Read(b)
		if i%2 == 0 {
			for j := range b {
				if rnd.Intn(8) == 0 {
					b[j] = 0
				}
			}
		}
		inputs = append(inputs, b)
	}

	for _, in := range inputs {
		encoded := Encode(in)
		require.NotContains(t, encoded, Delimiter)
		require.LessOrEqual(t, len(encoded), MaxEncodedLen(len(in)))
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, len(in), len(decoded))
		if len(in) > 0 {
			require.Equal(t, in, decoded)
		}
	}
}
