package lex_test

import (
	"testing"

	"github.com/ehsanranjbar/flatkv/codec/lex"
	"github.com/stretchr/testify/require"
)

func TestIncrement(t *testing.T) {
	tests := []struct {
		input    []byte
		expected []byte
	}{
		{[]byte{0x00}, []byte{0x01}},
		{[]byte{0x01}, []byte{0x02}},
		{[]byte{0xff}, []byte{0xff, 0x01}},
		{[]byte{0x00, 0xff}, []byte{0x01, 0x00}},
		{[]byte{0xff, 0xff}, []byte{0xff, 0xff, 0x01}},
	}

	for _, test := range tests {
		result := lex.Increment(test.input)
		require.Equal(t, test.expected, result, "Increment(%v)", test.input)
	}
}

func TestUint64(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 1 << 40} {
		require.Equal(t, v, lex.DecodeUint64(lex.EncodeUint64(v)))
	}
	require.Less(t, string(lex.EncodeUint64(255)), string(lex.EncodeUint64(256)))
}
