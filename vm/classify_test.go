package vm

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestClassifyConstantsStackValueOnly(t *testing.T) {
	text := append([]byte{byte(LdcW)}, be16(0)...)
	kinds := classifyConstants(zerolog.Nop(), 1, text)
	require.Equal(t, KindStackValue, kinds[0])
}

func TestClassifyConstantsMethodRefOnly(t *testing.T) {
	text := append([]byte{byte(Invokevirtual)}, be16(0)...)
	kinds := classifyConstants(zerolog.Nop(), 1, text)
	require.Equal(t, KindMethodRef, kinds[0])
}

func TestClassifyConstantsEitherWhenBothReferenceIt(t *testing.T) {
	var text []byte
	text = append(text, byte(LdcW))
	text = append(text, be16(0)...)
	text = append(text, byte(Invokevirtual))
	text = append(text, be16(0)...)

	kinds := classifyConstants(zerolog.Nop(), 1, text)
	require.Equal(t, KindEither, kinds[0])
}

func TestClassifyConstantsNoneWhenUnreferenced(t *testing.T) {
	kinds := classifyConstants(zerolog.Nop(), 2, nil)
	require.Equal(t, KindNone, kinds[0])
	require.Equal(t, KindNone, kinds[1])
}
