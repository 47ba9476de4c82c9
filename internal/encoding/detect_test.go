package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldervale/ledgerline/internal/encoding"
)

func TestNewUTF8Reader_PlainUTF8(t *testing.T) {
	in := "Invoice No,Vendor\nINV-1,Café Añejo\n"

	r, err := encoding.NewUTF8Reader(strings.NewReader(in))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestNewUTF8Reader_StripsBOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Invoice No,Vendor\n")...)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(in))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Invoice No,Vendor\n", string(out))
}

func TestNewUTF8Reader_Windows1252(t *testing.T) {
	// "Café" with an 0xE9 e-acute, as Windows-1252 exports produce it.
	in := []byte{'C', 'a', 'f', 0xE9, ',', '1', '2', '.', '5', '0', '\n'}

	r, err := encoding.NewUTF8Reader(bytes.NewReader(in))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Café,12.50\n", string(out))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, err := encoding.NewUTF8Reader(strings.NewReader(""))
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, out)
}
