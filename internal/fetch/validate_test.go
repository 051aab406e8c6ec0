// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPDFBytes(size int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	for buf.Len() < size-20 {
		buf.WriteString("0000000000 00000 n \n")
	}
	buf.WriteString("%%EOF")
	return buf.Bytes()
}

func TestValidatePDF_Success(t *testing.T) {
	data := validPDFBytes(2000)
	require.NoError(t, ValidatePDF(data, 1024, 100<<20))
}

func TestValidatePDF_TooSmall(t *testing.T) {
	data := validPDFBytes(100)
	err := ValidatePDF(data, 1024, 100<<20)
	assert.ErrorIs(t, err, errTooSmall)
}

func TestValidatePDF_BadMagic(t *testing.T) {
	data := bytes.Repeat([]byte("<html>not a pdf</html>"), 100)
	err := ValidatePDF(data, 1024, 100<<20)
	assert.ErrorIs(t, err, errBadMagic)
}

func TestValidatePDF_TooLarge(t *testing.T) {
	data := validPDFBytes(5000)
	err := ValidatePDF(data, 1024, 4000)
	assert.ErrorIs(t, err, errTooLarge)
}

func TestValidatePDF_NoEOF(t *testing.T) {
	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 2000)...)
	err := ValidatePDF(data, 1024, 100<<20)
	assert.ErrorIs(t, err, errNoEOF)
}
