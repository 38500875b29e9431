package pdftext

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestText_Lines(t *testing.T) {
	lines, err := Text{}.Lines(strings.NewReader("Account Statement\r\nAccount name John\rPeriod 01 Jan 2023 - 31 Jan 2023\n\nlast"))
	require.NoError(t, err)
	require.Equal(t, []string{"Account Statement", "Account name John", "Period 01 Jan 2023 - 31 Jan 2023", "", "last"}, lines)
}

func TestReader_NotAPDF(t *testing.T) {
	_, err := Reader{}.Lines(strings.NewReader("this is not a pdf document"))
	require.ErrorIs(t, err, ErrUnreadable)
	require.NotErrorIs(t, err, ErrEncrypted, "garbage must not be reported as encrypted")
}

func TestReader_ReadFailureIsNotUnreadable(t *testing.T) {
	for _, x := range []Extractor{Reader{}, Text{}} {
		_, err := x.Lines(failingReader{})
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "%T", x)
		require.False(t, errors.Is(err, ErrUnreadable) || errors.Is(err, ErrEncrypted),
			"%T: read failure classified as document failure: %v", x, err)
	}
}

func TestReader_JoinRow(t *testing.T) {
	row := pdf.TextHorizontal{
		{S: "Account", X: 10, W: 40, FontSize: 10},
		{S: "Statement", X: 55, W: 50, FontSize: 10},
		{S: "s", X: 105.5, W: 5, FontSize: 10},
	}
	require.Equal(t, "Account Statements", Reader{}.joinRow(row))
}

func TestByExtension(t *testing.T) {
	require.IsType(t, Text{}, ByExtension("statements/2023.TXT"))
	require.IsType(t, Reader{}, ByExtension("statements/2023.pdf"))
}
