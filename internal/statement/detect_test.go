package statement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Type
	}{
		{"account statement first line", []string{"Account Statement", "Generated on 05 Jan 2024"}, TypeAccountStatement},
		{"account statement second line", []string{"Revolut Securities Europe UAB", "Account Statement"}, TypeAccountStatement},
		{"trading account variant", []string{"Trading Account Statement"}, TypeAccountStatement},
		{"title followed by details", []string{"Account Statement  USD"}, TypeAccountStatement},
		{"leading blank lines", []string{"", "  ", "Profit and Loss Statement"}, TypeProfitAndLoss},
		{"EUR variant", []string{"EUR Profit and Loss Statement", "x"}, TypeProfitAndLoss},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.lines)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"unknown titles", []string{"Monthly Report", "Savings"}},
		{"title is only a prefix of a word", []string{"Account Statements", "Profit and Loss Statementary"}},
		{"title below the inspected lines", []string{"Revolut", "Page 1", "Account Statement"}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.lines)
			require.ErrorIs(t, err, ErrUnrecognizedStatementType)
			require.Equal(t, TypeUnknown, got)
		})
	}
}

func TestParse_UnrecognizedDocumentStopsBeforeParsing(t *testing.T) {
	// The body would fail the transaction grammar if it were parsed.
	lines := []string{"Monthly Report", "Savings", "USD Transactions", "garbage"}
	_, err := Parse(lines)
	require.ErrorIs(t, err, ErrUnrecognizedStatementType)
	var le *LineError
	require.NotErrorAs(t, err, &le)
	require.Contains(t, err.Error(), "Monthly Report")
}
