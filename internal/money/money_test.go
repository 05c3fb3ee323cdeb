package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		price string
		n     int
		want  string
	}{
		{"50.00", 2, "25.00"},
		{"50.00", 3, "16.67"},
		{"10.00", 3, "3.33"},
		{"0.05", 2, "0.03"},
		{"80.00", 1, "80.00"},
		{"80.00", 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.price).Split(tt.n).String())
		})
	}
}

func TestSplit_DriftIsNotCorrected(t *testing.T) {
	share := MustParse("50.00").Split(3)
	total := share.Add(share).Add(share)
	assert.Equal(t, "50.01", total.String())
}

func TestSplitCeil(t *testing.T) {
	assert.Equal(t, "3.34", MustParse("10.00").SplitCeil(3).String())
	assert.Equal(t, "5.00", MustParse("10.00").SplitCeil(2).String())
	assert.Equal(t, "0.00", MustParse("10.00").SplitCeil(0).String())
}

func TestRatioAndApportion(t *testing.T) {
	ratio := MustParse("80.00").Ratio(MustParse("80.00"))
	assert.True(t, ratio.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "10.00", MustParse("10.00").Apportion(ratio).String())

	third := MustParse("1.00").Ratio(MustParse("3.00"))
	assert.Equal(t, "0.3333333333", third.String())
	assert.Equal(t, "3.33", MustParse("10.00").Apportion(third).String())

	assert.True(t, MustParse("5.00").Ratio(Zero()).IsZero())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "padded", input: " 12.5 ", want: "12.50"},
		{name: "empty", input: "", want: "0.00"},
		{name: "negative", input: "-3.25", want: "-3.25"},
		{name: "leading dot", input: ".5", want: "0.50"},
		{name: "sub cent", input: "3.333", want: "3.33"},
		{name: "largest", input: "999999999999.99", want: "999999999999.99"},
		{name: "words", input: "twelve", wantErr: true},
		{name: "small exponent", input: "1e9", wantErr: true},
		{name: "huge exponent", input: "1e50000000", wantErr: true},
		{name: "tiny exponent", input: "1E-400000", wantErr: true},
		{name: "too many integer digits", input: "1234567890123", wantErr: true},
		{name: "too many fractional digits", input: "1.12345678901", wantErr: true},
		{name: "grouped thousands", input: "1,000.00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestUnmarshalJSON_RejectsExponent(t *testing.T) {
	var m Money
	assert.Error(t, json.Unmarshal([]byte(`1e50000000`), &m))
	assert.Error(t, json.Unmarshal([]byte(`"1e50000000"`), &m))
}

func TestJSON(t *testing.T) {
	var payload struct {
		A Money  `json:"a"`
		B Money  `json:"b"`
		C Money  `json:"c"`
		D *Money `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"12.50","b":7.1,"c":"","d":null}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, "12.50", payload.A.String())
	assert.Equal(t, "7.10", payload.B.String())
	assert.True(t, payload.C.IsZero())
	assert.Nil(t, payload.D)

	out, err := json.Marshal(FromCents(1999))
	require.NoError(t, err)
	assert.Equal(t, `"19.99"`, string(out))
}

func TestScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("4.20"))
	assert.Equal(t, "4.20", m.String())

	require.NoError(t, m.Scan([]byte("3")))
	assert.Equal(t, "3.00", m.String())

	v, err := MustParse("1.5").Value()
	require.NoError(t, err)
	assert.Equal(t, "1.5", v)
}

func TestOrZero(t *testing.T) {
	assert.True(t, OrZero(nil).IsZero())
	assert.Equal(t, "2.00", OrZero(Ptr(MustParse("2"))).String())
}
