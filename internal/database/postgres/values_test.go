package postgres

import (
	"math"
	"math/big"
	"net/netip"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/joacominatel/floatgate/internal/database"
)

func TestConvertValue(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want database.Value
	}{
		{"nil", nil, database.Null()},
		{"bool", true, database.BoolValue(true)},
		{"int16", int16(3), database.IntValue(3)},
		{"int32", int32(-9), database.IntValue(-9)},
		{"int64", int64(1 << 40), database.IntValue(1 << 40)},
		{"oid", uint32(12345), database.IntValue(12345)},
		{"uint", uint(7), database.IntValue(7)},
		{"uint64", uint64(1 << 50), database.IntValue(1 << 50)},
		{"uint64 max int64", uint64(math.MaxInt64), database.IntValue(math.MaxInt64)},
		{"uint64 overflow", uint64(math.MaxInt64) + 1, database.StringValue("9223372036854775808")},
		{"float32", float32(1.5), database.FloatValue(1.5)},
		{"float64", 2.75, database.FloatValue(2.75)},
		{"string", "argo", database.StringValue("argo")},
		{"bytea", []byte("raw"), database.StringValue("raw")},
		{"timestamptz", ts, database.TimeValue(ts)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, convertValue(tc.in))
		})
	}
}

func TestConvertValue_Stringer(t *testing.T) {
	addr := netip.MustParseAddr("10.0.0.7")
	assert.Equal(t, database.StringValue("10.0.0.7"), convertValue(addr))
}

func TestConvertNumeric(t *testing.T) {
	intNumeric := pgtype.Numeric{Int: big.NewInt(1234), Valid: true}
	assert.Equal(t, database.IntValue(1234), convertValue(intNumeric))

	// 12.5 stored as 125 * 10^-1
	fracNumeric := pgtype.Numeric{Int: big.NewInt(125), Exp: -1, Valid: true}
	assert.Equal(t, database.FloatValue(12.5), convertValue(fracNumeric))

	nullNumeric := pgtype.Numeric{}
	assert.Equal(t, database.Null(), convertValue(nullNumeric))

	nanNumeric := pgtype.Numeric{NaN: true, Valid: true}
	assert.Equal(t, database.StringValue("NaN"), convertValue(nanNumeric))
}
