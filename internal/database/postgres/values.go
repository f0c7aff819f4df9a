package postgres

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/floatgate/internal/database"
)

// convertValue maps a pgx row value onto the portable scalar variants.
// Anything without a natural scalar form (arrays, composites, ranges) is
// rendered through its string form so no engine type can break a result.
func convertValue(v any) database.Value {
	switch val := v.(type) {
	case nil:
		return database.Null()
	case bool:
		return database.BoolValue(val)
	case int:
		return database.IntValue(int64(val))
	case int8:
		return database.IntValue(int64(val))
	case int16:
		return database.IntValue(int64(val))
	case int32:
		return database.IntValue(int64(val))
	case int64:
		return database.IntValue(val)
	case uint32:
		return database.IntValue(int64(val))
	case uint:
		return convertUint(uint64(val))
	case uint64:
		return convertUint(val)
	case float32:
		return database.FloatValue(float64(val))
	case float64:
		return database.FloatValue(val)
	case string:
		return database.StringValue(val)
	case []byte:
		return database.StringValue(string(val))
	case time.Time:
		return database.TimeValue(val)
	case pgtype.Numeric:
		return convertNumeric(val)
	case fmt.Stringer:
		return database.StringValue(val.String())
	default:
		return database.StringValue(fmt.Sprintf("%v", val))
	}
}

// convertUint keeps unsigned values numeric; only values past the int64
// range fall back to their decimal text form.
func convertUint(val uint64) database.Value {
	if val > math.MaxInt64 {
		return database.StringValue(strconv.FormatUint(val, 10))
	}
	return database.IntValue(int64(val))
}

// convertNumeric keeps exact integers as integers and falls back to float,
// or text for values a float64 cannot hold.
func convertNumeric(n pgtype.Numeric) database.Value {
	if !n.Valid {
		return database.Null()
	}
	if n.NaN {
		return database.StringValue("NaN")
	}
	if n.Exp == 0 && n.Int != nil && n.Int.IsInt64() {
		return database.IntValue(n.Int.Int64())
	}
	f, err := n.Float64Value()
	if err == nil && f.Valid {
		return database.FloatValue(f.Float64)
	}
	if n.Int != nil {
		return database.StringValue(new(big.Float).SetInt(n.Int).Text('f', -1))
	}
	return database.Null()
}
