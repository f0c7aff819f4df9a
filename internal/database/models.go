package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValueKind tags the portable scalar variants a result cell can hold.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
)

// Value is a single result cell, normalized to a portable scalar so the
// tool layer can serialize it without reflection on driver types.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Time  time.Time
}

func Null() Value                 { return Value{Kind: KindNull} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// MarshalJSON renders the tagged value as a plain JSON scalar.
// Timestamps are emitted as ISO-8601 (RFC 3339) text.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339Nano))
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// String returns a human-readable rendering, "NULL" for null cells.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindTime:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// QueryResult holds the result of a SQL query execution.
// RowCount always equals len(Rows); Columns reflects the projection of the
// executed statement, in engine order.
type QueryResult struct {
	Columns   []string
	Rows      [][]Value
	RowCount  int
	Truncated bool
	Duration  time.Duration
}

// Column represents a table column with its metadata.
type Column struct {
	Name       string `json:"column_name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"nullable"`
	Default    string `json:"default,omitempty"`
	OrdinalPos int    `json:"-"`
}

// Constraint describes a table constraint as reported by the catalog.
type Constraint struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Definition string `json:"definition"`
}

// TableSchema is the full column and constraint description of one table.
// ColumnCount always equals len(Columns).
type TableSchema struct {
	Table       string       `json:"table_name"`
	Columns     []Column     `json:"columns"`
	ColumnCount int          `json:"column_count"`
	Constraints []Constraint `json:"constraints"`
}

// Index describes a single index on a table.
type Index struct {
	Name       string `json:"index_name"`
	IsUnique   bool   `json:"is_unique"`
	Definition string `json:"definition"`
}

// IndexInfo holds all indexes of one table. IndexCount always equals
// len(Indexes).
type IndexInfo struct {
	Table      string  `json:"table_name"`
	Indexes    []Index `json:"indexes"`
	IndexCount int     `json:"index_count"`
}

// TableSummary is the per-table slice of a DatabaseStructure.
type TableSummary struct {
	ColumnCount int `json:"column_count"`
}

// DatabaseStructure summarizes the whole catalog. Aggregates are recomputed
// from the live catalog on every call. Skipped lists tables whose
// introspection failed during best-effort aggregation.
type DatabaseStructure struct {
	Tables       map[string]TableSummary `json:"database_structure"`
	TableCount   int                     `json:"table_count"`
	TotalColumns int                     `json:"total_columns"`
	Skipped      []string                `json:"skipped_tables,omitempty"`
}
