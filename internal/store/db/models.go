package db

import (
	"database/sql"
)

type AssetRecord struct {
	RunID     string
	Position  int64
	Name      sql.NullString
	Symbol    sql.NullString
	Price     sql.NullString
	MarketCap sql.NullString
	Fdv       sql.NullString
	Volume    sql.NullString
	Ratio     sql.NullFloat64
	Changes   sql.NullString
}

type Run struct {
	ID        string
	StartedAt int64
	Threshold sql.NullFloat64
}
