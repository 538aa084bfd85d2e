// Package export writes stored daily bars to CSV, JSON or Parquet files.
package export

import "ashare/internal/provider"

// Row is the flat record written to export files. It carries no raw
// payload.
type Row struct {
	Symbol    string  `json:"symbol" parquet:"symbol"`
	TradeDate string  `json:"trade_date" parquet:"trade_date"`
	Open      float64 `json:"open" parquet:"open"`
	High      float64 `json:"high" parquet:"high"`
	Low       float64 `json:"low" parquet:"low"`
	Close     float64 `json:"close" parquet:"close"`
	Volume    float64 `json:"volume" parquet:"volume"`
	Turnover  float64 `json:"turnover" parquet:"turnover"`
}

func RowsFromBars(bars []provider.Bar) []Row {
	rows := make([]Row, len(bars))
	for i, b := range bars {
		rows[i] = Row{
			Symbol:    b.Symbol,
			TradeDate: provider.FormatDay(b.TradeDate),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			Turnover:  b.Turnover,
		}
	}
	return rows
}
