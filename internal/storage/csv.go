package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lpAnalytics/internal/model"
	"lpAnalytics/internal/normalize"
)

// CsvStorage writes each event batch to <dir>/<address>_<event>.csv, replacing earlier files.
type CsvStorage struct {
	dir string
}

func NewCsvStorage(dir string) *CsvStorage {
	return &CsvStorage{dir: dir}
}

func (s *CsvStorage) PutEventBatch(table normalize.Table) error {
	if table.Len() == 0 {
		return nil
	}
	first := table.Rows[0]
	name := fmt.Sprintf("%s_%s.csv", strings.ToLower(first.String(normalize.ColAddress)), first.String(normalize.ColEventName))
	return writeFile(filepath.Join(s.dir, name), func(f *os.File) error {
		return normalize.WriteCSV(f, table)
	})
}

// SummaryPath is the archive summary artifact of a pool.
func SummaryPath(dir, pool string) string {
	return filepath.Join(dir, strings.ToLower(pool)+"_summary.csv")
}

// WriteDailySummaries writes the archive summary, one row per fee day. Missing joins are empty cells.
func WriteDailySummaries(path string, rows []model.DailySummary) error {
	header := []string{"day", "ETH fees", "ETH vol", "Supply", "reserve0_adj", "reserve1_adj", "Token vs WETH", "TVL ETH", "blockNumber"}
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Date,
			formatFloat(row.FeesETH),
			formatFloat(row.VolumeETH),
			optString(row.Supply),
			optFloat(row.Reserve0),
			optFloat(row.Reserve1),
			optFloat(row.TokenVsWETH),
			optFloat(row.TVLETH),
			optUint(row.BlockNumber),
		})
	}
	return writeRecords(path, header, records)
}

// WriteLPHistory writes the per-day position metrics of one pool.
func WriteLPHistory(path string, days []model.LPDay) error {
	header := []string{"date", "reserve_ETH", "daily_Volume_ETH", "daily_fees_ETH", "ownership_pct", "Fee_lp",
		"NAV_ETH", "Cumulative_Ret", "Fee_pct_NAV", "Drawdown", "Token Ret"}
	records := make([][]string, 0, len(days))
	for _, d := range days {
		records = append(records, []string{
			d.Date,
			formatFloat(d.ReserveETH),
			formatFloat(d.VolumeETH),
			formatFloat(d.FeesETH),
			formatFloat(d.OwnershipPct),
			formatFloat(d.FeeLP),
			formatFloat(d.NAVETH),
			formatFloat(d.CumulativeRet),
			formatFloat(d.FeePctNAV),
			formatFloat(d.Drawdown),
			formatFloat(d.TokenRet),
		})
	}
	return writeRecords(path, header, records)
}

// WriteLPSummaries writes the final statistics table, one row per pool.
func WriteLPSummaries(path string, rows []model.LPSummary) error {
	header := []string{"pool", "exchange", "nbDays", "TVL_ETH", "CumulRet", "FeesRet", "FeesAnn", "AnnRet", "AnnVol",
		"MaxDrawdown", "Fees/Vol", "Fees_30D_pct", "Fees/Vol 30D", "Pair", "ILAdjRet", "Extra Incentives APR"}
	records := make([][]string, 0, len(rows))
	for _, s := range rows {
		records = append(records, []string{
			s.Pool,
			s.Exchange,
			strconv.Itoa(s.NbDays),
			formatFloat(s.TVLETH),
			formatFloat(s.CumulRet),
			formatFloat(s.FeesRet),
			formatFloat(s.FeesAnn),
			formatFloat(s.AnnRet),
			formatFloat(s.AnnVol),
			formatFloat(s.MaxDrawdown),
			formatFloat(s.FeesVol),
			formatFloat(s.Fees30DPct),
			formatFloat(s.FeesVol30D),
			s.Pair,
			formatFloat(s.ILAdjRet),
			formatFloat(s.IncentivesAPR),
		})
	}
	return writeRecords(path, header, records)
}

func writeRecords(path string, header []string, records [][]string) error {
	return writeFile(path, func(f *os.File) error {
		writer := csv.NewWriter(f)
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := writer.WriteAll(records); err != nil {
			return fmt.Errorf("write rows: %w", err)
		}
		return nil
	})
}

// writeFile creates path through a temporary file renamed into place.
func writeFile(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optUint(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}
