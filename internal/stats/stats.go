package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"lpAnalytics/internal/model"
)

// ErrEmptyHistory is returned when no usable day remains after filtering.
var ErrEmptyHistory = errors.New("empty pool history")

// Params describes the simulated LP position.
type Params struct {
	// Stake is the share of the pool supply owned at inception (0.01 = 1%).
	Stake float64
	// Fee is the trading fee rate paid to LPs.
	Fee         float64
	DaysPerYear float64
	WETHSymbol  string
}

func DefaultParams() Params {
	return Params{Stake: 0.01, Fee: 0.003, DaysPerYear: 365, WETHSymbol: "WETH"}
}

// Derive fills the ETH-denominated fields of each day. The WETH leg is chosen from the
// first day. Pools without a WETH leg are priced through token0's derivedETH.
// Days with no ETH reserve or no supply are dropped.
func Derive(days []model.PoolDay, params Params) []model.PoolDay {
	if len(days) == 0 {
		return nil
	}
	weth := params.WETHSymbol
	if weth == "" {
		weth = "WETH"
	}
	wethIs0 := strings.EqualFold(days[0].Token0Symbol, weth)
	wethIs1 := !wethIs0 && strings.EqualFold(days[0].Token1Symbol, weth)

	out := make([]model.PoolDay, 0, len(days))
	for _, day := range days {
		switch {
		case wethIs0:
			day.VolumeETH = day.Volume0
			day.ReserveETH = 2 * day.Reserve0
			day.WETHPerToken = ratio(day.Reserve1, day.Reserve0)
		case wethIs1:
			day.VolumeETH = day.Volume1
			day.ReserveETH = 2 * day.Reserve1
			day.WETHPerToken = ratio(day.Reserve0, day.Reserve1)
		default:
			day.VolumeETH = day.Volume0 * day.Token0DerivedETH
			day.ReserveETH = 2 * day.Reserve0 * day.Token0DerivedETH
			day.WETHPerToken = 0
		}
		day.FeesETH = day.VolumeETH * params.Fee
		if day.ReserveETH == 0 || day.TotalSupply == 0 {
			continue
		}
		out = append(out, day)
	}
	return out
}

// Compute simulates an LP owning Stake of the supply on the first day and holding
// its LP tokens through the history. days must be derived and sorted oldest first.
func Compute(pool model.PoolInfo, days []model.PoolDay, params Params) ([]model.LPDay, model.LPSummary, error) {
	if len(days) == 0 {
		return nil, model.LPSummary{}, ErrEmptyHistory
	}
	if params.DaysPerYear <= 0 {
		return nil, model.LPSummary{}, fmt.Errorf("days per year must be positive")
	}

	first := days[0]
	initialNAV := first.ReserveETH * params.Stake
	if initialNAV == 0 {
		return nil, model.LPSummary{}, fmt.Errorf("initial nav is zero")
	}
	position := params.Stake * first.TotalSupply

	out := make([]model.LPDay, 0, len(days))
	peak := math.Inf(-1)
	for i, day := range days {
		ownership := position / day.TotalSupply
		feeLP := day.FeesETH * ownership
		nav := day.ReserveETH * ownership
		peak = math.Max(peak, nav)

		tokenRet := math.NaN()
		if i > 0 && day.WETHPerToken != 0 && days[i-1].WETHPerToken != 0 {
			// WETHPerToken is quoted per token, so the token return is the inverse move
			tokenRet = days[i-1].WETHPerToken/day.WETHPerToken - 1
		}

		out = append(out, model.LPDay{
			Date:          time.Unix(day.Date, 0).UTC().Format("2006-01-02"),
			ReserveETH:    day.ReserveETH,
			VolumeETH:     day.VolumeETH,
			FeesETH:       day.FeesETH,
			OwnershipPct:  ownership,
			FeeLP:         feeLP,
			NAVETH:        nav,
			CumulativeRet: nav/initialNAV - 1,
			FeePctNAV:     feeLP / initialNAV,
			Drawdown:      nav/peak - 1,
			TokenRet:      tokenRet,
		})
	}

	return out, summarize(pool, days, out, params), nil
}

func summarize(pool model.PoolInfo, days []model.PoolDay, hist []model.LPDay, params Params) model.LPSummary {
	last := hist[len(hist)-1]
	nbDays := len(hist) - 1

	summary := model.LPSummary{
		Pool:     pool.Address,
		Exchange: pool.Exchange,
		Pair:     pool.Pair(),
		NbDays:   nbDays,
		TVLETH:   last.ReserveETH,
		CumulRet: last.CumulativeRet,
	}
	if summary.Pair == "_" {
		summary.Pair = days[0].Token0Symbol + "_" + days[0].Token1Symbol
	}

	// the first day is the deposit day and earns no fee
	summary.FeesRet = compound(hist[1:]) - 1
	tail := hist
	if len(tail) > 30 {
		tail = tail[len(tail)-30:]
	}
	summary.Fees30DPct = compound(tail) - 1

	if nbDays > 0 {
		years := params.DaysPerYear / float64(nbDays)
		summary.FeesAnn = math.Pow(1+summary.FeesRet, years) - 1
		summary.AnnRet = math.Pow(1+summary.CumulRet, years) - 1
	}

	summary.AnnVol = sampleStd(hist) * math.Sqrt(params.DaysPerYear)
	if summary.AnnVol > 0 {
		summary.FeesVol = summary.FeesRet / summary.AnnVol
		summary.FeesVol30D = summary.Fees30DPct * 12 / summary.AnnVol
	}

	summary.MaxDrawdown = 0
	for _, day := range hist {
		summary.MaxDrawdown = math.Min(summary.MaxDrawdown, day.Drawdown)
	}

	if p0, pn := days[0].WETHPerToken, days[len(days)-1].WETHPerToken; p0 != 0 && pn != 0 {
		summary.ILAdjRet = LPValue(p0/pn-1) - 1 + summary.FeesRet
	}
	return summary
}

// LPValue returns the value of a 50/50 constant-product position, relative to its
// deposit value in the base asset, after the paired token moved by perf (0.1 = +10%).
func LPValue(perf float64) float64 {
	k := 1 + perf
	if k <= 0 {
		return 0
	}
	hold := 0.5 + 0.5*k
	return hold * (1 + ImpermanentLoss(perf))
}

// ImpermanentLoss is the relative shortfall of the LP position versus holding: 2√k/(1+k) − 1.
func ImpermanentLoss(perf float64) float64 {
	k := 1 + perf
	if k <= 0 {
		return -1
	}
	return 2*math.Sqrt(k)/(1+k) - 1
}

func compound(days []model.LPDay) float64 {
	value := 1.0
	for _, day := range days {
		value *= 1 + day.FeePctNAV
	}
	return value
}

// sampleStd is the n-1 standard deviation of the token returns, ignoring NaN.
func sampleStd(days []model.LPDay) float64 {
	var values []float64
	for _, day := range days {
		if !math.IsNaN(day.TokenRet) && !math.IsInf(day.TokenRet, 0) {
			values = append(values, day.TokenRet)
		}
	}
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
