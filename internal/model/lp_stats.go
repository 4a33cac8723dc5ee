package model

// PoolDay is one day of subgraph history for a pair. The ETH fields are derived from
// the raw reserves and volumes by the statistics pass.
type PoolDay struct {
	Date             int64
	Token0Symbol     string
	Token1Symbol     string
	Token0DerivedETH float64
	TotalSupply      float64
	ReserveUSD       float64
	Reserve0         float64
	Reserve1         float64
	Volume0          float64
	Volume1          float64

	FeesETH    float64
	VolumeETH  float64
	ReserveETH float64
	// WETHPerToken is the reserve ratio used as the token price; zero when no leg is WETH.
	WETHPerToken float64
}

// LPDay holds the per-day position metrics of a simulated LP stake.
type LPDay struct {
	Date          string
	ReserveETH    float64
	VolumeETH     float64
	FeesETH       float64
	OwnershipPct  float64
	FeeLP         float64
	NAVETH        float64
	CumulativeRet float64
	FeePctNAV     float64
	Drawdown      float64
	// TokenRet is NaN on the first day.
	TokenRet float64
}

// LPSummary is the per-pool result row of the statistics pass.
type LPSummary struct {
	Pool          string
	Exchange      string
	Pair          string
	NbDays        int
	TVLETH        float64
	CumulRet      float64
	FeesRet       float64
	FeesAnn       float64
	AnnRet        float64
	AnnVol        float64
	MaxDrawdown   float64
	FeesVol       float64
	Fees30DPct    float64
	FeesVol30D    float64
	ILAdjRet      float64
	IncentivesAPR float64
}
