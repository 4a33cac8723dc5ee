package model

// DailySummary joins fees, supply and reserves for one pool and one day.
// Pointer fields are nil when the joined source had no row for the day.
type DailySummary struct {
	Pool        string
	Date        string
	FeesETH     float64
	VolumeETH   float64
	Supply      *string
	Reserve0    *float64
	Reserve1    *float64
	TokenVsWETH *float64
	TVLETH      *float64
	BlockNumber *uint64
}
