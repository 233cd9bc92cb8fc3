package models

// ReportRecord is one cached daily market review, keyed by calendar date.
// Exactly one of Report+Overview or Error is meaningfully populated; a record
// is never mutated after creation, a forced refresh replaces it wholesale.
type ReportRecord struct {
	Date        string          `json:"date"`
	Report      string          `json:"report,omitempty"`
	GeneratedAt string          `json:"generated_at"`
	Overview    *MarketOverview `json:"overview,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// IndexQuote is a single market index snapshot inside an overview.
type IndexQuote struct {
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Current   float64 `json:"current"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
}

// MarketOverview aggregates the market-wide numbers a review is written from.
type MarketOverview struct {
	Indices        []IndexQuote `json:"indices"`
	UpCount        int          `json:"up_count"`
	DownCount      int          `json:"down_count"`
	FlatCount      int          `json:"flat_count"`
	LimitUpCount   int          `json:"limit_up_count"`
	LimitDownCount int          `json:"limit_down_count"`
	TotalAmount    float64      `json:"total_amount"`
	TopSectors     []string     `json:"top_sectors"`
	BottomSectors  []string     `json:"bottom_sectors"`
}
