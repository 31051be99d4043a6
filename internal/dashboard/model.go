package dashboard

import "urs-backend/internal/lifecycle"

// Counts are the raw aggregates read from storage. PerMonth is keyed by
// "YYYY-MM" in UTC.
type Counts struct {
	Total               int
	Done                int
	PendingVerification int
	Rejected            int
	ByStage             map[lifecycle.ProgressStatus]int
	ByAgency            map[string]int
	PerMonth            map[string]int
}

// Summary is the admin dashboard payload.
type Summary struct {
	Total               int
	Done                int
	PendingVerification int
	Rejected            int
	ByStage             []Bucket
	ByAgency            []Bucket
	PerMonth            []Bucket
}

// Bucket is one bar of a chart.
type Bucket struct {
	Key   string
	Label string
	Total int
}
