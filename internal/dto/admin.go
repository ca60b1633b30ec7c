package dto

// TrendPoint is one calendar day of submission volume.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ActivityItem is one entry of the recent-activity feed.
type ActivityItem struct {
	GrievanceID string `json:"grievance_id"`
	Status      string `json:"status"`
	Text        string `json:"text"`
	When        string `json:"when"`
}

// DashboardStats mirrors the legacy admin dashboard payload. The
// pending and underReview keys both carry the under_review count; the
// old dashboard shipped that way and its consumers depend on it.
type DashboardStats struct {
	Total          int64          `json:"total"`
	Pending        int64          `json:"pending"`
	UnderReview    int64          `json:"underReview"`
	Resolved       int64          `json:"resolved"`
	Archived       int64          `json:"archived"`
	Trend          []TrendPoint   `json:"trend"`
	RecentActivity []ActivityItem `json:"recent_activity"`
}

type ResolutionEntry struct {
	GrievanceID  string  `json:"grievance_id"`
	ElapsedHours float64 `json:"elapsed_hours"`
}

type ResolutionMetrics struct {
	AvgHours         float64           `json:"avg_hours"`
	Fastest          []ResolutionEntry `json:"fastest"`
	Slowest          []ResolutionEntry `json:"slowest"`
	PercentWithinSLA float64           `json:"percent_within_sla"`
}

type UserActivity struct {
	StudentID string `json:"student_id"`
	Alias     string `json:"alias"`
	Count     int64  `json:"count"`
}

type AdminHandled struct {
	StudentID string `json:"student_id"`
	Alias     string `json:"alias"`
	Handled   int64  `json:"handled"`
}

type TopicCount struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

type AnalyticsReport struct {
	ThisMonth        int64              `json:"this_month"`
	ThisWeek         int64              `json:"this_week"`
	ByType           map[string]int64   `json:"by_type"`
	Trend            []TrendPoint       `json:"trend"`
	AvgHoursByStatus map[string]float64 `json:"avg_hours_by_status"`
	Resolution       ResolutionMetrics  `json:"resolution"`
	MostActive       []UserActivity     `json:"most_active"`
	RepeatSubmitters []UserActivity     `json:"repeat_submitters"`
	BySubmitterType  map[string]int64   `json:"by_submitter_type"`
	HandledByAdmin   []AdminHandled     `json:"handled_by_admin"`
	AvgResponseHours float64            `json:"avg_response_hours"`
	TrendingTopics   []TopicCount       `json:"trending_topics"`
}
