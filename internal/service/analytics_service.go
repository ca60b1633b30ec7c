package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/repository"
)

// resolutionSLA is the agreed resolution window used for the
// compliance percentage.
const resolutionSLA = 7 * 24 * time.Hour

const trendingTopicLimit = 20

// AnalyticsService computes the admin dashboard and analytics
// payloads. All elapsed-time math uses updated_at - created_at: no
// per-status timestamps exist, so updated_at stands in for the moment
// a record entered its current state.
type AnalyticsService struct {
	grievances *repository.GrievanceRepository
	users      *repository.UserRepository
}

func NewAnalyticsService(grievances *repository.GrievanceRepository, users *repository.UserRepository) *AnalyticsService {
	return &AnalyticsService{grievances: grievances, users: users}
}

// DashboardStats builds the legacy admin dashboard payload: totals,
// the 7-day submission trend, and a short recent-activity feed.
func (s *AnalyticsService) DashboardStats(now time.Time) (*dto.DashboardStats, error) {
	counts, total, err := s.grievances.CountByStatus()
	if err != nil {
		return nil, err
	}

	all, err := s.grievances.AllWithOwners()
	if err != nil {
		return nil, err
	}

	recent, err := s.grievances.RecentlyUpdated(5)
	if err != nil {
		return nil, err
	}

	activity := make([]dto.ActivityItem, 0, len(recent))
	for _, g := range recent {
		activity = append(activity, dto.ActivityItem{
			GrievanceID: g.GrievanceID,
			Status:      string(g.Status),
			Text:        fmt.Sprintf("Grievance #%s was %s", g.GrievanceID, g.Status),
			When:        humanize.Time(g.UpdatedAt),
		})
	}

	underReview := counts[domain.StatusUnderReview]
	return &dto.DashboardStats{
		Total: total,
		// The old dashboard shipped the under_review count under both
		// keys and its consumers depend on that.
		Pending:        underReview,
		UnderReview:    underReview,
		Resolved:       counts[domain.StatusResolved],
		Archived:       counts[domain.StatusArchived],
		Trend:          sevenDayTrend(all, now),
		RecentActivity: activity,
	}, nil
}

// Analytics builds the full reporting payload.
func (s *AnalyticsService) Analytics(now time.Time) (*dto.AnalyticsReport, error) {
	all, err := s.grievances.AllWithOwners()
	if err != nil {
		return nil, err
	}

	report := &dto.AnalyticsReport{
		ByType:           map[string]int64{},
		AvgHoursByStatus: map[string]float64{},
		BySubmitterType:  map[string]int64{"admin": 0, "user": 0},
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	weekStart := startOfWeek(now)

	statusHours := map[string][]float64{}
	ownerCounts := map[string]*dto.UserActivity{}
	var resolved []domain.Grievance
	var responseHours []float64
	var handled int64
	var subjects []string

	for i := range all {
		g := &all[i]
		subjects = append(subjects, g.Subject)

		if !g.CreatedAt.Before(monthStart) {
			report.ThisMonth++
		}
		if !g.CreatedAt.Before(weekStart) {
			report.ThisWeek++
		}

		report.ByType[string(g.Type)]++

		hours := g.UpdatedAt.Sub(g.CreatedAt).Hours()
		statusHours[string(g.Status)] = append(statusHours[string(g.Status)], hours)

		if g.Status == domain.StatusResolved {
			resolved = append(resolved, *g)
		}

		// No admin-attribution column exists, so any touched record
		// counts as handled. Placeholder carried over from the legacy
		// reporting queries.
		if !g.UpdatedAt.Equal(g.CreatedAt) {
			handled++
			responseHours = append(responseHours, hours)
		}

		if g.User != nil {
			entry, ok := ownerCounts[g.User.StudentID]
			if !ok {
				entry = &dto.UserActivity{StudentID: g.User.StudentID, Alias: g.User.Alias}
				ownerCounts[g.User.StudentID] = entry
			}
			entry.Count++

			// Data-quality heuristic, not a role check: staff accounts
			// were conventionally provisioned with an ADMIN prefix.
			if strings.HasPrefix(g.User.StudentID, "ADMIN") {
				report.BySubmitterType["admin"]++
			} else {
				report.BySubmitterType["user"]++
			}
		} else {
			report.BySubmitterType["user"]++
		}
	}

	report.Trend = dailyTrend(all)

	for status, hs := range statusHours {
		report.AvgHoursByStatus[status] = mean(hs)
	}

	report.Resolution = resolutionMetrics(resolved)
	report.MostActive = topSubmitters(ownerCounts, 5)
	report.RepeatSubmitters = repeatSubmitters(ownerCounts)
	report.AvgResponseHours = mean(responseHours)
	report.TrendingTopics = trendingTopics(subjects)

	admins, err := s.users.ListByRole(domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		report.HandledByAdmin = append(report.HandledByAdmin, dto.AdminHandled{
			StudentID: a.StudentID,
			Alias:     a.Alias,
			Handled:   handled,
		})
	}

	return report, nil
}

// sevenDayTrend counts submissions per server-local calendar day for
// today-6 .. today.
func sevenDayTrend(gs []domain.Grievance, now time.Time) []dto.TrendPoint {
	perDay := map[string]int64{}
	for _, g := range gs {
		perDay[g.CreatedAt.Format("2006-01-02")]++
	}

	trend := make([]dto.TrendPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		label := now.AddDate(0, 0, -i).Format("2006-01-02")
		trend = append(trend, dto.TrendPoint{Date: label, Count: perDay[label]})
	}
	return trend
}

// dailyTrend counts submissions per calendar day across the whole
// data set, ordered by date ascending.
func dailyTrend(gs []domain.Grievance) []dto.TrendPoint {
	perDay := map[string]int64{}
	for _, g := range gs {
		perDay[g.CreatedAt.Format("2006-01-02")]++
	}

	dates := make([]string, 0, len(perDay))
	for d := range perDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	trend := make([]dto.TrendPoint, 0, len(dates))
	for _, d := range dates {
		trend = append(trend, dto.TrendPoint{Date: d, Count: perDay[d]})
	}
	return trend
}

func resolutionMetrics(resolved []domain.Grievance) dto.ResolutionMetrics {
	metrics := dto.ResolutionMetrics{
		Fastest: []dto.ResolutionEntry{},
		Slowest: []dto.ResolutionEntry{},
	}
	if len(resolved) == 0 {
		return metrics
	}

	entries := make([]dto.ResolutionEntry, 0, len(resolved))
	elapsed := make([]time.Duration, 0, len(resolved))
	var hours []float64
	var withinSLA int

	for _, g := range resolved {
		d := g.UpdatedAt.Sub(g.CreatedAt)
		elapsed = append(elapsed, d)
		hours = append(hours, d.Hours())
		entries = append(entries, dto.ResolutionEntry{
			GrievanceID:  g.GrievanceID,
			ElapsedHours: d.Hours(),
		})
		if d <= resolutionSLA {
			withinSLA++
		}
	}

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return int64(elapsed[order[a]].Seconds()) < int64(elapsed[order[b]].Seconds())
	})

	for i := 0; i < len(order) && i < 5; i++ {
		metrics.Fastest = append(metrics.Fastest, entries[order[i]])
	}
	for i := len(order) - 1; i >= 0 && len(metrics.Slowest) < 5; i-- {
		metrics.Slowest = append(metrics.Slowest, entries[order[i]])
	}

	metrics.AvgHours = mean(hours)
	metrics.PercentWithinSLA = round1(float64(withinSLA) / float64(len(resolved)) * 100)
	return metrics
}

func topSubmitters(ownerCounts map[string]*dto.UserActivity, n int) []dto.UserActivity {
	out := make([]dto.UserActivity, 0, len(ownerCounts))
	for _, entry := range ownerCounts {
		out = append(out, *entry)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].StudentID < out[b].StudentID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func repeatSubmitters(ownerCounts map[string]*dto.UserActivity) []dto.UserActivity {
	var out []dto.UserActivity
	for _, entry := range ownerCounts {
		if entry.Count > 1 {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].StudentID < out[b].StudentID
	})
	return out
}

// trendingTopics tallies subject words: lower-cased, stripped of
// non-alphanumerics, split on whitespace, empties dropped; top 20 by
// frequency.
func trendingTopics(subjects []string) []dto.TopicCount {
	counts := map[string]int64{}
	for _, subject := range subjects {
		for _, word := range strings.Fields(strings.ToLower(subject)) {
			var b strings.Builder
			for _, r := range word {
				if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
					b.WriteRune(r)
				}
			}
			token := b.String()
			if token == "" {
				continue
			}
			counts[token]++
		}
	}

	out := make([]dto.TopicCount, 0, len(counts))
	for word, n := range counts {
		out = append(out, dto.TopicCount{Word: word, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Word < out[b].Word
	})
	if len(out) > trendingTopicLimit {
		out = out[:trendingTopicLimit]
	}
	return out
}

// startOfWeek returns midnight Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := t.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
