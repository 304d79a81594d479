package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gobikevn/bikerental-backend/internal/models"
	"gorm.io/gorm"
)

// Report window names. Each maps to a fixed number of days, not to calendar
// boundaries, so "month" is always the last 30 days.
const (
	WindowDay     = "day"
	WindowWeek    = "week"
	WindowMonth   = "month"
	WindowQuarter = "quarter"
	WindowYear    = "year"
)

var windowDays = map[string]int{
	WindowDay:     1,
	WindowWeek:    7,
	WindowMonth:   30,
	WindowQuarter: 90,
	WindowYear:    365,
}

// ErrUnknownWindow is reported for window names outside the fixed set.
var ErrUnknownWindow = fmt.Errorf("unknown report window")

// WindowStart returns the cutoff instant for a window name.
func WindowStart(window string, now time.Time) (time.Time, error) {
	days, ok := windowDays[window]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
	}
	return now.AddDate(0, 0, -days), nil
}

// ReportService computes read-only rollups over rental transactions for
// the admin dashboard. All aggregates are windowed by transaction creation
// time; results are cached in Redis for a few minutes when available.
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a report service.
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// RevenueSummary is the headline rollup for a window.
type RevenueSummary struct {
	Window       string `json:"window"`
	Transactions int64  `json:"transactions"`
	TotalRevenue int64  `json:"totalRevenue"`
}

// RevenueGroup is one row of a grouped revenue report.
type RevenueGroup struct {
	Label        string `json:"label"`
	Transactions int64  `json:"transactions"`
	TotalRevenue int64  `json:"totalRevenue"`
}

// CustomerRanking is one row of the top-customers report.
type CustomerRanking struct {
	UserID       uint   `json:"userId"`
	UserEmail    string `json:"userEmail"`
	Transactions int64  `json:"transactions"`
	TotalSpent   int64  `json:"totalSpent"`
}

// RevenueForWindow sums totalPrice over every transaction created within
// the window.
func (s *ReportService) RevenueForWindow(ctx context.Context, window string) (*RevenueSummary, error) {
	since, err := WindowStart(window, time.Now())
	if err != nil {
		return nil, err
	}

	var summary RevenueSummary
	cacheKey := "revenue:" + window
	if cached(ctx, cacheKey, &summary) {
		return &summary, nil
	}

	row := struct {
		Count int64
		Total int64
	}{}
	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS total").
		Where("created_at >= ?", since).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	summary = RevenueSummary{
		Window:       window,
		Transactions: row.Count,
		TotalRevenue: row.Total,
	}
	cache(ctx, cacheKey, summary)
	return &summary, nil
}

// RevenueByBike groups windowed revenue by the bike name snapshotted onto
// each transaction. Grouping by the snapshot keeps historical rows under the
// name the customer actually rented, even after a rename.
func (s *ReportService) RevenueByBike(ctx context.Context, window string) ([]RevenueGroup, error) {
	since, err := WindowStart(window, time.Now())
	if err != nil {
		return nil, err
	}

	var groups []RevenueGroup
	cacheKey := "revenue:bike:" + window
	if cached(ctx, cacheKey, &groups) {
		return groups, nil
	}

	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(NULLIF(bike_name, ''), 'Unknown') AS label, COUNT(*) AS transactions, COALESCE(SUM(total_price), 0) AS total_revenue").
		Where("created_at >= ?", since).
		Group("COALESCE(NULLIF(bike_name, ''), 'Unknown')").
		Order("total_revenue DESC").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue by bike: %w", err)
	}

	cache(ctx, cacheKey, groups)
	return groups, nil
}

// RevenueByStation groups windowed revenue by station name. Transactions
// whose station was deleted or never set land under "Unknown".
func (s *ReportService) RevenueByStation(ctx context.Context, window string) ([]RevenueGroup, error) {
	since, err := WindowStart(window, time.Now())
	if err != nil {
		return nil, err
	}

	var groups []RevenueGroup
	cacheKey := "revenue:station:" + window
	if cached(ctx, cacheKey, &groups) {
		return groups, nil
	}

	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(stations.station_name, 'Unknown') AS label, COUNT(*) AS transactions, COALESCE(SUM(transactions.total_price), 0) AS total_revenue").
		Joins("LEFT JOIN stations ON stations.id = transactions.station_id AND stations.deleted_at IS NULL").
		Where("transactions.created_at >= ?", since).
		Group("COALESCE(stations.station_name, 'Unknown')").
		Order("total_revenue DESC").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue by station: %w", err)
	}

	cache(ctx, cacheKey, groups)
	return groups, nil
}

// TopCustomers ranks users by transaction count within the window. The
// window filter applies here the same as in the revenue reports.
func (s *ReportService) TopCustomers(ctx context.Context, window string, limit int) ([]CustomerRanking, error) {
	since, err := WindowStart(window, time.Now())
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	var rankings []CustomerRanking
	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("user_id, user_email, COUNT(*) AS transactions, COALESCE(SUM(total_price), 0) AS total_spent").
		Where("created_at >= ?", since).
		Group("user_id, user_email").
		Order("transactions DESC").
		Limit(limit).
		Scan(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute top customers: %w", err)
	}
	return rankings, nil
}

// DailyCount is one day of the dashboard's transaction series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DashboardStats is the admin landing-page summary.
type DashboardStats struct {
	TotalUsers        int64        `json:"totalUsers"`
	TotalBikes        int64        `json:"totalBikes"`
	TotalStations     int64        `json:"totalStations"`
	TotalTransactions int64        `json:"totalTransactions"`
	TransactionsToday int64        `json:"transactionsToday"`
	TotalRevenue      int64        `json:"totalRevenue"`
	TopStation        string       `json:"topStation"`
	Last7Days         []DailyCount `json:"last7Days"`
}

// Dashboard computes the overview counters plus a seven-day transaction
// series ending today.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if cached(ctx, "dashboard", &stats) {
		return &stats, nil
	}

	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.Bike{}).Count(&stats.TotalBikes).Error; err != nil {
		return nil, fmt.Errorf("failed to count bikes: %w", err)
	}
	if err := db.Model(&models.Station{}).Count(&stats.TotalStations).Error; err != nil {
		return nil, fmt.Errorf("failed to count stations: %w", err)
	}
	if err := db.Model(&models.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.Transaction{}).
		Where("created_at >= ?", today).
		Count(&stats.TransactionsToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's transactions: %w", err)
	}

	if err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	top := struct {
		Label string
		Count int64
	}{}
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(stations.station_name, 'Unknown') AS label, COUNT(*) AS count").
		Joins("LEFT JOIN stations ON stations.id = transactions.station_id AND stations.deleted_at IS NULL").
		Group("COALESCE(stations.station_name, 'Unknown')").
		Order("count DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find top station: %w", err)
	}
	stats.TopStation = top.Label

	stats.Last7Days = make([]DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		dayStart := today.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var count int64
		if err := db.Model(&models.Transaction{}).
			Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count transactions for %s: %w", dayStart.Format("2006-01-02"), err)
		}
		stats.Last7Days = append(stats.Last7Days, DailyCount{
			Date:  dayStart.Format("2006-01-02"),
			Count: count,
		})
	}

	cache(ctx, "dashboard", stats)
	return &stats, nil
}

// cached loads a report from Redis into out. Any miss or error means
// recompute.
func cached(ctx context.Context, key string, out interface{}) bool {
	if RedisClient == nil {
		return false
	}
	return GetCachedReport(ctx, key, out) == nil
}

// cache stores a report in Redis, best-effort.
func cache(ctx context.Context, key string, payload interface{}) {
	if RedisClient == nil {
		return
	}
	if err := CacheReport(ctx, key, payload); err != nil {
		log.Printf("Failed to cache report %q: %v", key, err)
	}
}
