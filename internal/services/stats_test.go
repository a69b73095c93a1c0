package services

import (
	"errors"
	"testing"
	"time"

	"github.com/bonkboard/backend/internal/apperr"
	"github.com/bonkboard/backend/internal/db"
)

func i64(v int64) *int64 { return &v }

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed
}

func TestRecordClick_AllWindowsMove(t *testing.T) {
	now := mustTime(t, "2024-03-14 12:00:00")
	s := NewStatsService(0, nil, nil, now)

	const n = 7
	for i := 0; i < n; i++ {
		s.RecordClick(now)
	}

	sum := s.Summary()
	if sum.AllTime != n || sum.Daily != n || sum.Weekly != n || sum.Monthly != n || sum.Yearly != n {
		t.Errorf("Summary = %+v, want all windows = %d", sum, n)
	}

	// 14 days elapsed in March, round(7/14) = 1
	if sum.Average != 1 {
		t.Errorf("Average = %d, want 1", sum.Average)
	}
}

func TestRecordClick_ReturnsNewAllTime(t *testing.T) {
	now := mustTime(t, "2024-03-14 12:00:00")
	s := NewStatsService(99, nil, nil, now)

	if got := s.RecordClick(now); got != 100 {
		t.Errorf("RecordClick = %d, want 100", got)
	}
}

func TestRolloverDaily_FreshDayBehavesLikeBoot(t *testing.T) {
	now := mustTime(t, "2024-03-14 12:00:00")
	s := NewStatsService(0, nil, nil, now)

	for i := 0; i < 5; i++ {
		s.RecordClick(now)
	}

	nextDay := mustTime(t, "2024-03-15 00:00:00")
	s.RolloverDaily(nextDay)

	if got := s.Summary().Daily; got != 0 {
		t.Fatalf("Daily after rollover = %d, want 0", got)
	}

	const n = 3
	for i := 0; i < n; i++ {
		s.RecordClick(nextDay)
	}
	if got := s.Summary().Daily; got != n {
		t.Errorf("Daily after %d clicks on fresh day = %d, want %d", n, got, n)
	}

	// The new day must exist as a zero-seeded entry even before clicks.
	result, err := s.Query("2024-03-14", "2024-03-15", CountFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result["2024-03-14"] != 5 || result["2024-03-15"] != n {
		t.Errorf("Query = %v, want 2024-03-14:5 2024-03-15:%d", result, n)
	}
}

func TestRolloverMonthly_ResetsElapsedDays(t *testing.T) {
	now := mustTime(t, "2024-03-14 12:00:00")
	s := NewStatsService(0, nil, nil, now)

	for i := 0; i < 10; i++ {
		s.RecordClick(now)
	}

	s.RolloverMonthly()

	sum := s.Summary()
	if sum.Monthly != 0 {
		t.Errorf("Monthly = %d, want 0", sum.Monthly)
	}
	if sum.Average != 0 {
		t.Errorf("Average = %d, want 0 after monthly reset", sum.Average)
	}

	// One click on day one of the new month: average is exactly 1.
	s.RecordClick(now)
	if got := s.Summary().Average; got != 1 {
		t.Errorf("Average = %d, want 1", got)
	}
}

func TestRollovers_Commute(t *testing.T) {
	// 2025-01-01 is simultaneously a day, month and year boundary. The
	// boundary jobs fire as independent goroutines; order must not matter.
	newYear := mustTime(t, "2025-01-01 00:00:00")

	build := func() *StatsService {
		s := NewStatsService(0, nil, nil, mustTime(t, "2024-12-31 12:00:00"))
		for i := 0; i < 9; i++ {
			s.RecordClick(mustTime(t, "2024-12-31 12:00:00"))
		}
		return s
	}

	a := build()
	a.RolloverDaily(newYear)
	a.RolloverMonthly()
	a.RolloverYearly()

	b := build()
	b.RolloverYearly()
	b.RolloverMonthly()
	b.RolloverDaily(newYear)

	if a.Summary() != b.Summary() {
		t.Errorf("rollover order changed the summary: %+v vs %+v", a.Summary(), b.Summary())
	}
	if a.Summary().Daily != 0 || a.Summary().Monthly != 0 || a.Summary().Yearly != 0 {
		t.Errorf("Summary after boundary = %+v, want zeroed windows", a.Summary())
	}

	// The elapsed-day count must also converge: any divergence surfaces in
	// the average as soon as the new month accumulates clicks.
	const n = 10
	for i := 0; i < n; i++ {
		a.RecordClick(newYear)
		b.RecordClick(newYear)
	}
	if got := a.Summary().Average; got != n {
		t.Errorf("daily-then-monthly Average = %d, want %d", got, n)
	}
	if got := b.Summary().Average; got != n {
		t.Errorf("monthly-then-daily Average = %d, want %d", got, n)
	}
}

func TestBootReconstruction(t *testing.T) {
	// Boot on Wednesday 2024-03-13. ISO week starts Monday 2024-03-11.
	now := mustTime(t, "2024-03-13 08:00:00")
	rows := []db.Stat{
		{Date: "2023-12-30", Count: 50}, // last year
		{Date: "2024-02-28", Count: 40}, // this year, last month
		{Date: "2024-03-05", Count: 30}, // this month, last week
		{Date: "2024-03-11", Count: 20}, // this week
		{Date: "2024-03-13", Count: 10}, // today
	}

	s := NewStatsService(150, rows, nil, now)
	sum := s.Summary()

	if sum.AllTime != 150 {
		t.Errorf("AllTime = %d, want 150", sum.AllTime)
	}
	if sum.Daily != 10 {
		t.Errorf("Daily = %d, want 10", sum.Daily)
	}
	if sum.Weekly != 30 {
		t.Errorf("Weekly = %d, want 30", sum.Weekly)
	}
	if sum.Monthly != 60 {
		t.Errorf("Monthly = %d, want 60", sum.Monthly)
	}
	if sum.Yearly != 100 {
		t.Errorf("Yearly = %d, want 100", sum.Yearly)
	}
}

func TestBoot_AggregatesChartFromHistory(t *testing.T) {
	now := mustTime(t, "2024-03-13 08:00:00")
	rows := []db.Stat{
		{Date: "2024-01-10", Count: 5},
		{Date: "2024-01-20", Count: 7},
		{Date: "2024-03-13", Count: 2},
	}

	s := NewStatsService(14, rows, nil, now)

	chart, err := s.QueryChart("2024-01", "2024-03", CountFilter{})
	if err != nil {
		t.Fatalf("QueryChart failed: %v", err)
	}
	want := []struct {
		month string
		count int64
	}{
		{"2024-01", 12},
		{"2024-02", 0},
		{"2024-03", 2},
	}
	if len(chart) != len(want) {
		t.Fatalf("QueryChart returned %d entries, want %d", len(chart), len(want))
	}
	for i, w := range want {
		if chart[i].Month != w.month || chart[i].Count != w.count {
			t.Errorf("chart[%d] = %+v, want {%s %d}", i, chart[i], w.month, w.count)
		}
	}
}

func TestQuery_DenseFill(t *testing.T) {
	now := mustTime(t, "2024-01-05 10:00:00")
	rows := []db.Stat{{Date: "2024-01-02", Count: 5}}

	s := NewStatsService(5, rows, nil, now)

	result, err := s.Query("2024-01-01", "2024-01-03", CountFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	want := map[string]int64{"2024-01-01": 0, "2024-01-02": 5, "2024-01-03": 0}
	if len(result) != len(want) {
		t.Fatalf("Query = %v, want %v", result, want)
	}
	for k, v := range want {
		if result[k] != v {
			t.Errorf("result[%s] = %d, want %d", k, result[k], v)
		}
	}
}

func TestQuery_FilterRemovesZeroPadding(t *testing.T) {
	now := mustTime(t, "2024-01-05 10:00:00")
	rows := []db.Stat{{Date: "2024-01-02", Count: 5}}

	s := NewStatsService(5, rows, nil, now)

	result, err := s.Query("2024-01-01", "2024-01-03", CountFilter{Over: i64(0)})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result) != 1 || result["2024-01-02"] != 5 {
		t.Errorf("Query = %v, want only 2024-01-02:5", result)
	}
}

func TestQuery_InvalidRanges(t *testing.T) {
	now := mustTime(t, "2024-01-05 10:00:00")
	s := NewStatsService(0, []db.Stat{{Date: "2024-01-02", Count: 5}}, nil, now)

	tests := []struct {
		name     string
		from, to string
		filter   CountFilter
	}{
		{"from after to", "2024-01-03", "2024-01-01", CountFilter{}},
		{"to in the future", "2024-01-01", "2024-02-01", CountFilter{}},
		{"over greater than under", "", "", CountFilter{Over: i64(10), Under: i64(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Query(tt.from, tt.to, tt.filter); !errors.Is(err, apperr.ErrInvalidRange) {
				t.Errorf("Query error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestQuery_EqualsFilter(t *testing.T) {
	now := mustTime(t, "2024-01-05 10:00:00")
	rows := []db.Stat{
		{Date: "2024-01-01", Count: 3},
		{Date: "2024-01-02", Count: 5},
		{Date: "2024-01-03", Count: 3},
	}
	s := NewStatsService(11, rows, nil, now)

	result, err := s.Query("", "", CountFilter{Equals: i64(3)})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result) != 2 || result["2024-01-01"] != 3 || result["2024-01-03"] != 3 {
		t.Errorf("Query = %v, want the two 3-count days", result)
	}
}

func TestQuery_BoundedFilter(t *testing.T) {
	now := mustTime(t, "2024-01-05 10:00:00")
	rows := []db.Stat{
		{Date: "2024-01-01", Count: 2},
		{Date: "2024-01-02", Count: 5},
		{Date: "2024-01-03", Count: 9},
	}
	s := NewStatsService(16, rows, nil, now)

	result, err := s.Query("", "", CountFilter{Over: i64(2), Under: i64(9)})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(result) != 1 || result["2024-01-02"] != 5 {
		t.Errorf("Query = %v, want only the 5-count day", result)
	}
}

func TestFlushSnapshot(t *testing.T) {
	now := mustTime(t, "2024-03-14 12:00:00")
	s := NewStatsService(100, nil, nil, now)

	s.RecordClick(now)
	s.RecordClick(now)

	snap := s.FlushSnapshot(now)
	if snap.AllTime != 102 {
		t.Errorf("AllTime = %d, want 102", snap.AllTime)
	}
	if snap.Date != "2024-03-14" || snap.DailyCount != 2 {
		t.Errorf("day row = %s:%d, want 2024-03-14:2", snap.Date, snap.DailyCount)
	}
	if snap.Month != "2024-03" || snap.MonthCount != 2 {
		t.Errorf("month row = %s:%d, want 2024-03:2", snap.Month, snap.MonthCount)
	}
}

func TestStartOfISOWeek(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2024-03-11 00:00:00", "2024-03-11"}, // Monday maps to itself
		{"2024-03-13 15:30:00", "2024-03-11"}, // Wednesday
		{"2024-03-17 23:59:59", "2024-03-11"}, // Sunday still belongs to Monday's week
		{"2024-03-18 00:00:00", "2024-03-18"}, // next Monday
	}

	for _, tt := range tests {
		got := startOfISOWeek(mustTime(t, tt.day)).Format("2006-01-02")
		if got != tt.want {
			t.Errorf("startOfISOWeek(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}
