package services

import (
	"math"
	"sync"
	"time"

	"github.com/bonkboard/backend/internal/apperr"
	"github.com/bonkboard/backend/internal/db"
	"github.com/bonkboard/backend/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// CountFilter is the optional count predicate on statistics queries.
// Equals wins over the Over/Under bounds when both are set.
type CountFilter struct {
	Equals *int64
	Over   *int64
	Under  *int64
}

func (f CountFilter) active() bool {
	return f.Equals != nil || f.Over != nil || f.Under != nil
}

func (f CountFilter) matches(v int64) bool {
	if f.Equals != nil {
		return v == *f.Equals
	}
	if f.Over != nil && v <= *f.Over {
		return false
	}
	if f.Under != nil && v >= *f.Under {
		return false
	}
	return true
}

func (f CountFilter) validate() error {
	if f.Over != nil && f.Under != nil && *f.Over > *f.Under {
		return apperr.ErrInvalidRange
	}
	return nil
}

// StatsFlush is the snapshot the periodic flush writes to durable storage.
type StatsFlush struct {
	AllTime    int64
	Date       string
	DailyCount int64
	Month      string
	MonthCount int64
}

// StatsService owns every click counter and the per-day / per-month series.
// All methods are safe for concurrent use; a click and a rollover can never
// interleave mid-mutation.
type StatsService struct {
	mu          sync.Mutex
	allTime     int64
	daily       int64
	weekly      int64
	monthly     int64
	yearly      int64
	average     int64
	daysElapsed int64

	history   map[string]int64
	firstDate string
	lastDate  string

	chart      []models.ChartEntry
	chartIndex map[string]int
}

// NewStatsService builds the in-memory state from the durable rows. The
// windowed counters are reconstructed by summing the per-day series inside
// the current day / ISO week / month / year, so a restart does not zero
// them. A missing row for the boot day is synthesized as 0.
func NewStatsService(allTime int64, stats []db.Stat, chartRows []db.ChartMonth, now time.Time) *StatsService {
	s := &StatsService{
		allTime:     allTime,
		daysElapsed: int64(now.Day()),
		history:     make(map[string]int64, len(stats)+1),
		chartIndex:  make(map[string]int),
	}

	for _, row := range stats {
		s.history[row.Date] = row.Count
		if s.firstDate == "" || row.Date < s.firstDate {
			s.firstDate = row.Date
		}
		if row.Date > s.lastDate {
			s.lastDate = row.Date
		}
	}

	today := now.Format(dateLayout)
	if _, ok := s.history[today]; !ok {
		s.history[today] = 0
	}
	if s.firstDate == "" || today < s.firstDate {
		s.firstDate = today
	}
	if today > s.lastDate {
		s.lastDate = today
	}

	if len(chartRows) > 0 {
		for _, row := range chartRows {
			s.appendChartMonth(row.Month, row.Count)
		}
	} else {
		// First boot after migration: aggregate months from the day series.
		for _, row := range stats {
			if len(row.Date) < len(monthLayout) {
				continue
			}
			s.addToChartMonth(row.Date[:len(monthLayout)], row.Count)
		}
	}
	if _, ok := s.chartIndex[now.Format(monthLayout)]; !ok {
		s.appendChartMonth(now.Format(monthLayout), 0)
	}

	weekStart := startOfISOWeek(now).Format(dateLayout)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(dateLayout)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()).Format(dateLayout)

	for date, count := range s.history {
		if date > today {
			continue
		}
		if date == today {
			s.daily += count
		}
		if date >= weekStart {
			s.weekly += count
		}
		if date >= monthStart {
			s.monthly += count
		}
		if date >= yearStart {
			s.yearly += count
		}
	}

	s.recomputeAverage()
	return s
}

func (s *StatsService) appendChartMonth(month string, count int64) {
	s.chartIndex[month] = len(s.chart)
	s.chart = append(s.chart, models.ChartEntry{Month: month, Count: count})
}

func (s *StatsService) addToChartMonth(month string, count int64) {
	if i, ok := s.chartIndex[month]; ok {
		s.chart[i].Count += count
		return
	}
	s.appendChartMonth(month, count)
}

func (s *StatsService) recomputeAverage() {
	if s.daysElapsed <= 0 {
		s.daysElapsed = 1
	}
	s.average = int64(math.Round(float64(s.monthly) / float64(s.daysElapsed)))
}

// RecordClick counts one click at the given instant and returns the new
// all-time total.
func (s *StatsService) RecordClick(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.allTime++
	s.daily++
	s.weekly++
	s.monthly++
	s.yearly++

	date := now.Format(dateLayout)
	s.history[date]++
	if s.firstDate == "" || date < s.firstDate {
		s.firstDate = date
	}
	if date > s.lastDate {
		s.lastDate = date
	}

	s.addToChartMonth(now.Format(monthLayout), 1)
	s.recomputeAverage()

	return s.allTime
}

// RolloverDaily starts the given day: zeroes the daily counter, resets the
// elapsed-day count to the new day of the month, and seeds a 0 entry for
// the new day. Setting daysElapsed from the date rather than incrementing
// keeps it correct regardless of whether the monthly rollover has already
// fired for a coinciding boundary.
func (s *StatsService) RolloverDaily(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.daily = 0
	s.daysElapsed = int64(now.Day())
	s.recomputeAverage()

	date := now.Format(dateLayout)
	if _, ok := s.history[date]; !ok {
		s.history[date] = 0
	}
	if date > s.lastDate {
		s.lastDate = date
	}
}

// RolloverWeekly zeroes the weekly counter.
func (s *StatsService) RolloverWeekly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekly = 0
}

// RolloverMonthly zeroes the monthly counter and restarts the elapsed-day
// count at 1.
func (s *StatsService) RolloverMonthly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthly = 0
	s.daysElapsed = 1
	s.recomputeAverage()
}

// RolloverYearly zeroes the yearly counter.
func (s *StatsService) RolloverYearly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.yearly = 0
}

// AllTime returns the all-time click count.
func (s *StatsService) AllTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allTime
}

// Summary returns the rolled-up view of every counter window.
func (s *StatsService) Summary() models.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Summary{
		AllTime: s.allTime,
		Daily:   s.daily,
		Weekly:  s.weekly,
		Monthly: s.monthly,
		Yearly:  s.yearly,
		Average: s.average,
	}
}

// LatestChartEntry returns the most recent month on the chart.
func (s *StatsService) LatestChartEntry() *models.ChartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chart) == 0 {
		return nil
	}
	entry := s.chart[len(s.chart)-1]
	return &entry
}

// Query returns per-day counts over an inclusive date range, every day in
// the range present with gaps filled as 0. The default range is the full
// recorded history. When a count filter is applied, zero entries are
// removed: the zero-fill is a display aid, not data.
func (s *StatsService) Query(from, to string, filter CountFilter) (map[string]int64, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastDate == "" {
		return map[string]int64{}, nil
	}
	if from == "" {
		from = s.firstDate
	}
	if to == "" {
		to = s.lastDate
	}

	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, apperr.Invalid("bad date %q", from)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, apperr.Invalid("bad date %q", to)
	}
	if from > to || to > s.lastDate || from > s.lastDate {
		return nil, apperr.ErrInvalidRange
	}

	result := make(map[string]int64)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		v := s.history[date]
		if filter.active() && (v == 0 || !filter.matches(v)) {
			continue
		}
		result[date] = v
	}
	return result, nil
}

// QueryChart returns per-month counts over an inclusive month range with
// the same dense-fill and filter semantics as Query.
func (s *StatsService) QueryChart(from, to string, filter CountFilter) ([]models.ChartEntry, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chart) == 0 {
		return []models.ChartEntry{}, nil
	}
	lastMonth := s.chart[len(s.chart)-1].Month
	if from == "" {
		from = s.chart[0].Month
	}
	if to == "" {
		to = lastMonth
	}

	start, err := time.Parse(monthLayout, from)
	if err != nil {
		return nil, apperr.Invalid("bad month %q", from)
	}
	end, err := time.Parse(monthLayout, to)
	if err != nil {
		return nil, apperr.Invalid("bad month %q", to)
	}
	if from > to || to > lastMonth || from > lastMonth {
		return nil, apperr.ErrInvalidRange
	}

	result := []models.ChartEntry{}
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		month := m.Format(monthLayout)
		var v int64
		if i, ok := s.chartIndex[month]; ok {
			v = s.chart[i].Count
		}
		if filter.active() && (v == 0 || !filter.matches(v)) {
			continue
		}
		result = append(result, models.ChartEntry{Month: month, Count: v})
	}
	return result, nil
}

// FlushSnapshot captures what the periodic flush persists: the all-time
// total and the current day and month rows.
func (s *StatsService) FlushSnapshot(now time.Time) StatsFlush {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := now.Format(dateLayout)
	month := now.Format(monthLayout)
	var monthCount int64
	if i, ok := s.chartIndex[month]; ok {
		monthCount = s.chart[i].Count
	}
	return StatsFlush{
		AllTime:    s.allTime,
		Date:       date,
		DailyCount: s.history[date],
		Month:      month,
		MonthCount: monthCount,
	}
}

// startOfISOWeek returns midnight of the Monday that begins now's ISO week.
func startOfISOWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week started the previous Monday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
