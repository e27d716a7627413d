// Package report builds the compliance summary and the dashboard analytics
// from the item table.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/erazemk/odpad/internal/model"
	"github.com/erazemk/odpad/internal/store"
)

// NotSpecified labels items without a disposition.
const NotSpecified = "Not Specified"

// Per-item impact estimates.
const (
	metalKgPerRecycled   = 0.5
	plasticKgPerRecycled = 0.3
	co2TonsPerProcessed  = 0.02
	energyKWhPerRecycled = 15
)

// Impact estimates the environmental effect of processed items.
type Impact struct {
	RecoveryRate       float64 `json:"recovery_rate"`
	TotalProcessed     int     `json:"total_processed"`
	MetalRecoveredKg   float64 `json:"estimated_metal_recovered_kg"`
	PlasticRecoveredKg float64 `json:"estimated_plastic_recovered_kg"`
	CO2SavedTons       float64 `json:"estimated_co2_saved_tons"`
	EnergyRecoveredKWh float64 `json:"estimated_energy_recovered_kwh"`
}

// Summary is the compliance report for items reported in a date range.
type Summary struct {
	From          *time.Time         `json:"from"`
	To            *time.Time         `json:"to"`
	Total         int                `json:"total"`
	ByStatus      map[string]int     `json:"by_status"`
	ByCategory    map[string]int     `json:"by_category"`
	ByDisposition map[string]int     `json:"by_disposition"`
	ByDepartment  map[string]int     `json:"by_department"`
	Impact        Impact             `json:"environmental_impact"`
	Items         []model.Item       `json:"items"`
	Departments   []model.Department `json:"departments"`
	Vendors       []model.Vendor     `json:"vendors"`
}

// BuildSummary loads the items reported between from and to (either may be
// nil) and aggregates them.
func BuildSummary(ctx context.Context, db *sql.DB, from, to *time.Time) (*Summary, error) {
	items, err := store.ListItems(ctx, db, store.ItemFilter{ReportedFrom: from, ReportedTo: to})
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	departments, err := store.ListDepartments(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("loading departments: %w", err)
	}
	vendors, err := store.ListVendors(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("loading vendors: %w", err)
	}

	s := Summarize(items, departments)
	s.From, s.To = from, to
	s.Vendors = vendors
	if s.Vendors == nil {
		s.Vendors = []model.Vendor{}
	}
	return s, nil
}

// Summarize aggregates items. Every known status, category and disposition
// is present in the maps, as is every department, even at zero.
func Summarize(items []model.Item, departments []model.Department) *Summary {
	s := &Summary{
		Total:         len(items),
		ByStatus:      zeroed(model.ItemStatuses),
		ByCategory:    zeroed(model.Categories),
		ByDisposition: zeroed(append(append([]string{}, model.Dispositions...), NotSpecified)),
		ByDepartment:  map[string]int{},
		Items:         items,
		Departments:   departments,
	}
	if s.Items == nil {
		s.Items = []model.Item{}
	}
	if s.Departments == nil {
		s.Departments = []model.Department{}
	}

	names := make(map[int64]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
		s.ByDepartment[d.Name] = 0
	}

	for _, it := range items {
		s.ByStatus[it.Status]++
		s.ByCategory[it.Category]++
		s.ByDisposition[dispositionLabel(it)]++
		if name, ok := names[it.DepartmentID]; ok {
			s.ByDepartment[name]++
		}
	}

	recycled := s.ByStatus[model.ItemStatusRecycled]
	processed := recycled + s.ByStatus[model.ItemStatusRefurbished] + s.ByStatus[model.ItemStatusSafelyDisposed]
	s.Impact = Impact{
		RecoveryRate:       percent(processed, len(items), 1),
		TotalProcessed:     processed,
		MetalRecoveredKg:   float64(recycled) * metalKgPerRecycled,
		PlasticRecoveredKg: float64(recycled) * plasticKgPerRecycled,
		CO2SavedTons:       round(float64(processed)*co2TonsPerProcessed, 2),
		EnergyRecoveredKWh: float64(recycled) * energyKWhPerRecycled,
	}
	return s
}

// MonthCount is the number of items reported in a calendar month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DayCount is the number of items reported on a day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CategoryCount is the number of items in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Share is a labelled count with its percentage of the total.
type Share struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Recovery is the share of items that ended up recycled.
type Recovery struct {
	Rate     float64 `json:"rate"`
	Recycled int     `json:"recycled"`
	Disposed int     `json:"disposed"`
}

// VolumeTrends counts items per reporting month, oldest first.
func VolumeTrends(items []model.Item) []MonthCount {
	counts := countBy(items, func(it model.Item) string { return it.ReportedAt.UTC().Format("2006-01") })
	out := make([]MonthCount, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		out = append(out, MonthCount{Month: k, Count: counts[k]})
	}
	return out
}

// ItemsByDate counts items per reporting day, oldest first.
func ItemsByDate(items []model.Item) []DayCount {
	counts := countBy(items, func(it model.Item) string { return it.ReportedAt.UTC().Format(time.DateOnly) })
	out := make([]DayCount, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		out = append(out, DayCount{Date: k, Count: counts[k]})
	}
	return out
}

// CategoryDistribution counts items per category in catalogue order,
// leaving out empty categories.
func CategoryDistribution(items []model.Item) []CategoryCount {
	counts := countBy(items, func(it model.Item) string { return it.Category })
	out := []CategoryCount{}
	for _, c := range model.Categories {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	return out
}

// StatusDistribution returns the share of items in each occupied status,
// in lifecycle order.
func StatusDistribution(items []model.Item) []Share {
	counts := countBy(items, func(it model.Item) string { return it.Status })
	return shares(counts, model.ItemStatuses, len(items))
}

// DispositionDistribution returns the share of items per disposition.
func DispositionDistribution(items []model.Item) []Share {
	counts := countBy(items, dispositionLabel)
	order := append(append([]string{}, model.Dispositions...), NotSpecified)
	return shares(counts, order, len(items))
}

// RecoveryRate reports the recycled percentage, rounded to two decimals.
func RecoveryRate(items []model.Item) Recovery {
	var r Recovery
	for _, it := range items {
		if it.Status == model.ItemStatusRecycled {
			r.Recycled++
		}
		if model.IsTerminalStatus(it.Status) {
			r.Disposed++
		}
	}
	r.Rate = percent(r.Recycled, len(items), 2)
	return r
}

func dispositionLabel(it model.Item) string {
	if it.Disposition == nil || *it.Disposition == "" {
		return NotSpecified
	}
	return *it.Disposition
}

func shares(counts map[string]int, order []string, total int) []Share {
	out := []Share{}
	for _, label := range order {
		if n := counts[label]; n > 0 {
			out = append(out, Share{Label: label, Count: n, Percentage: percent(n, total, 1)})
		}
	}
	return out
}

func countBy(items []model.Item, key func(model.Item) string) map[string]int {
	counts := map[string]int{}
	for _, it := range items {
		counts[key(it)]++
	}
	return counts
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func zeroed(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	return m
}

func percent(n, total, decimals int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(n)/float64(total)*100, decimals)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
