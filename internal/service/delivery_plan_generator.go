package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shiling-next/internal/cache"
	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"

	"gorm.io/gorm"
)

// DeliveryPolicy 配送策略
type DeliveryPolicy int

const (
	PolicyOnce DeliveryPolicy = iota + 1
	PolicyInterval
	PolicySolarTerm
)

// ParseDeliveryPolicy 从订单项存储的配送方式解析策略
func ParseDeliveryPolicy(tag string) (DeliveryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case constants.DeliveryTypeOnce:
		return PolicyOnce, nil
	case constants.DeliveryTypeInterval:
		return PolicyInterval, nil
	case constants.DeliveryTypeSolarTerm:
		return PolicySolarTerm, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDeliveryPolicy, tag)
	}
}

// String 返回存储用的配送方式
func (p DeliveryPolicy) String() string {
	switch p {
	case PolicyOnce:
		return constants.DeliveryTypeOnce
	case PolicyInterval:
		return constants.DeliveryTypeInterval
	case PolicySolarTerm:
		return constants.DeliveryTypeSolarTerm
	default:
		return "unknown"
	}
}

// DeliveryWindow 一次配送的时间窗口
type DeliveryWindow struct {
	Unit        int       `json:"unit"` // 第几份，从 1 开始
	Sequence    int       `json:"sequence"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	SolarTermID *uint     `json:"solar_term_id,omitempty"`
	Note        string    `json:"note,omitempty"`
}

// GeneratePlanInput 排期输入
type GeneratePlanInput struct {
	Policy        DeliveryPolicy
	Quantity      int
	MaxDeliveries int
	IntervalDays  int
	BaseDate      time.Time
}

// CalendarProvider 节气日历
type CalendarProvider interface {
	ListActiveFrom(from time.Time, years []int, limit int) ([]models.SolarTerm, error)
}

// txCalendar 可绑定事务连接的节气日历
type txCalendar interface {
	CalendarProvider
	WithTx(tx *gorm.DB) *repository.GormSolarTermRepository
}

// DeliveryPlanGenerator 配送排期生成器
type DeliveryPlanGenerator struct {
	calendar             CalendarProvider
	onceCutoffHour       int
	onceWindowDays       int
	intervalWindowDays   int
	fallbackIntervalDays int
	loc                  *time.Location
}

// NewDeliveryPlanGenerator 创建排期生成器
func NewDeliveryPlanGenerator(calendar CalendarProvider, cfg config.FulfillmentConfig) *DeliveryPlanGenerator {
	return &DeliveryPlanGenerator{
		calendar:             calendar,
		onceCutoffHour:       positiveOr(cfg.OnceCutoffHour, 16),
		onceWindowDays:       positiveOr(cfg.OnceWindowDays, 3),
		intervalWindowDays:   positiveOr(cfg.IntervalWindowDays, 7),
		fallbackIntervalDays: positiveOr(cfg.SolarTermFallbackIntervalDays, 90),
		loc:                  cfg.Location(),
	}
}

// inTx 返回在事务连接上查询节气的生成器
func (g *DeliveryPlanGenerator) inTx(tx *gorm.DB) *DeliveryPlanGenerator {
	scoped, ok := g.calendar.(txCalendar)
	if !ok || tx == nil {
		return g
	}
	clone := *g
	clone.calendar = scoped.WithTx(tx)
	return &clone
}

// Generate 生成配送窗口，每一份独立排期
func (g *DeliveryPlanGenerator) Generate(ctx context.Context, input GeneratePlanInput) ([]DeliveryWindow, error) {
	if err := validateGenerateInput(input); err != nil {
		return nil, err
	}
	base := input.BaseDate
	if g.loc != nil {
		base = base.In(g.loc)
	}

	var perUnit []DeliveryWindow
	switch input.Policy {
	case PolicyOnce:
		perUnit = g.onceWindows(base)
	case PolicyInterval:
		perUnit = g.intervalWindows(base, input.MaxDeliveries, input.IntervalDays, 0)
	case PolicySolarTerm:
		perUnit = g.solarTermWindows(ctx, base, input.MaxDeliveries)
	}

	windows := make([]DeliveryWindow, 0, len(perUnit)*input.Quantity)
	for unit := 1; unit <= input.Quantity; unit++ {
		for _, w := range perUnit {
			w.Unit = unit
			windows = append(windows, w)
		}
	}
	return windows, nil
}

// FallbackOnce 排期失败时的最小兜底：每份一次单次配送
func (g *DeliveryPlanGenerator) FallbackOnce(quantity int, baseDate time.Time) []DeliveryWindow {
	if quantity < 1 {
		quantity = 1
	}
	base := baseDate
	if g.loc != nil {
		base = base.In(g.loc)
	}
	perUnit := g.onceWindows(base)
	windows := make([]DeliveryWindow, 0, quantity)
	for unit := 1; unit <= quantity; unit++ {
		w := perUnit[0]
		w.Unit = unit
		windows = append(windows, w)
	}
	return windows
}

func validateGenerateInput(input GeneratePlanInput) error {
	switch input.Policy {
	case PolicyOnce, PolicyInterval, PolicySolarTerm:
	default:
		return ErrInvalidDeliveryPolicy
	}
	if input.Quantity < 1 {
		return ErrInvalidDeliveryQuantity
	}
	if input.Policy != PolicyOnce && input.MaxDeliveries < 1 {
		return ErrInvalidDeliveryMax
	}
	if input.Policy == PolicyInterval && input.IntervalDays < 1 {
		return ErrInvalidDeliveryInterval
	}
	return nil
}

func (g *DeliveryPlanGenerator) onceWindows(base time.Time) []DeliveryWindow {
	start := base
	if base.Hour() >= g.onceCutoffHour {
		start = base.AddDate(0, 0, 1)
	}
	return []DeliveryWindow{{
		Sequence: 1,
		Start:    start,
		End:      start.AddDate(0, 0, g.onceWindowDays),
		Note:     "单次配送",
	}}
}

// intervalWindows 从 base 起按 intervalDays 间隔生成 count 期，序号从 firstSeq+1 开始
func (g *DeliveryPlanGenerator) intervalWindows(base time.Time, count, intervalDays, firstSeq int) []DeliveryWindow {
	windows := make([]DeliveryWindow, 0, count)
	for k := 0; k < count; k++ {
		start := base.AddDate(0, 0, k*intervalDays)
		seq := firstSeq + k + 1
		windows = append(windows, DeliveryWindow{
			Sequence: seq,
			Start:    start,
			End:      start.AddDate(0, 0, g.intervalWindowDays),
			Note:     fmt.Sprintf("第%d期", seq),
		})
	}
	return windows
}

func (g *DeliveryPlanGenerator) solarTermWindows(ctx context.Context, base time.Time, maxDeliveries int) []DeliveryWindow {
	terms := g.loadSolarTerms(ctx, base, maxDeliveries)
	if len(terms) == 0 {
		return g.intervalWindows(base, maxDeliveries, g.fallbackIntervalDays, 0)
	}

	windows := make([]DeliveryWindow, 0, maxDeliveries)
	for i, term := range terms {
		termID := term.ID
		windows = append(windows, DeliveryWindow{
			Sequence:    i + 1,
			Start:       term.StartTime.In(base.Location()),
			End:         term.EndTime.In(base.Location()),
			SolarTermID: &termID,
			Note:        term.Name,
		})
	}
	remaining := maxDeliveries - len(windows)
	if remaining <= 0 {
		return windows
	}
	lastEnd := windows[len(windows)-1].End
	padding := g.intervalWindows(lastEnd.AddDate(0, 0, g.fallbackIntervalDays), remaining, g.fallbackIntervalDays, len(windows))
	for i := range padding {
		padding[i].Note = "节气排期不足，按间隔补齐"
	}
	return append(windows, padding...)
}

// loadSolarTerms 节气查询失败按无可用节气处理
func (g *DeliveryPlanGenerator) loadSolarTerms(ctx context.Context, base time.Time, limit int) []models.SolarTerm {
	if g.calendar == nil {
		return nil
	}
	if terms, hit, err := cache.GetSolarTerms(ctx, base, limit); err != nil {
		logger.Warnw("solar_term_cache_get_failed", "error", err)
	} else if hit {
		return terms
	}

	years := []int{base.Year(), base.Year() + 1}
	terms, err := g.calendar.ListActiveFrom(base, years, limit)
	if err != nil {
		logger.Warnw("solar_term_lookup_failed_fallback_interval",
			"base_date", base.Format(time.RFC3339),
			"error", err,
		)
		return nil
	}
	if len(terms) > limit {
		terms = terms[:limit]
	}
	if err := cache.SetSolarTerms(ctx, base, limit, terms); err != nil {
		logger.Warnw("solar_term_cache_set_failed", "error", err)
	}
	return terms
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
