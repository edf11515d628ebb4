package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shiling-next/internal/models"
)

const solarTermCacheTTL = 6 * time.Hour

func solarTermKey(from time.Time, limit int) string {
	return fmt.Sprintf("solar_terms:%s:%d", from.UTC().Format("200601021504"), limit)
}

// GetSolarTerms 读取节气排期缓存
func GetSolarTerms(ctx context.Context, from time.Time, limit int) ([]models.SolarTerm, bool, error) {
	var terms []models.SolarTerm
	hit, err := GetJSON(ctx, solarTermKey(from, limit), &terms)
	if err != nil || !hit {
		return nil, false, err
	}
	return terms, true, nil
}

// SetSolarTerms 写入节气排期缓存
func SetSolarTerms(ctx context.Context, from time.Time, limit int, terms []models.SolarTerm) error {
	return SetJSON(ctx, solarTermKey(from, limit), terms, solarTermCacheTTL)
}
