package main

import (
	"flag"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"

	"github.com/shopspring/decimal"
)

// 节气的近似公历日期，上线前应导入天文台发布的精确时刻
var solarTermDays = []struct {
	name  string
	month time.Month
	day   int
}{
	{"小寒", time.January, 5}, {"大寒", time.January, 20},
	{"立春", time.February, 4}, {"雨水", time.February, 19},
	{"惊蛰", time.March, 5}, {"春分", time.March, 20},
	{"清明", time.April, 4}, {"谷雨", time.April, 20},
	{"立夏", time.May, 5}, {"小满", time.May, 21},
	{"芒种", time.June, 5}, {"夏至", time.June, 21},
	{"小暑", time.July, 7}, {"大暑", time.July, 22},
	{"立秋", time.August, 7}, {"处暑", time.August, 23},
	{"白露", time.September, 7}, {"秋分", time.September, 23},
	{"寒露", time.October, 8}, {"霜降", time.October, 23},
	{"立冬", time.November, 7}, {"小雪", time.November, 22},
	{"大雪", time.December, 7}, {"冬至", time.December, 21},
}

func main() {
	years := flag.Int("years", 2, "从今年起写入的节气年数")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()
	defer logger.Sync()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Database.LogQueries); err != nil {
		log.Fatalw("seed_connect_database_failed", "error", err)
	}
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("seed_migrate_failed", "error", err)
	}

	loc := cfg.Fulfillment.Location()
	solarRepo := repository.NewSolarTermRepository(models.DB)
	startYear := time.Now().In(loc).Year()
	for year := startYear; year < startYear+*years; year++ {
		var existing int64
		if err := models.DB.Model(&models.SolarTerm{}).Where("year = ?", year).Count(&existing).Error; err != nil {
			log.Fatalw("seed_count_solar_terms_failed", "year", year, "error", err)
		}
		if existing > 0 {
			log.Infow("seed_solar_terms_skip_existing", "year", year, "count", existing)
			continue
		}
		if err := solarRepo.CreateBatch(buildSolarTerms(year, loc)); err != nil {
			log.Fatalw("seed_solar_terms_failed", "year", year, "error", err)
		}
		log.Infow("seed_solar_terms_created", "year", year, "count", len(solarTermDays))
	}

	products := []models.Product{
		{
			Name:          "单次鲜花礼盒",
			PriceAmount:   models.NewMoneyFromDecimal(decimal.RequireFromString("199.00")),
			MaxDeliveries: 1,
			DeliveryType:  constants.DeliveryTypeOnce,
			IsActive:      true,
		},
		{
			Name:             "每周鲜花订阅（4 期）",
			PriceAmount:      models.NewMoneyFromDecimal(decimal.RequireFromString("599.00")),
			IsSubscription:   true,
			MaxDeliveries:    4,
			DeliveryType:     constants.DeliveryTypeInterval,
			DeliveryInterval: 7,
			IsActive:         true,
		},
		{
			Name:           "二十四节气茶礼（8 期）",
			PriceAmount:    models.NewMoneyFromDecimal(decimal.RequireFromString("1288.00")),
			IsSubscription: true,
			MaxDeliveries:  8,
			DeliveryType:   constants.DeliveryTypeSolarTerm,
			IsActive:       true,
		},
	}
	for i := range products {
		if err := models.DB.Where("name = ?", products[i].Name).FirstOrCreate(&products[i]).Error; err != nil {
			log.Fatalw("seed_product_failed", "name", products[i].Name, "error", err)
		}
	}

	rotation := []models.SubscriptionProduct{
		{Name: "春季白茶", Stock: 200, IsActive: true, SortOrder: 1},
		{Name: "夏季绿茶", Stock: 200, IsActive: true, SortOrder: 2},
		{Name: "秋季乌龙", Stock: 200, IsActive: true, SortOrder: 3},
		{Name: "冬季红茶", Stock: 200, IsActive: true, SortOrder: 4},
	}
	for i := range rotation {
		if err := models.DB.Where("name = ?", rotation[i].Name).FirstOrCreate(&rotation[i]).Error; err != nil {
			log.Fatalw("seed_subscription_product_failed", "name", rotation[i].Name, "error", err)
		}
	}

	if err := models.InitDefaultAdmin(cfg.Admin.DefaultUsername); err != nil {
		log.Warnw("seed_default_admin_failed", "error", err)
	}
	log.Infow("seed_done", "products", len(products), "subscription_products", len(rotation))
}

func buildSolarTerms(year int, loc *time.Location) []models.SolarTerm {
	terms := make([]models.SolarTerm, 0, len(solarTermDays))
	for i, item := range solarTermDays {
		start := time.Date(year, item.month, item.day, 0, 0, 0, 0, loc)
		var end time.Time
		if i+1 < len(solarTermDays) {
			next := solarTermDays[i+1]
			end = time.Date(year, next.month, next.day, 0, 0, 0, 0, loc)
		} else {
			end = time.Date(year+1, solarTermDays[0].month, solarTermDays[0].day, 0, 0, 0, 0, loc)
		}
		terms = append(terms, models.SolarTerm{
			Name:      item.name,
			Year:      year,
			StartTime: start,
			EndTime:   end,
			IsActive:  true,
			SortOrder: i + 1,
		})
	}
	return terms
}
