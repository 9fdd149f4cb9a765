package models

import (
	"strings"

	"github.com/storefront-next/internal/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsurePromoCodes 将配置中的优惠码写入数据库，已存在的 code 不覆盖
func EnsurePromoCodes(db *gorm.DB, codes map[string]decimal.Decimal) error {
	if db == nil || len(codes) == 0 {
		return nil
	}
	rows := make([]PromoCode, 0, len(codes))
	for code, fraction := range codes {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if normalized == "" {
			continue
		}
		rows = append(rows, PromoCode{
			Code:             normalized,
			DiscountFraction: fraction,
			IsActive:         true,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&rows)
	if result.Error != nil {
		return result.Error
	}
	logger.Infow("promo_codes_ensured", "requested", len(rows), "inserted", result.RowsAffected)
	return nil
}
