package main

import (
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

type productSeed struct {
	Category    string
	Slug        string
	Title       models.JSON
	Description models.JSON
	Price       string
	Discounted  string
	Image       string
	SortOrder   int
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 分类
	categories := []models.Category{
		{
			NameJSON:  models.JSON{"zh-CN": "服饰", "en-US": "Apparel"},
			Slug:      "apparel",
			SortOrder: 30,
		},
		{
			NameJSON:  models.JSON{"zh-CN": "家居", "en-US": "Home"},
			Slug:      "home",
			SortOrder: 20,
		},
		{
			NameJSON:  models.JSON{"zh-CN": "配件", "en-US": "Accessories"},
			Slug:      "accessories",
			SortOrder: 10,
		},
	}
	categoryIDs := map[string]uint{}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Category already exists: %s", cat.Slug)
			categoryIDs[cat.Slug] = existing.ID
			continue
		}
		if err := models.DB.Create(&cat).Error; err != nil {
			stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			continue
		}
		stdLog.Printf("Created category: %s", cat.Slug)
		categoryIDs[cat.Slug] = cat.ID
	}

	// 商品
	products := []productSeed{
		{
			Category:    "apparel",
			Slug:        "linen-shirt",
			Title:       models.JSON{"zh-CN": "亚麻衬衫", "en-US": "Linen Shirt"},
			Description: models.JSON{"zh-CN": "透气亚麻面料", "en-US": "Breathable linen fabric"},
			Price:       "59.90",
			Discounted:  "44.90",
			Image:       "https://images.unsplash.com/photo-1596755094514-f87e34085b2c?w=800",
			SortOrder:   300,
		},
		{
			Category:    "apparel",
			Slug:        "wool-beanie",
			Title:       models.JSON{"zh-CN": "羊毛帽", "en-US": "Wool Beanie"},
			Description: models.JSON{"zh-CN": "保暖针织帽", "en-US": "Warm knitted beanie"},
			Price:       "24.00",
			Image:       "https://images.unsplash.com/photo-1576871337622-98d48d1cf531?w=800",
			SortOrder:   290,
		},
		{
			Category:    "home",
			Slug:        "ceramic-mug",
			Title:       models.JSON{"zh-CN": "陶瓷马克杯", "en-US": "Ceramic Mug"},
			Description: models.JSON{"zh-CN": "手工上釉 350ml", "en-US": "Hand glazed, 350ml"},
			Price:       "12.50",
			Image:       "https://images.unsplash.com/photo-1514228742587-6b1558fcca3d?w=800",
			SortOrder:   200,
		},
		{
			Category:    "home",
			Slug:        "scented-candle",
			Title:       models.JSON{"zh-CN": "香薰蜡烛", "en-US": "Scented Candle"},
			Description: models.JSON{"zh-CN": "大豆蜡，燃烧 40 小时", "en-US": "Soy wax, 40 hour burn"},
			Price:       "18.00",
			Discounted:  "15.00",
			Image:       "https://images.unsplash.com/photo-1603006905003-be475563bc59?w=800",
			SortOrder:   190,
		},
		{
			Category:    "accessories",
			Slug:        "canvas-tote",
			Title:       models.JSON{"zh-CN": "帆布托特包", "en-US": "Canvas Tote"},
			Description: models.JSON{"zh-CN": "加厚帆布，可折叠", "en-US": "Heavy canvas, foldable"},
			Price:       "29.00",
			Image:       "https://images.unsplash.com/photo-1544816155-12df9643f363?w=800",
			SortOrder:   100,
		},
	}

	for _, seed := range products {
		categoryID := categoryIDs[seed.Category]
		if categoryID == 0 {
			stdLog.Printf("Skip product %s: category missing", seed.Slug)
			continue
		}
		prod := models.Product{
			CategoryID:      categoryID,
			Slug:            seed.Slug,
			TitleJSON:       seed.Title,
			DescriptionJSON: seed.Description,
			PriceAmount:     models.MustMoney(seed.Price),
			Images:          models.StringArray{seed.Image},
			IsActive:        true,
			SortOrder:       seed.SortOrder,
		}
		if seed.Discounted != "" {
			prod.DiscountedPriceAmount = models.MustMoney(seed.Discounted)
			prod.HasDiscount = true
		}

		var existing models.Product
		if err := models.DB.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
			continue
		}
		existing.CategoryID = prod.CategoryID
		existing.TitleJSON = prod.TitleJSON
		existing.DescriptionJSON = prod.DescriptionJSON
		existing.PriceAmount = prod.PriceAmount
		existing.DiscountedPriceAmount = prod.DiscountedPriceAmount
		existing.HasDiscount = prod.HasDiscount
		existing.Images = prod.Images
		existing.IsActive = prod.IsActive
		existing.SortOrder = prod.SortOrder
		if err := models.DB.Save(&existing).Error; err != nil {
			stdLog.Printf("Failed to update product %s: %v", prod.Slug, err)
		} else {
			stdLog.Printf("Updated product: %s", prod.Slug)
		}
	}

	// 优惠码
	promoCodes := map[string]decimal.Decimal{
		"WELCOME10": decimal.RequireFromString("0.10"),
		"SPRING25":  decimal.RequireFromString("0.25"),
	}
	if err := models.EnsurePromoCodes(models.DB, promoCodes); err != nil {
		stdLog.Printf("Failed to ensure promo codes: %v", err)
	}

	stdLog.Printf("Seed completed")
}
