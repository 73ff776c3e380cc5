package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/pepsfoods/checkout-backend/internal/config"
	"github.com/pepsfoods/checkout-backend/internal/db"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.Vendor{}, &model.PickupLocation{}, &model.Product{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	vendors := []model.Vendor{
		{Name: "Mama Ope Kitchen", Subaccount: "ACCT_mamaope", Latitude: 6.5244, Longitude: 3.3792},
		{Name: "Yaba Farm Stall", Subaccount: "ACCT_yabafarm", Latitude: 6.5095, Longitude: 3.3711},
		{Name: "Surulere Grains", Subaccount: "ACCT_grains", Latitude: 6.4969, Longitude: 3.3481},
	}
	for i := range vendors {
		if err := upsertVendor(gdb, &vendors[i]); err != nil {
			return fmt.Errorf("seed vendor %q: %w", vendors[i].Name, err)
		}
	}

	locations := []model.PickupLocation{
		{VendorID: vendors[0].ID, Name: "Ikeja City Mall", Latitude: 6.6143, Longitude: 3.3580},
		{VendorID: vendors[1].ID, Name: "Yaba Tech Gate", Latitude: 6.5170, Longitude: 3.3759},
		{VendorID: vendors[2].ID, Name: "National Stadium", Latitude: 6.4976, Longitude: 3.3639},
	}
	for i := range locations {
		if err := upsertByName(gdb, &locations[i]); err != nil {
			return fmt.Errorf("seed pickup location %q: %w", locations[i].Name, err)
		}
	}

	products := []model.Product{
		{VendorID: vendors[0].ID, Name: "Jollof Rice Pack", Description: "Party-size jollof rice, serves four.", Price: decimal.RequireFromString("3500.00")},
		{VendorID: vendors[0].ID, Name: "Egusi Soup Bowl", Description: "Egusi with assorted meat.", Price: decimal.RequireFromString("2800.00")},
		{VendorID: vendors[1].ID, Name: "Yam Tubers (5)", Description: "Five medium puna yam tubers.", Price: decimal.RequireFromString("7000.00")},
		{VendorID: vendors[1].ID, Name: "Plantain Bunch", Description: "Ripe plantain, one bunch.", Price: decimal.RequireFromString("2500.00")},
		{VendorID: vendors[2].ID, Name: "Ofada Rice 5kg", Description: "Locally milled ofada rice.", Price: decimal.RequireFromString("6500.00")},
		{VendorID: vendors[2].ID, Name: "Honey Beans 4kg", Description: "Oloyin beans, stone free.", Price: decimal.RequireFromString("5200.00")},
	}
	inserted := 0
	for i := range products {
		created, err := upsertProduct(gdb, &products[i])
		if err != nil {
			return fmt.Errorf("seed product %q: %w", products[i].Name, err)
		}
		if created {
			inserted++
		}
	}

	log.Printf("seed complete: %d vendors, %d pickup locations, %d new products", len(vendors), len(locations), inserted)
	return nil
}

func upsertVendor(gdb *gorm.DB, vendor *model.Vendor) error {
	return gdb.Where(model.Vendor{Subaccount: vendor.Subaccount}).FirstOrCreate(vendor).Error
}

func upsertByName(gdb *gorm.DB, loc *model.PickupLocation) error {
	return gdb.Where(model.PickupLocation{Name: loc.Name}).FirstOrCreate(loc).Error
}

func upsertProduct(gdb *gorm.DB, product *model.Product) (bool, error) {
	var existing model.Product
	err := gdb.Where("vendor_id = ? AND name = ?", product.VendorID, product.Name).First(&existing).Error
	if err == nil {
		*product = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return true, gdb.Create(product).Error
}
