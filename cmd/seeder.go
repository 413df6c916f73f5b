package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
	"github.com/frahmantamala/hosted-checkout/internal/shopper"
)

const (
	demoEmail    = "shopper@mail.com"
	demoPassword = "password"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed a demo customer with an address and a filled cart for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeedData(gormDB); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared checkout data")
		}

		hash, err := shopper.HashPassword(demoPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		var customer cart.Customer
		err = gormDB.Where("email = ?", demoEmail).First(&customer).Error
		switch {
		case err == nil:
			fmt.Println("demo customer already exists:", demoEmail)
		case errors.Is(err, gorm.ErrRecordNotFound):
			customer = cart.Customer{
				Email:        demoEmail,
				FirstName:    "Fadhil",
				LastName:     "Rahman",
				SecureKey:    uuid.NewString(),
				PasswordHash: hash,
				Active:       true,
			}
			if err := gormDB.Create(&customer).Error; err != nil {
				log.Fatalf("failed to insert demo customer: %v", err)
			}
			fmt.Println("Seeded demo customer:", demoEmail)
		default:
			log.Fatalf("failed to look up demo customer: %v", err)
		}

		address := cart.Address{
			CustomerID:  customer.ID,
			City:        "Berlin",
			CountryISO2: "DE",
			Postcode:    "10115",
			Street:      "Invalidenstrasse 1",
		}
		if err := gormDB.Create(&address).Error; err != nil {
			log.Fatalf("failed to insert address: %v", err)
		}

		c := cart.Cart{
			CustomerID:       customer.ID,
			CurrencyCode:     "EUR",
			ShippingAmount:   decimal.RequireFromString("4.90"),
			InvoiceAddressID: address.ID,
			Items: []cart.CartItem{
				{SKU: "TEE-BLK-M", Name: "T-shirt black M", Quantity: 2, UnitPrice: decimal.RequireFromString("19.90")},
				{SKU: "MUG-01", Name: "Coffee mug", Quantity: 1, UnitPrice: decimal.RequireFromString("9.50")},
			},
		}
		if err := gormDB.Create(&c).Error; err != nil {
			log.Fatalf("failed to insert cart: %v", err)
		}

		fmt.Printf("Seeded cart %d (%s %s) for %s / %s\n",
			c.ID, c.OrderTotal().StringFixed(2), c.CurrencyCode, demoEmail, demoPassword)
	},
}

func clearSeedData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"order_history", "order_payments", "orders", "cart_items", "carts", "addresses", "customers"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
