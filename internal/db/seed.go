package db

import (
	"fmt"

	"github.com/diewo77/stock-ledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed inserts a demo owner with one staff member, a supplier and a few
// products. Running it again changes nothing.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		owner := models.User{Email: "owner@example.com", Name: "Demo Owner"}
		if err := tx.Where(models.User{Email: owner.Email}).FirstOrCreate(&owner).Error; err != nil {
			return fmt.Errorf("seed owner: %w", err)
		}
		staff := models.User{Email: "staff@example.com", Name: "Demo Staff", OwnerID: &owner.ID}
		if err := tx.Where(models.User{Email: staff.Email}).FirstOrCreate(&staff).Error; err != nil {
			return fmt.Errorf("seed staff: %w", err)
		}
		supplier := models.Supplier{UserID: owner.ID, Name: "Acme Wholesale", Email: "orders@acme.example"}
		if err := tx.Where(models.Supplier{UserID: owner.ID, Name: supplier.Name}).FirstOrCreate(&supplier).Error; err != nil {
			return fmt.Errorf("seed supplier: %w", err)
		}
		products := []models.Product{
			{Code: "WID-01", Name: "Widget", Price: decimal.RequireFromString("12.50"), Stock: 40},
			{Code: "GAD-01", Name: "Gadget", Price: decimal.RequireFromString("30.00"), Stock: 8},
			{Code: "SPR-01", Name: "Sprocket", Price: decimal.RequireFromString("4.20"), Stock: 3},
		}
		for _, p := range products {
			p.UserID = owner.ID
			if err := tx.Where(models.Product{UserID: owner.ID, Code: p.Code}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.Code, err)
			}
		}
		return nil
	})
}
