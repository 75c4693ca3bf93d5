package models

// Ownable is implemented by every tenant-owned row.
type Ownable interface {
	GetUserID() uint
}

// All lists the models managed by AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{}, &Supplier{}, &Product{},
		&Sale{}, &SaleItem{},
		&Purchase{}, &PurchaseItem{},
		&Notification{},
	}
}
