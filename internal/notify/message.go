package notify

import (
	"fmt"

	"github.com/diewo77/stock-ledger/internal/ledger"
)

// Describe renders a short title and message for an event. Localization is
// left to the dashboard; these are the default English strings.
func Describe(ev ledger.Event) (title, message string) {
	switch p := ev.Payload.(type) {
	case ledger.SaleSuccess:
		return "Sale recorded", fmt.Sprintf("Sale #%d recorded for a total of %s.", p.ID, p.TotalAmount.StringFixed(2))
	case ledger.PurchaseSuccess:
		return "Purchase recorded", fmt.Sprintf("Purchase #%d recorded for a total of %s.", p.ID, p.TotalAmount.StringFixed(2))
	case ledger.LowStock:
		return "Low stock", fmt.Sprintf("%s is down to %d in stock.", p.ProductName, p.ResultingStock)
	default:
		return string(ev.Kind), ""
	}
}
