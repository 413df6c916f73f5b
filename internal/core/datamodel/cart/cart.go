package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID               int64           `gorm:"primaryKey"`
	CustomerID       int64           `gorm:"column:customer_id;not null;index"`
	CurrencyCode     string          `gorm:"column:currency_code;size:3;not null"`
	ShippingAmount   decimal.Decimal `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	InvoiceAddressID int64           `gorm:"column:invoice_address_id"`
	Items            []CartItem      `gorm:"foreignKey:CartID"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

type CartItem struct {
	ID        int64           `gorm:"primaryKey"`
	CartID    int64           `gorm:"column:cart_id;not null;index"`
	SKU       string          `gorm:"column:sku"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  int64           `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

// ItemAmount is the sum of quantity * unit price over all lines.
func (c *Cart) ItemAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return total
}

func (c *Cart) OrderTotal() decimal.Decimal {
	return c.ItemAmount().Add(c.ShippingAmount)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

type Customer struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	FirstName    string    `gorm:"column:first_name"`
	LastName     string    `gorm:"column:last_name"`
	SecureKey    string    `gorm:"column:secure_key;not null"`
	PasswordHash string    `gorm:"column:password_hash"`
	Active       bool      `gorm:"column:active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsValid reports whether the customer row is loaded and usable for an order.
func (c *Customer) IsValid() bool {
	return c != nil && c.ID > 0 && c.Active && c.SecureKey != ""
}

type Address struct {
	ID          int64     `gorm:"primaryKey"`
	CustomerID  int64     `gorm:"column:customer_id;index"`
	City        string    `gorm:"column:city"`
	CountryISO2 string    `gorm:"column:country_iso2;size:2"`
	Postcode    string    `gorm:"column:postcode"`
	Street      string    `gorm:"column:street"`
	Street2     string    `gorm:"column:street2"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
