package domain

import "strings"

// Product is the closed set of items the store sells. Adding or removing
// a product is a single edit here plus a catalog entry.
type Product string

const (
	ProductBurgers           Product = "Burgers"
	ProductChickenSandwiches Product = "Chicken Sandwiches"
	ProductFries             Product = "Fries"
	ProductBeverages         Product = "Beverages"
	ProductSidesOther        Product = "Sides & Other"
)

// AllProducts lists every sellable product, in menu order.
var AllProducts = []Product{
	ProductBurgers,
	ProductChickenSandwiches,
	ProductFries,
	ProductBeverages,
	ProductSidesOther,
}

// ParseProduct resolves a product name case-insensitively.
func ParseProduct(name string) (Product, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, p := range AllProducts {
		if strings.ToLower(string(p)) == needle {
			return p, true
		}
	}
	return "", false
}

// ProductNames returns the valid product names, for validation payloads.
func ProductNames() []string {
	names := make([]string, len(AllProducts))
	for i, p := range AllProducts {
		names[i] = string(p)
	}
	return names
}

// Channel is the sales channel a transaction came through.
type Channel string

const (
	ChannelInStore   Channel = "In-store"
	ChannelDriveThru Channel = "Drive-thru"
	ChannelOnline    Channel = "Online"
)

var AllChannels = []Channel{ChannelInStore, ChannelDriveThru, ChannelOnline}

func ParseChannel(name string) (Channel, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, c := range AllChannels {
		if strings.ToLower(string(c)) == needle {
			return c, true
		}
	}
	return "", false
}

// PaymentMethod is how a transaction was settled.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "Credit Card"
	PaymentCash       PaymentMethod = "Cash"
	PaymentGiftCard   PaymentMethod = "Gift Card"
)

var AllPaymentMethods = []PaymentMethod{PaymentCreditCard, PaymentCash, PaymentGiftCard}

func ParsePaymentMethod(name string) (PaymentMethod, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, m := range AllPaymentMethods {
		if strings.ToLower(string(m)) == needle {
			return m, true
		}
	}
	return "", false
}
