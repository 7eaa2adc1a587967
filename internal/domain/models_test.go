package domain

import "testing"

func TestInventoryPolicyOrdering(t *testing.T) {
	cases := []struct {
		name   string
		policy InventoryPolicy
		valid  bool
	}{
		{"ordered thresholds", InventoryPolicy{MinStockDaily: 2, ReorderPoint: 5, MaxStockDaily: 50}, true},
		{"zero min allowed", InventoryPolicy{MinStockDaily: 0, ReorderPoint: 5, MaxStockDaily: 50}, true},
		{"negative min", InventoryPolicy{MinStockDaily: -1, ReorderPoint: 5, MaxStockDaily: 50}, false},
		{"min equals reorder", InventoryPolicy{MinStockDaily: 5, ReorderPoint: 5, MaxStockDaily: 50}, false},
		{"reorder equals max", InventoryPolicy{MinStockDaily: 2, ReorderPoint: 50, MaxStockDaily: 50}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestProductConfigDerivedFields(t *testing.T) {
	cfg := ProductConfig{Name: ProductBurgers, SellPrice: 12.99, CostPrice: 5.50}
	if got := cfg.ProfitPerUnit(); got != 7.49 {
		t.Fatalf("profit per unit = %.2f, want 7.49", got)
	}
	margin := cfg.MarginPercent()
	if margin < 57.6 || margin > 57.7 {
		t.Fatalf("margin = %.2f, want ~57.66", margin)
	}
}

func TestParseProductCaseInsensitive(t *testing.T) {
	if p, ok := ParseProduct("fries"); !ok || p != ProductFries {
		t.Fatalf("parse fries: got %q ok=%v", p, ok)
	}
	if p, ok := ParseProduct("  Sides & Other "); !ok || p != ProductSidesOther {
		t.Fatalf("parse sides: got %q ok=%v", p, ok)
	}
	if _, ok := ParseProduct("Pizza"); ok {
		t.Fatalf("Pizza should not parse")
	}
}

func TestParseChannelAndPayment(t *testing.T) {
	if c, ok := ParseChannel("drive-thru"); !ok || c != ChannelDriveThru {
		t.Fatalf("parse drive-thru: got %q ok=%v", c, ok)
	}
	if m, ok := ParsePaymentMethod("CASH"); !ok || m != PaymentCash {
		t.Fatalf("parse cash: got %q ok=%v", m, ok)
	}
}
