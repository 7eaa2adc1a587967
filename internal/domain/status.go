package domain

// StockStatus is the three-band health state of a product's stock.
type StockStatus string

const (
	StatusGreen  StockStatus = "green"
	StatusYellow StockStatus = "yellow"
	StatusRed    StockStatus = "red"
)

// ClassifyStock maps a stock level onto a health band. The same function
// serves the offline simulation and the online inventory check, so the
// same thresholds always produce the same band regardless of caller.
func ClassifyStock(stock, minStock, reorderPoint float64) StockStatus {
	switch {
	case stock < minStock:
		return StatusRed
	case stock < reorderPoint:
		return StatusYellow
	default:
		return StatusGreen
	}
}

var statusActions = map[StockStatus]string{
	StatusGreen:  "Stock is healthy. No action needed.",
	StatusYellow: "Below reorder point. Schedule a restock within lead time.",
	StatusRed:    "Critically low. Restock immediately to avoid stockout.",
}

// RecommendedAction returns the operator guidance for a health band.
func RecommendedAction(status StockStatus) string {
	if action, ok := statusActions[status]; ok {
		return action
	}
	return "Unknown status. Verify inventory data."
}
