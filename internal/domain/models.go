package domain

// DraftItem is a single line item as reported by the external extractor.
// All fields are advisory until reconciliation.
type DraftItem struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalPrice   float64 `json:"total_price"`
	OriginalText string  `json:"original_text,omitempty"`
}

// Totals holds the money summary of a receipt.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`

	// DeclaredTotal preserves the total printed on the receipt when
	// reconciliation decides the computed total is more trustworthy.
	DeclaredTotal float64 `json:"declared_total,omitempty"`
}

// VATEntry is one tax-rate bucket (rate percent → amount and taxable base).
type VATEntry struct {
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
	Base   float64 `json:"base"`
}

// DiscountInfo describes a receipt-level discount.
type DiscountInfo struct {
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

// DraftReceipt is the untrusted structured payload returned by the external
// extractor. It is never handed to callers without reconciliation.
type DraftReceipt struct {
	MerchantName  string        `json:"merchant_name"`
	RawDate       string        `json:"raw_date,omitempty"`
	PurchaseDate  string        `json:"purchase_date"`
	Currency      string        `json:"currency"`
	Country       string        `json:"country"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	Totals        Totals        `json:"totals"`
	VATInfo       []VATEntry    `json:"vat_info,omitempty"`
	DiscountInfo  *DiscountInfo `json:"discount_info,omitempty"`
	Items         []DraftItem   `json:"items"`
}

// Anomaly records a single detected inconsistency. Anomalies are append-only
// and every anomaly references the field it concerns.
type Anomaly struct {
	Type     AnomalyType `json:"type"`
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
}

// Validation is the reconciliation verdict attached to the final record.
type Validation struct {
	AnomaliesDetected bool      `json:"anomalies_detected"`
	Anomalies         []Anomaly `json:"anomalies"`
	Confidence        float64   `json:"confidence"`

	// DateResolution records which heuristic resolved an ambiguous
	// purchase date, for auditability. Empty when the date was unambiguous.
	DateResolution DateResolution `json:"date_resolution,omitempty"`
}

// ReconciledReceipt is the terminal artifact of the pipeline: the corrected
// draft plus its validation block. Immutable once produced.
type ReconciledReceipt struct {
	DraftReceipt
	Validation Validation `json:"validation"`
}

// ExtractionResult is what the extraction pipeline hands back on success.
type ExtractionResult struct {
	Receipt     *ReconciledReceipt `json:"receipt"`
	ContentHash string             `json:"content_hash"`
	ModelUsed   string             `json:"model_used,omitempty"`
	Cached      bool               `json:"cached"`
}
