package parser

// BuildReceiptPrompt returns the extraction prompt for receipt photographs.
// The locale hints at the expected date and decimal conventions.
func BuildReceiptPrompt(locale string) string {
	hint := ""
	if locale != "" {
		hint = "\n- The receipt most likely comes from the \"" + locale + "\" locale; use it as a hint for date order and decimal separators, but trust the printed text over the hint."
	}
	return `You are a receipt data extraction assistant. Analyze the provided receipt photograph and extract ALL data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- Extract EVERY line item printed on the receipt. Do not skip, summarize, or merge items.
- Normalize the purchase date to YYYY-MM-DD in "purchase_date" and keep the text exactly as printed in "raw_date".
- Currency must be a 3-letter ISO code (e.g. "EUR", "USD"). Country must be a 2-letter ISO code.
- Amounts are plain numbers in major units (euros, dollars), never cents and never strings.` + hint + `

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation — just the raw JSON object.

The object must follow this schema:
{
  "merchant_name": "",
  "raw_date": "",
  "purchase_date": "",
  "currency": "",
  "country": "",
  "payment_method": "",
  "totals": {
    "subtotal": 0, "tax": 0,
    "discount": 0, "total": 0
  },
  "vat_info": [
    { "rate": 0, "amount": 0, "base": 0 }
  ],
  "discount_info": { "description": "", "amount": 0 },
  "items": [
    {
      "name": "",
      "category": "",
      "quantity": 0,
      "unit_price": 0,
      "total_price": 0,
      "original_text": ""
    }
  ]
}

If a field is not present on the receipt, use empty string for text and 0 for numbers. Omit "vat_info" and "discount_info" entirely when the receipt shows neither.`
}
