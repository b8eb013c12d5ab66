package domain

// FileType represents the allowed image types for extraction.
type FileType string

const (
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"image/jpeg": FileTypeJPG,
	"image/png":  FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// AnomalyType classifies an inconsistency found during reconciliation.
type AnomalyType string

const (
	AnomalyPriceTooLow            AnomalyType = "price_too_low"
	AnomalyPriceTooHigh           AnomalyType = "price_too_high"
	AnomalyPriceOutlier           AnomalyType = "price_outlier"
	AnomalyPriceMismatch          AnomalyType = "price_mismatch"
	AnomalyQuantityInvalid        AnomalyType = "quantity_invalid"
	AnomalySubtotalMismatch       AnomalyType = "subtotal_mismatch"
	AnomalyTaxTooHigh             AnomalyType = "tax_too_high"
	AnomalyDiscountTooHigh        AnomalyType = "discount_too_high"
	AnomalyTotalMismatch          AnomalyType = "total_mismatch"
	AnomalyTotalLessThanItem      AnomalyType = "total_less_than_item"
	AnomalySuspiciouslyLowAverage AnomalyType = "suspiciously_low_average"
)

// DateResolution names the heuristic that resolved an ambiguous raw date.
type DateResolution string

const (
	DateResolvedByDayGt12      DateResolution = "by_day_gt_12"
	DateResolvedByMonthGt12    DateResolution = "by_month_gt_12"
	DateResolvedByCountryEU    DateResolution = "by_country_eu"
	DateResolvedByCountryUS    DateResolution = "by_country_us"
	DateResolvedByPlausibility DateResolution = "by_plausibility"
	DateUnresolved             DateResolution = "unresolved"
)
