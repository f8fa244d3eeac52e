package models

import "strings"

// BrandTickerMap maps a brand name to a tradable ticker. Lookups are
// case-insensitive on Brand; NormalizedBrand carries the lowercase form so
// the unique index is case-insensitive without relying on a
// collation-specific column type.
type BrandTickerMap struct {
	ID              uint64 `json:"id" gorm:"primaryKey"`
	Brand           string `json:"brand" gorm:"size:128;not null"`
	NormalizedBrand string `json:"-" gorm:"size:128;not null;uniqueIndex"`
	Ticker          string `json:"ticker,omitempty" gorm:"size:16"`
	ParentCompany   string `json:"parent_company,omitempty" gorm:"size:128"`
	Material        bool   `json:"material" gorm:"not null;default:false"`
	Exchange        string `json:"exchange,omitempty" gorm:"size:16"`
}

func (BrandTickerMap) TableName() string { return "brand_ticker_map" }

// NormalizeBrand lowercases and trims a brand for case-insensitive lookup.
func NormalizeBrand(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}

// Normalize keeps NormalizedBrand in sync; called explicitly by the
// repository layer rather than as a GORM hook so plain struct construction
// in tests stays predictable.
func (b *BrandTickerMap) Normalize() {
	b.NormalizedBrand = NormalizeBrand(b.Brand)
}
