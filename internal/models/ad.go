package models

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Ad struct {
	BaseModel
	AdNumber string `gorm:"size:20;uniqueIndex;not null" json:"adNumber"`
	UserID   string `gorm:"type:varchar(36);index;not null" json:"userId"`

	Category    string `gorm:"size:120;index" json:"category"`
	Condition   string `gorm:"size:60" json:"condition"`
	FuelType    string `gorm:"size:60" json:"fuelType"`
	TitleEn     string `gorm:"size:255" json:"titleEn"`
	TitleLocal  string `gorm:"size:255" json:"titleLocal"`
	Description string `gorm:"type:text" json:"description"`

	// Цена хранится строкой как её ввёл пользователь; PriceValue - числовая
	// версия для сортировки, nil если строку не удалось разобрать.
	Price      string   `gorm:"size:64" json:"price"`
	PriceValue *float64 `gorm:"index" json:"-"`
	Currency   string   `gorm:"size:8" json:"currency"`
	Year       int      `json:"year"`
	City       string   `gorm:"size:120;index" json:"city"`

	Images datatypes.JSONSlice[string] `json:"images"`

	IsActive   bool  `gorm:"index" json:"isActive"`
	IsFeatured bool  `json:"isFeatured"`
	IsPromoted bool  `gorm:"index" json:"isPromoted"`
	IsRenew    bool  `json:"isRenew"`
	IsSold     bool  `json:"isSold"`
	Views      int64 `json:"views"`

	PromotionPlan        string     `gorm:"size:20" json:"promotionPlan,omitempty"`
	PromotionStartDate   *time.Time `json:"promotionStartDate,omitempty"`
	PromotionEndDate     *time.Time `gorm:"index" json:"promotionEndDate,omitempty"`
	PaymentTransactionID string     `gorm:"type:varchar(36)" json:"paymentTransactionId,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (a *Ad) BeforeSave(tx *gorm.DB) error {
	a.PriceValue = ParsePrice(a.Price)
	return nil
}

// ParsePrice - "лучшее усилие": пробелы и разделители тысяч убираются,
// всё, что не число, даёт nil (такие цены уходят в конец сортировки).
func ParsePrice(raw string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ',', '_', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewAdNumber - человекочитаемый идентификатор вида AD-3F9A0C12B4
func NewAdNumber() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "AD-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// PromotionActiveAt - промо считается действующим, пока не прошла дата окончания
func (a *Ad) PromotionActiveAt(now time.Time) bool {
	return a.IsPromoted && a.PromotionEndDate != nil && a.PromotionEndDate.After(now)
}
