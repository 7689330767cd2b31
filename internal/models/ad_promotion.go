package models

import "time"

// AdPromotion - оплаченный период продвижения объявления.
// Создаётся подтверждённым платежом, дальше меняется только истечением.
type AdPromotion struct {
	BaseModel
	AdID                 string          `gorm:"type:varchar(36);index;not null" json:"adId"`
	UserID               string          `gorm:"type:varchar(36);index;not null" json:"userId"`
	Plan                 string          `gorm:"size:20;not null" json:"plan"`
	StartDate            time.Time       `json:"startDate"`
	EndDate              time.Time       `gorm:"index" json:"endDate"`
	Status               PromotionStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentTransactionID string          `gorm:"type:varchar(36)" json:"paymentTransactionId"`
}
