package models

import "time"

// Subscription никогда не удаляется, только переключается active -> inactive.
// "Не больше одной активной на пользователя" схемой не гарантируется.
type Subscription struct {
	BaseModel
	UserID               string             `gorm:"type:varchar(36);index;not null" json:"userId"`
	Plan                 string             `gorm:"size:20;not null" json:"plan"`
	Price                float64            `json:"price"`
	Currency             string             `gorm:"size:8" json:"currency"`
	Duration             string             `gorm:"size:20" json:"duration"`
	StartDate            time.Time          `json:"startDate"`
	EndDate              time.Time          `gorm:"index" json:"endDate"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentTransactionID string             `gorm:"type:varchar(36)" json:"paymentTransactionId,omitempty"`
}
