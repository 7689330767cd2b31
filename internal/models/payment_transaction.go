package models

// PaymentTransaction - запись журнала платежей. Создаётся в одной транзакции
// с подпиской или промо, которое оплачивает. TransactionID - id платёжного
// шлюза, уникален, по нему отсекаются повторные вебхуки.
type PaymentTransaction struct {
	BaseModel
	TransactionID  string        `gorm:"size:128;uniqueIndex;not null" json:"transactionId"`
	UserID         string        `gorm:"type:varchar(36);index;not null" json:"userId"`
	Type           PaymentType   `gorm:"type:varchar(20);not null" json:"type"`
	Company        string        `gorm:"size:64" json:"company"`
	Currency       string        `gorm:"size:8" json:"currency"`
	Price          float64       `json:"price"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	SubscriptionID *string       `gorm:"type:varchar(36)" json:"subscriptionId,omitempty"`
	AdPromotionID  *string       `gorm:"type:varchar(36)" json:"adPromotionId,omitempty"`
}
