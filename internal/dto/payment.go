package dto

import "classifieds_backend/internal/models"

// PaymentConfirmation - то, что граница платёжного шлюза передаёт после оплаты.
// Сервис действует только при Status == "paid".
type PaymentConfirmation struct {
	Status         string  `json:"status" validate:"required,max=32"`
	TransactionID  string  `json:"transactionId" validate:"required,max=128"`
	Amount         float64 `json:"amount" validate:"gte=0"`
	Currency       string  `json:"currency" validate:"max=8"`
	Plan           string  `json:"plan" validate:"required"`
	UserID         string  `json:"userId" validate:"required"`
	AdID           string  `json:"adId"`
	PaymentType    string  `json:"paymentType" validate:"required,oneof=subscription promotion"`
	PaymentCompany string  `json:"paymentCompany" validate:"max=64"`
}

// PaymentResult - ответ платёжного пути. Applied=false означает no-op:
// статус не "paid" либо транзакция уже была применена (Duplicate).
type PaymentResult struct {
	Applied      bool                       `json:"applied"`
	Duplicate    bool                       `json:"duplicate,omitempty"`
	Status       string                     `json:"status"`
	Message      string                     `json:"message"`
	Transaction  *models.PaymentTransaction `json:"transaction,omitempty"`
	Subscription *models.Subscription       `json:"subscription,omitempty"`
	Promotion    *models.AdPromotion        `json:"promotion,omitempty"`
	Ad           *models.Ad                 `json:"ad,omitempty"`
}
