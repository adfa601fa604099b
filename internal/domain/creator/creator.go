package creator

import "time"

// Creator is the read model of a channel creator used for earnings and payouts
type Creator struct {
	ID              string    `json:"id"`
	ChannelID       string    `json:"channel_id"`
	DisplayName     string    `json:"display_name"`
	CommissionRate  float64   `json:"commission_rate"`
	BonusRate       float64   `json:"bonus_rate"`
	PayoutProvider  string    `json:"payout_provider"`
	PayoutRecipient string    `json:"payout_recipient"`
	TotalCommission int64     `json:"total_commission"`
	CreatedAt       time.Time `json:"created_at"`
}

// OrderStatus mirrors the subset of order states that count toward earnings
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
)

// Order is the read model of a creator-attributed order
type Order struct {
	ID          string      `json:"id"`
	ChannelID   string      `json:"channel_id"`
	CreatorID   string      `json:"creator_id"`
	Status      OrderStatus `json:"status"`
	Total       int64       `json:"total"`
	Currency    string      `json:"currency"`
	CompletedAt time.Time   `json:"completed_at"`
}

// RiskLevel classifies fraud-score records
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// FraudScoreRecord is one risk observation from the external fraud source
type FraudScoreRecord struct {
	ChannelID  string    `json:"channel_id"`
	CreatorID  string    `json:"creator_id"`
	Level      RiskLevel `json:"level"`
	RecordedAt time.Time `json:"recorded_at"`
}

// IsElevated reports whether the record counts toward the fraud-hold policy
func (r *FraudScoreRecord) IsElevated() bool {
	return r.Level == RiskLevelHigh || r.Level == RiskLevelCritical
}
