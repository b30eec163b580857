package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderTracking follows an order through the leasing lifecycle. Every stage
// can be edited at any time; no transition order is enforced.
type OrderTracking struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	OrderID              uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;uniqueIndex"`
	FinancingStatus      string     `json:"financing_status" gorm:"default:'pending'"` // pending, validated, rejected
	IdentityCardFrontURL string     `json:"identity_card_front_url"`
	IdentityCardBackURL  string     `json:"identity_card_back_url"`
	TaxLiasseURL         string     `json:"tax_liasse_url"`
	BusinessPlanURL      string     `json:"business_plan_url"`
	DocusignLink         string     `json:"docusign_link"`
	SignedContractURL    string     `json:"signed_contract_url"`
	ContractNumber       string     `json:"contract_number"`
	DeliveryStatus       string     `json:"delivery_status" gorm:"default:'pending'"` // pending, in_transit, delivered, delivery_signed
	ContractStatus       string     `json:"contract_status" gorm:"default:'pending'"` // pending, signing, signed
	ContractEndDate      *time.Time `json:"contract_end_date"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (OrderTracking) TableName() string {
	return "order_tracking"
}

var (
	FinancingStatuses = []string{"pending", "validated", "rejected"}
	DeliveryStatuses  = []string{"pending", "in_transit", "delivered", "delivery_signed"}
	ContractStatuses  = []string{"pending", "signing", "signed"}
)

type TrackingStage string

const (
	StageFinancing   TrackingStage = "financing"
	StagePreparation TrackingStage = "preparation"
	StageSignature   TrackingStage = "signature"
	StageSigned      TrackingStage = "signed"
	StageDelivery    TrackingStage = "delivery"
	StageInProgress  TrackingStage = "in_progress"
	StageEnd         TrackingStage = "end"
)

type StageProgress struct {
	Stage     TrackingStage `json:"stage"`
	Started   bool          `json:"started"`
	Completed bool          `json:"completed"`
}

// Stages derives the progress of the seven lifecycle stages, in order.
func (t *OrderTracking) Stages() []StageProgress {
	return []StageProgress{
		{
			Stage:     StageFinancing,
			Started:   t.FinancingStatus != "",
			Completed: t.FinancingStatus == "validated" || t.FinancingStatus == "rejected",
		},
		{
			Stage:     StagePreparation,
			Started:   t.IdentityCardFrontURL != "" || t.IdentityCardBackURL != "",
			Completed: t.IdentityCardFrontURL != "" && t.IdentityCardBackURL != "",
		},
		{
			Stage:     StageSignature,
			Started:   t.TaxLiasseURL != "" || t.BusinessPlanURL != "",
			Completed: t.TaxLiasseURL != "" && t.BusinessPlanURL != "",
		},
		{
			Stage:     StageSigned,
			Started:   t.SignedContractURL != "" || t.ContractNumber != "" || t.DocusignLink != "",
			Completed: t.SignedContractURL != "" && t.ContractNumber != "",
		},
		{
			Stage:     StageDelivery,
			Started:   t.DeliveryStatus != "" && t.DeliveryStatus != "pending",
			Completed: t.DeliveryStatus == "delivered" || t.DeliveryStatus == "delivery_signed",
		},
		{
			Stage:     StageInProgress,
			Started:   t.ContractStatus != "" && t.ContractStatus != "pending",
			Completed: t.ContractStatus == "signed",
		},
		{
			Stage:     StageEnd,
			Started:   t.ContractEndDate != nil,
			Completed: t.ContractEndDate != nil,
		},
	}
}

// SyncWithOrderStatus moves the financing, contract and delivery statuses
// forward to match the order status and returns the fields it changed.
// Pending and draft orders reset all three; cancelled orders leave them as
// they are. A financing decision already taken is kept.
func (t *OrderTracking) SyncWithOrderStatus(status OrderStatus) []string {
	var changed []string
	set := func(field string, dst *string, value string) {
		if *dst != value {
			*dst = value
			changed = append(changed, field)
		}
	}

	switch {
	case status == OrderCancelled:
		return nil
	case status == OrderDraft || status == OrderPending:
		set("financing_status", &t.FinancingStatus, "pending")
		set("contract_status", &t.ContractStatus, "pending")
		set("delivery_status", &t.DeliveryStatus, "pending")
		return changed
	}

	if status.AtLeast(OrderSentToLeaser) && t.FinancingStatus != "validated" && t.FinancingStatus != "rejected" {
		set("financing_status", &t.FinancingStatus, "validated")
	}
	if status.AtLeast(OrderContractUploaded) {
		set("contract_status", &t.ContractStatus, "signed")
	}
	switch {
	case status == OrderShipped:
		set("delivery_status", &t.DeliveryStatus, "in_transit")
	case status.AtLeast(OrderDelivered) && t.DeliveryStatus != "delivery_signed":
		set("delivery_status", &t.DeliveryStatus, "delivered")
	}
	return changed
}
