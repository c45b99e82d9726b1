package network

import (
	"encoding/json"

	"main/internal/schema"
)

// Telemetry record shapes. The discriminator is the type field; records
// are published without a framing prefix.

type orderUpdateRecord struct {
	Type           string  `json:"type"`
	OrderID        uint64  `json:"order_id"`
	Symbol         string  `json:"symbol"`
	Side           string  `json:"side"`
	Status         string  `json:"status"`
	PreviousStatus string  `json:"previous_status"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
	FilledQuantity float64 `json:"filled_quantity"`
}

type positionUpdateRecord struct {
	Type         string  `json:"type"`
	Symbol       string  `json:"symbol"`
	NetQuantity  float64 `json:"net_quantity"`
	AveragePrice float64 `json:"average_price"`
	RealizedPnL  float64 `json:"realized_pnl"`
}

type riskViolationRecord struct {
	Type         string  `json:"type"`
	Symbol       string  `json:"symbol"`
	Reason       string  `json:"reason"`
	CurrentValue float64 `json:"current_value"`
	LimitValue   float64 `json:"limit_value"`
}

// formatTelemetry serializes the event variants exposed over the
// telemetry socket. Other variants are not published.
func formatTelemetry(e schema.Event) ([]byte, bool) {
	switch ev := e.(type) {
	case schema.OrderUpdateEvent:
		return marshal(orderUpdateRecord{
			Type:           "order_update",
			OrderID:        ev.Order.ID,
			Symbol:         ev.Order.Symbol,
			Side:           ev.Order.Side.String(),
			Status:         ev.Order.Status.String(),
			PreviousStatus: ev.PreviousStatus.String(),
			Quantity:       ev.Order.Quantity,
			Price:          ev.Order.Price,
			FilledQuantity: ev.Order.FilledQuantity,
		})
	case schema.PositionUpdateEvent:
		return marshal(positionUpdateRecord{
			Type:         "position_update",
			Symbol:       ev.Position.Symbol,
			NetQuantity:  ev.Position.NetQuantity,
			AveragePrice: ev.Position.AveragePrice,
			RealizedPnL:  ev.Position.RealizedPnL,
		})
	case schema.RiskViolationEvent:
		return marshal(riskViolationRecord{
			Type:         "risk_violation",
			Symbol:       ev.Symbol,
			Reason:       ev.Reason,
			CurrentValue: ev.CurrentValue,
			LimitValue:   ev.LimitValue,
		})
	default:
		return nil, false
	}
}

func marshal(v any) ([]byte, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return b, true
}
