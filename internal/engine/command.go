package engine

import (
	"encoding/json"
	"fmt"
)

type okReply struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

type errorReply struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

type statusReply struct {
	Status    string           `json:"status"`
	Halted    bool             `json:"halted"`
	Positions []positionStatus `json:"positions"`
}

type positionStatus struct {
	Symbol       string  `json:"symbol"`
	NetQuantity  float64 `json:"net_quantity"`
	AveragePrice float64 `json:"average_price"`
	RealizedPnL  float64 `json:"realized_pnl"`
}

// handleCommand serves one operator command. Runs on the IPC goroutine;
// it only touches thread-safe reads and the latching kill switch.
func (e *Engine) handleCommand(cmd string) string {
	switch cmd {
	case "PING":
		return mustReply(okReply{Status: "ok", Response: "PONG"})

	case "STATUS":
		reply := statusReply{Status: "ok", Halted: e.riskEng.Halted()}
		for _, pos := range e.positions.Snapshots() {
			reply.Positions = append(reply.Positions, positionStatus{
				Symbol:       pos.Symbol,
				NetQuantity:  pos.NetQuantity,
				AveragePrice: pos.AveragePrice,
				RealizedPnL:  pos.RealizedPnL,
			})
		}
		if reply.Positions == nil {
			reply.Positions = []positionStatus{}
		}
		return mustReply(reply)

	case "HALT":
		e.riskEng.Halt()
		return mustReply(okReply{Status: "ok", Response: "Trading halted"})

	default:
		return mustReply(errorReply{
			Status:   "error",
			Response: fmt.Sprintf("Unknown command: %s", cmd),
		})
	}
}

func mustReply(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"status":"error","response":"internal serialization failure"}`
	}
	return string(b)
}
