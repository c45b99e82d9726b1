package reconcile

import (
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"main/internal/schema"
)

var ErrEmptyDSN = errors.New("postgres dsn is empty")

// PositionRecord is the persisted layout of one position row.
type PositionRecord struct {
	Symbol       string  `gorm:"column:symbol;primaryKey"`
	NetQuantity  float64 `gorm:"column:net_quantity"`
	AveragePrice float64 `gorm:"column:average_price"`
	RealizedPnL  float64 `gorm:"column:realized_pnl"`
}

func (PositionRecord) TableName() string { return "positions" }

// OrderRecord is the persisted layout of one open-order row.
type OrderRecord struct {
	ID             uint64  `gorm:"column:id;primaryKey"`
	StrategyID     string  `gorm:"column:strategy_id"`
	Symbol         string  `gorm:"column:symbol"`
	Side           string  `gorm:"column:side"`
	Quantity       float64 `gorm:"column:quantity"`
	Price          float64 `gorm:"column:price"`
	Status         string  `gorm:"column:status"`
	FilledQuantity float64 `gorm:"column:filled_quantity"`
}

func (OrderRecord) TableName() string { return "open_orders" }

// Postgres loads prior positions and open orders from a database during
// the warm-up gate. Both calls run on the orchestrator goroutine before
// any worker starts, so blocking queries are fine here.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres opens a connection pool against the given DSN.
func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) ReconcilePositions() ([]schema.Position, error) {
	var rows []PositionRecord
	if err := p.db.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load positions")
	}

	out := make([]schema.Position, 0, len(rows))
	for _, r := range rows {
		out = append(out, schema.Position{
			Symbol:       r.Symbol,
			NetQuantity:  r.NetQuantity,
			AveragePrice: r.AveragePrice,
			RealizedPnL:  r.RealizedPnL,
		})
	}
	return out, nil
}

func (p *Postgres) ReconcileOrders() ([]schema.Order, error) {
	var rows []OrderRecord
	if err := p.db.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load open orders")
	}

	out := make([]schema.Order, 0, len(rows))
	for _, r := range rows {
		side, ok := schema.ParseSide(r.Side)
		if !ok {
			logs.Warnf("open order %d has unknown side %q, skipped", r.ID, r.Side)
			continue
		}
		status, ok := schema.ParseOrderStatus(r.Status)
		if !ok {
			logs.Warnf("open order %d has unknown status %q, skipped", r.ID, r.Status)
			continue
		}
		out = append(out, schema.Order{
			ID:             r.ID,
			StrategyID:     r.StrategyID,
			Symbol:         r.Symbol,
			Side:           side,
			Quantity:       r.Quantity,
			Price:          r.Price,
			Status:         status,
			FilledQuantity: r.FilledQuantity,
		})
	}
	return out, nil
}
