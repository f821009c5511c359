package enums

// OutboxEventType identifies a domain event emitted through the outbox.
type OutboxEventType string

const (
	EventStockReceived    OutboxEventType = "stock.received"
	EventBoxSold          OutboxEventType = "box.sold"
	EventOrderStatusMoved OutboxEventType = "order.status_changed"
)

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateStockBox OutboxAggregateType = "stock_box"
	AggregateOrder    OutboxAggregateType = "order"
)
