package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hvaldes/tienda_api/internal/models"
)

const orderEventsTopic = "order_events"

// EventPublisher is satisfied by mykafka.Producer. Event delivery is
// best effort: a broker outage must never fail a customer request.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

func publishOrderEvent(ctx context.Context, p EventPublisher, log *slog.Logger, eventType string, order *models.Order) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event := map[string]any{
		"type":    eventType,
		"orderID": order.ID,
		"status":  order.Status,
		"total":   order.Total,
	}
	if err := p.PublishEvent(ctx, orderEventsTopic, fmt.Sprint(order.ID), event); err != nil {
		log.Error("kafka publish error", "event", eventType, "orderID", order.ID, "error", err)
	}
}
