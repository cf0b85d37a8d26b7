package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/eshikshan/internal/entity"
	"github.com/ds124wfegd/eshikshan/pkg/broker"
)

// BrokerAdapter adapts broker.Publisher to EventPublisher.
type BrokerAdapter struct {
	publisher broker.Publisher
}

func NewBrokerAdapter(p broker.Publisher) *BrokerAdapter {
	return &BrokerAdapter{publisher: p}
}

// Publish keys events by submission so a partitioned broker keeps them ordered.
func (a *BrokerAdapter) Publish(ctx context.Context, event entity.LifecycleEvent) error {
	if a.publisher == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%d", event.Kind, event.SubmissionID)
	return a.publisher.Publish(ctx, key, event)
}
