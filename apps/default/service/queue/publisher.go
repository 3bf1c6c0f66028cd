package queue

import (
	"context"

	"github.com/pitabwire/frame"
)

// Publisher sends business layer jobs through the frame queue manager.
type Publisher struct {
	service *frame.Service
}

func NewPublisher(service *frame.Service) *Publisher {
	return &Publisher{service: service}
}

func (p *Publisher) Publish(ctx context.Context, queue string, payload any) error {
	return p.service.Publish(ctx, queue, payload)
}
