package amqp

import "log/slog"

// NewWithChannel builds a Publisher around a fake channel.
func NewWithChannel(ch channel, queue string, durable bool, logger *slog.Logger) *Publisher {
	return newPublisher(ch, queue, durable, logger)
}
