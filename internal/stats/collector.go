package stats

import (
	"context"
	"log/slog"
)

// Collector decouples request handling from aggregation through a buffered
// channel. Track never blocks: when the buffer is full the event is dropped
// and the drop is logged.
type Collector struct {
	aggregator *Aggregator
	eventCh    chan SearchEvent
	logger     *slog.Logger
	done       chan struct{}
}

func NewCollector(aggregator *Aggregator, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		aggregator: aggregator,
		eventCh:    make(chan SearchEvent, bufferSize),
		logger:     slog.Default().With("component", "stats-collector"),
		done:       make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.aggregator.Record(event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("stats collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) Track(event SearchEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("stats event dropped (buffer full)")
	}
}

func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.aggregator.Record(event)
		default:
			return
		}
	}
}
