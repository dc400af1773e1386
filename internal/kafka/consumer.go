package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/challenge-tally/internal/config"
	"github.com/challenge-tally/internal/domain"
	"github.com/challenge-tally/internal/strava"
)

// ActivityEvent is the wire format for activity ingestion. Either
// MovingSeconds is carried directly, or Stats holds the raw feed stat lines
// and the moving time is recovered from them on consumption.
type ActivityEvent struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	StartDate      string             `json:"start_date"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	MovingSeconds  *int               `json:"moving_seconds,omitempty"`
	Stats          []strava.StatEntry `json:"stats,omitempty"`
	Title          string             `json:"title,omitempty"`
	WorkoutType    string             `json:"workout_type"`
}

// Activity converts the event into a domain activity.
func (e ActivityEvent) Activity() (domain.Activity, error) {
	startTime, err := time.Parse(time.RFC3339, e.StartDate)
	if err != nil {
		return domain.Activity{}, err
	}

	movingSeconds := e.MovingSeconds
	if movingSeconds == nil {
		if seconds, ok := strava.MovingSecondsFromStats(e.Stats); ok {
			movingSeconds = &seconds
		}
	}

	return domain.Activity{
		ID:             e.ID,
		UserID:         e.UserID,
		StartTime:      startTime,
		ElapsedSeconds: e.ElapsedSeconds,
		MovingSeconds:  movingSeconds,
		Title:          e.Title,
		WorkoutType:    e.WorkoutType,
	}, nil
}

// ActivitySink stores ingested activities
type ActivitySink interface {
	StoreActivities(ctx context.Context, activities []domain.Activity) error
}

// Consumer consumes activity events from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	sink          ActivitySink
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, sink ActivitySink, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		sink:          sink,
		logger:        logger,
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				consumer: c,
				ready:    c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if err == sarama.ErrClosedConsumerGroup {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			// Check if context was cancelled
			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	// Wait until consumer is ready
	<-c.ready
	c.logger.Info("Kafka consumer ready")

	// Handle errors in separate goroutine
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ready    chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from a topic partition
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	cfg := h.consumer.config
	batch := make([]domain.Activity, 0, cfg.BatchSize)
	batchTimer := time.NewTimer(cfg.BatchTimeout)
	defer batchTimer.Stop()

	processBatch := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := h.consumer.sink.StoreActivities(ctx, batch); err != nil {
			h.consumer.logger.Error("failed to store batch", "error", err, "batch_size", len(batch))
		} else {
			h.consumer.logger.Debug("stored batch", "batch_size", len(batch))
		}

		batch = batch[:0]
	}

	for {
		select {
		case <-session.Context().Done():
			// Process remaining batch before exit
			processBatch()
			return nil

		case <-batchTimer.C:
			processBatch()
			batchTimer.Reset(cfg.BatchTimeout)

		case message, ok := <-claim.Messages():
			if !ok {
				processBatch()
				return nil
			}

			var event ActivityEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				h.consumer.logger.Warn("failed to unmarshal message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			if event.ID == "" || event.UserID == "" {
				h.consumer.logger.Warn("invalid activity event",
					"activity_id", event.ID,
					"user_id", event.UserID,
				)
				session.MarkMessage(message, "")
				continue
			}

			activity, err := event.Activity()
			if err != nil {
				h.consumer.logger.Warn("invalid activity start date",
					"activity_id", event.ID,
					"start_date", event.StartDate,
					"error", err,
				)
				session.MarkMessage(message, "")
				continue
			}

			batch = append(batch, activity)
			session.MarkMessage(message, "")

			if len(batch) >= cfg.BatchSize {
				processBatch()
				batchTimer.Reset(cfg.BatchTimeout)
			}
		}
	}
}
