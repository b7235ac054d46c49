// Package event publishes platform domain events to Kafka. Only the producer
// side lives here; consumers (notification delivery, feed fanout) are
// separate deployments.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	pkgkafka "github.com/vikaskumar2611/streamly-sub001/pkg/kafka"
)

// Kafka topic constants for platform domain events.
const (
	TopicUserRegistered = "streamly.user.registered"
	TopicVideoPublished = "streamly.video.published"
)

// Aggregate type constants.
const (
	AggregateTypeUser  = "user"
	AggregateTypeVideo = "video"
)

// Source identifier for events originating from the API service.
const SourceAPI = "streamly-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// VideoPublishedData is the payload for a video.published event.
type VideoPublishedData struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
}

// Producer publishes platform domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return nil
}

// PublishVideoPublished publishes a video.published event.
func (p *Producer) PublishVideoPublished(ctx context.Context, video *domain.Video) error {
	data := VideoPublishedData{
		ID:      video.ID,
		OwnerID: video.OwnerID,
		Title:   video.Title,
		Slug:    video.Slug,
	}

	event, err := pkgkafka.NewEvent(TopicVideoPublished, video.ID, AggregateTypeVideo, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create video.published event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicVideoPublished, event); err != nil {
		return fmt.Errorf("publish video.published event: %w", err)
	}

	p.logger.DebugContext(ctx, "published video.published event",
		slog.String("video_id", video.ID),
		slog.String("owner_id", video.OwnerID),
	)

	return nil
}
