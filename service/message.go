package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"helpbot/lib"
	"helpbot/metrics"
	"helpbot/model"
	"helpbot/platform"
	"helpbot/store"
)

// ListLimit is the number of messages List returns at most.
const ListLimit = 100

// MessageInput is a validated intake request.
type MessageInput struct {
	Content string
	UserID  *string
}

// Result pairs a response payload with its HTTP status.
type Result struct {
	Status  int
	Payload lib.Payload
}

// MessageService runs the intake pipeline and the read operations.
type MessageService struct {
	store     store.MessageStore
	responder Responder
	notifier  Notifier
	logger    *logrus.Logger
	now       func() time.Time
}

func NewMessageService(st store.MessageStore, responder Responder, notifier Notifier, logger *logrus.Logger) *MessageService {
	return &MessageService{
		store:     st,
		responder: responder,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit creates a message, asking the AI responder for a reply first and
// notifying the webhook afterwards. Only a store failure turns into a 500.
func (s *MessageService) Submit(ctx context.Context, in MessageInput) Result {
	requestId := platform.RequestID(ctx)

	msg := model.NewMessage(in.Content, in.UserID, s.now())

	if s.responder.Enabled() {
		if reply := s.responder.Generate(ctx, msg.Content); reply != "" {
			msg.AIResponse = &reply
			msg.Status = model.StatusProcessedByAI
		} else {
			msg.Status = model.StatusAIProcessingFailed
		}
	} else {
		msg.Status = model.StatusAIDisabled
	}

	if !msg.Status.Terminal() {
		s.logger.Errorf("[%s] Refusing to persist message in status %s", requestId, msg.Status)
		return Result{
			Status:  http.StatusInternalServerError,
			Payload: lib.Fail("An unexpected error occurred.", fmt.Sprintf("status %q is not final", msg.Status)),
		}
	}

	if _, err := s.store.Insert(ctx, msg); err != nil {
		s.logger.Errorf("[%s] Error creating message, %s", requestId, err)
		return Result{
			Status:  http.StatusInternalServerError,
			Payload: lib.Fail("An unexpected error occurred.", err.Error()),
		}
	}
	metrics.MessagesCreated.WithLabelValues(string(msg.Status)).Inc()
	s.logger.Infof("[%s] Message %s created, status: %s", requestId, msg.ID, msg.Status)

	if s.notifier.Enabled() {
		if !s.notifier.Notify(ctx, msg) {
			s.logger.Warnf("[%s] Failed to send message %s to n8n webhook", requestId, msg.ID)
		}
	}

	return Result{
		Status:  http.StatusCreated,
		Payload: lib.OK("Message created successfully.", msg),
	}
}

// Fetch looks a message up by id. Malformed ids never reach the store.
func (s *MessageService) Fetch(ctx context.Context, id string) Result {
	requestId := platform.RequestID(ctx)

	canonical, err := model.ParseID(id)
	if err != nil {
		s.logger.Infof("[%s] Invalid message id %q", requestId, id)
		return Result{
			Status:  http.StatusBadRequest,
			Payload: lib.Fail("Invalid message ID format.", nil),
		}
	}

	msg, err := s.store.FindByID(ctx, canonical)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{
				Status:  http.StatusNotFound,
				Payload: lib.Fail("Message not found.", nil),
			}
		}
		s.logger.Errorf("[%s] Error getting message %s, %s", requestId, canonical, err)
		return Result{
			Status:  http.StatusInternalServerError,
			Payload: lib.Fail("An unexpected error occurred while retrieving the message.", err.Error()),
		}
	}

	return Result{
		Status:  http.StatusOK,
		Payload: lib.OK("", msg),
	}
}

// List returns the most recent messages, newest first.
func (s *MessageService) List(ctx context.Context) Result {
	messages, err := s.store.ListRecent(ctx, ListLimit)
	if err != nil {
		s.logger.Errorf("[%s] Error listing messages, %s", platform.RequestID(ctx), err)
		return Result{
			Status:  http.StatusInternalServerError,
			Payload: lib.Fail("An unexpected error occurred while listing messages.", err.Error()),
		}
	}

	return Result{
		Status:  http.StatusOK,
		Payload: lib.List(messages),
	}
}
