package service

import (
	"context"
	"encoding/json"
	"log"

	"wa-concierge-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	conversation IConversationService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	conversation IConversationService,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		conversation: conversation,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.InboundMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal inbound message: %v", err)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Processing inbound message %s from %s", payload.MessageId, payload.Phone)

	if err := cs.conversation.HandleInbound(ctx, payload.Phone, payload.DisplayName, payload.Body); err != nil {
		// Redelivering would produce a duplicate reply, so the message is
		// acked either way.
		log.Printf("[ERROR] Failed to handle inbound message %s: %v", payload.MessageId, err)
	}
	msg.Ack()
}
