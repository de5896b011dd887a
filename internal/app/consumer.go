/**
 * @description
 * Message handlers for the bridge transport channel. Two flows terminate
 * here:
 *
 * 1. Delivery callbacks for transfers this chain sent out: `delivered`
 *    finalizes the lock, `failed` re-mints the locked amount back to the
 *    sender (compensation).
 * 2. Inbound transfers from other chains: shares are minted to the recipient
 *    exactly once per transfer id, and a delivery callback is published back
 *    to the source chain.
 *
 * The transport is at-least-once, so every handler is idempotent: redelivered
 * messages detect the already-terminal record and ack without side effects.
 * Handlers return true to ack and false to nack-with-requeue; malformed
 * payloads are acked (dropped) because redelivery cannot fix them.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Abbas-Dev-786/securitifi/internal/domain"
	"github.com/Abbas-Dev-786/securitifi/internal/store"
	"github.com/Abbas-Dev-786/securitifi/pkg/rabbitmq"
	"github.com/google/uuid"
)

const consumerOpTimeout = 15 * time.Second

// BridgeConsumer processes transport messages for the bridge.
type BridgeConsumer struct {
	repo     store.Repository
	producer rabbitmq.Publisher
	service  *Service
}

// BridgeConsumer returns the message handler bound to this service instance.
func (s *Service) BridgeConsumer() *BridgeConsumer {
	return &BridgeConsumer{repo: s.repo, producer: s.eventProducer, service: s}
}

// HandleDeliveryCallback processes a destination chain's verdict on a
// transfer this chain sent out.
func (c *BridgeConsumer) HandleDeliveryCallback(body []byte) bool {
	var event domain.DeliveryCallbackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=bridge_consumer msg=\"malformed delivery callback; dropping\" err=%v", err)
		return true
	}
	if event.TransferID == uuid.Nil {
		log.Printf("level=error component=bridge_consumer msg=\"delivery callback missing transfer id; dropping\"")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), consumerOpTimeout)
	defer cancel()

	switch event.Outcome {
	case "delivered":
		changed, err := c.repo.MarkTransferDelivered(ctx, event.TransferID)
		if err != nil {
			if errors.Is(err, store.ErrTransferNotFound) {
				log.Printf("level=warn component=bridge_consumer msg=\"callback for unknown transfer; dropping\" transfer_id=%s", event.TransferID)
				return true
			}
			log.Printf("level=error component=bridge_consumer msg=\"failed to mark transfer delivered; requeueing\" transfer_id=%s err=%v", event.TransferID, err)
			return false
		}
		if changed {
			c.service.publishEvent(ctx, "bridge.transfer.delivered", map[string]string{"transfer_id": event.TransferID.String()})
		}
		return true

	case "failed":
		changed, err := c.repo.FailTransferAtomic(ctx, event.TransferID)
		if err != nil {
			if errors.Is(err, store.ErrTransferNotFound) {
				log.Printf("level=warn component=bridge_consumer msg=\"callback for unknown transfer; dropping\" transfer_id=%s", event.TransferID)
				return true
			}
			log.Printf("level=error component=bridge_consumer msg=\"failed to compensate transfer; requeueing\" transfer_id=%s err=%v", event.TransferID, err)
			return false
		}
		if changed {
			log.Printf("level=info component=bridge_consumer msg=\"transfer failed on destination; amount re-minted to sender\" transfer_id=%s reason=%q", event.TransferID, event.Reason)
			transfer, err := c.repo.GetTransferByID(ctx, event.TransferID)
			if err == nil {
				c.service.publishBalanceChanged(ctx, transfer.AssetID, "mint", nil, &transfer.SenderID, transfer.Amount)
			}
			c.service.publishEvent(ctx, "bridge.transfer.failed", event)
		}
		return true

	default:
		log.Printf("level=warn component=bridge_consumer msg=\"unknown callback outcome; dropping\" transfer_id=%s outcome=%q", event.TransferID, event.Outcome)
		return true
	}
}

// HandleInboundTransfer mints destination-side shares for a transfer locked
// on another chain, then reports the outcome back to the source chain.
func (c *BridgeConsumer) HandleInboundTransfer(body []byte) bool {
	var msg domain.OutboundTransferMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("level=error component=bridge_consumer msg=\"malformed inbound transfer; dropping\" err=%v", err)
		return true
	}
	if msg.TransferID == uuid.Nil || msg.SenderID == uuid.Nil || msg.Amount <= 0 {
		log.Printf("level=error component=bridge_consumer msg=\"invalid inbound transfer payload; dropping\" transfer_id=%s", msg.TransferID)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), consumerOpTimeout)
	defer cancel()

	asset, err := c.repo.GetAssetByID(ctx, msg.AssetID)
	if err != nil {
		if errors.Is(err, store.ErrAssetNotFound) {
			c.publishCallback(ctx, msg, "failed", "asset not registered on destination chain")
			return true
		}
		log.Printf("level=error component=bridge_consumer msg=\"asset lookup failed; requeueing\" transfer_id=%s err=%v", msg.TransferID, err)
		return false
	}
	// Destination-side supply may only grow for assets that are Verified
	// here. Paused assets refuse new bridge exposure just like outbound
	// lock-and-send does; the failure callback lets the source side
	// compensate the sender.
	switch asset.State {
	case domain.AssetVerified:
	case domain.AssetPaused:
		c.publishCallback(ctx, msg, "failed", "asset paused on destination chain")
		return true
	default:
		c.publishCallback(ctx, msg, "failed", "asset not verified on destination chain")
		return true
	}

	minted, err := c.repo.RecordInboundMintAtomic(ctx, msg.TransferID, msg.SenderID, msg.AssetID, msg.Amount)
	if err != nil {
		log.Printf("level=error component=bridge_consumer msg=\"inbound mint failed; requeueing\" transfer_id=%s err=%v", msg.TransferID, err)
		return false
	}
	if minted {
		c.service.publishBalanceChanged(ctx, msg.AssetID, "mint", nil, &msg.SenderID, msg.Amount)
	} else {
		log.Printf("level=info component=bridge_consumer msg=\"inbound transfer already minted; re-acking callback\" transfer_id=%s", msg.TransferID)
	}
	// Confirm on every delivery: the source side treats duplicate callbacks
	// as redeliveries.
	c.publishCallback(ctx, msg, "delivered", "")
	return true
}

func (c *BridgeConsumer) publishCallback(ctx context.Context, msg domain.OutboundTransferMessage, outcome, reason string) {
	if c.producer == nil {
		log.Printf("level=error component=bridge_consumer msg=\"no transport configured; cannot send callback\" transfer_id=%s", msg.TransferID)
		return
	}
	routingKey := fmt.Sprintf("bridge.delivery.%d", msg.SourceSelector)
	event := domain.DeliveryCallbackEvent{TransferID: msg.TransferID, Outcome: outcome, Reason: reason}
	if err := c.producer.Publish(ctx, BridgeExchange, routingKey, event); err != nil {
		log.Printf("level=error component=bridge_consumer msg=\"callback publish failed\" transfer_id=%s outcome=%s err=%v", msg.TransferID, outcome, err)
	}
}
