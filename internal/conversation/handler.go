package conversation

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ebs-uchimura/lineorder/internal/line"
)

// WebhookEvent mirrors the platform's event envelope. Only message events
// with a sender and reply token are usable.
type WebhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken" validate:"required"`
	Source     struct {
		UserID string `json:"userId" validate:"required"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

type WebhookRequest struct {
	Events []WebhookEvent `json:"events" validate:"required,min=1,dive"`
}

// Handler bridges the webhook transport to the state machine. The platform
// expects a fast 2xx no matter what happened internally, so every outcome
// acknowledges; replies travel through the dispatcher instead.
type Handler struct {
	machine    *Machine
	dispatcher *line.Dispatcher
	validate   *validator.Validate
}

func NewHandler(machine *Machine, dispatcher *line.Dispatcher) *Handler {
	return &Handler{
		machine:    machine,
		dispatcher: dispatcher,
		validate:   validator.New(),
	}
}

// Webhook handles POST /webhook.
func (h *Handler) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.NewString()

		var req WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("[%s] webhook bind failed: %v", reqID, err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		if err := h.validate.Struct(req); err != nil {
			log.Printf("[%s] webhook validation failed: %v", reqID, err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		// One event per request, per platform contract.
		ev := req.Events[0]
		msgs, err := h.machine.Handle(c.Request.Context(), Event{
			UserID:     ev.Source.UserID,
			ReplyToken: ev.ReplyToken,
			Text:       ev.Message.Text,
		})
		if err != nil {
			log.Printf("[%s] webhook handling failed for %s: %v", reqID, ev.Source.UserID, err)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		if len(msgs) > 0 {
			h.dispatcher.Enqueue(ev.ReplyToken, msgs)
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
