package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/retail-chat-dashboard/internal/mailrelay"
	"github.com/tbourn/retail-chat-dashboard/internal/services"
)

// TriggerMail godoc
// @ID          triggerMail
// @Summary     Start a mail
// @Description Relays the mail through the configured webhook, if any, and always returns a compose link.
// @Tags        Mail
// @Accept      json
// @Produce     json
// @Param       body  body  services.MailRequest  true  "Recipient, subject and body"
// @Success     200  {object}  services.MailResult
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ErrorResponse
// @Router      /mail [post]
func (h *Handlers) TriggerMail(c *gin.Context) {
	var req services.MailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.Mail.Trigger(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidRecipient):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Please enter a valid email address.")
	case errors.Is(err, services.ErrMailDelivery):
		fail(c, http.StatusBadGateway, ErrCodeMailFailed, mailrelay.StatusFailed)
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, mailrelay.StatusFailed)
	default:
		ok(c, http.StatusOK, res)
	}
}
