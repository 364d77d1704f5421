package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/logging"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type SupportHandler struct {
	captcha services.CaptchaVerifier
	mailer  services.Mailer
	now     func() time.Time
}

func NewSupportHandler(captcha services.CaptchaVerifier, mailer services.Mailer) *SupportHandler {
	return &SupportHandler{captcha: captcha, mailer: mailer, now: time.Now}
}

// Submit forwards a contact form to the support inbox once the reCAPTCHA
// token checks out, and answers with the ticket id.
func (h *SupportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SupportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	remoteIP := clientIP(r)
	log := logging.Ctx(r.Context()).With().Str("component", "support").Str("ip", remoteIP).Logger()

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ok, reason, err := h.captcha.VerifyV2(ctx, req.RecaptchaToken, remoteIP)
	if err != nil {
		log.Error().Err(err).Msg("recaptcha verify failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to verify reCAPTCHA"))
		return
	}
	if !ok {
		log.Warn().Str("reason", reason).Msg("recaptcha rejected")
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("reCAPTCHA verification failed"))
		return
	}

	ticket := supportTicket(h.now())
	if err := h.mailer.SendSupportEmail(ctx, ticket, req.Name, req.Email, req.Message); err != nil {
		log.Error().Err(err).Str("ticket", ticket).Msg("support email failed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send support request"))
		return
	}

	log.Info().Str("ticket", ticket).Msg("support request sent")
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.SupportTicketResponse{Ticket: ticket}))
}

// supportTicket looks like RH-20260131-032508-A1B2C3D4.
func supportTicket(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RH-" + now.UTC().Format("20060102-150405") + "-" + id[:8]
}
