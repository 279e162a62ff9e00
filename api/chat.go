package api

import (
	"errors"
	"net/http"

	"github.com/mjozefiak/polcare/services"
	"github.com/mjozefiak/polcare/utils"

	"github.com/gin-gonic/gin"
)

// ClientChatRequest is the payload for sending one user message.
type ClientChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// transcriptResponse is the shape every chat endpoint answers with: the
// full transcript snapshot plus the busy flag the UI uses to disable input.
func (h *APIHandler) transcriptResponse() gin.H {
	return gin.H{
		"messages": h.store.Snapshot(),
		"busy":     h.store.IsBusy(),
		"thread":   h.store.CurrentThread(),
	}
}

// ChatHandler runs one conversation turn for the posted message and returns
// the resulting transcript.
func (h *APIHandler) ChatHandler(c *gin.Context) {
	var clientReq ClientChatRequest
	if err := c.ShouldBindJSON(&clientReq); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request payload: message is required.", err)
		return
	}

	err := h.conversation.SendMessage(c.Request.Context(), clientReq.Message)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		utils.SendJSONError(c, http.StatusBadRequest, "Message cannot be empty.", err)
		return
	case errors.Is(err, services.ErrTurnInProgress):
		utils.SendJSONError(c, http.StatusConflict, "Please wait for the assistant to finish responding.", err)
		return
	case err != nil:
		utils.SendJSONError(c, http.StatusInternalServerError, "", err)
		return
	}

	c.JSON(http.StatusOK, h.transcriptResponse())
}

// ChatHistoryHandler returns the current transcript snapshot.
func (h *APIHandler) ChatHistoryHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.transcriptResponse())
}

// ClearChatHandler empties the transcript and greets the user again.
func (h *APIHandler) ClearChatHandler(c *gin.Context) {
	h.conversation.ClearChat()
	c.JSON(http.StatusOK, h.transcriptResponse())
}

// PharmaciesHandler lists the known pharmacies, nearest first.
func (h *APIHandler) PharmaciesHandler(c *gin.Context) {
	pharmacies, err := h.pharmacyRepo.ListAll(c.Request.Context())
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pharmacies": pharmacies})
}

// DoctorsHandler lists the known doctors and clinics.
func (h *APIHandler) DoctorsHandler(c *gin.Context) {
	doctors, err := h.doctorRepo.ListAll(c.Request.Context())
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}
