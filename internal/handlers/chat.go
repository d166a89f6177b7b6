package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/services"
)

type ChatHandler struct {
	log       *logger.Logger
	aiService services.AIService
	messages  repos.ChatMessageRepo
}

func NewChatHandler(log *logger.Logger, aiService services.AIService, messages repos.ChatMessageRepo) *ChatHandler {
	return &ChatHandler{
		log:       log.With("handler", "ChatHandler"),
		aiService: aiService,
		messages:  messages,
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body struct {
		Message string         `json:"message"`
		Context map[string]any `json:"context"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Message is required"))
		return
	}
	message, err := h.aiService.Chat(c.Request.Context(), rd.User, body.Message, body.Context)
	if err != nil {
		h.log.Error("Chat failed", "user_id", rd.User.ID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, message)
}

func (h *ChatHandler) History(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("Invalid limit"))
			return
		}
		limit = parsed
	}
	history, err := h.messages.History(c.Request.Context(), rd.User.ID, limit)
	if err != nil {
		h.log.Error("Chat history failed", "user_id", rd.User.ID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, history)
}
