package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reframeapp/reframe/internal/identity"
	"github.com/reframeapp/reframe/internal/middleware"
	"github.com/reframeapp/reframe/internal/models"
	"github.com/reframeapp/reframe/pkg/utils"
	"github.com/sirupsen/logrus"
)

type Rewriter interface {
	Rewrite(ctx context.Context, id *identity.Identity, req models.RewriteRequest) (*models.RewriteResponse, error)
}

type RewriteHandler struct {
	rewriter Rewriter
	logger   *logrus.Logger
}

func NewRewriteHandler(rewriter Rewriter, logger *logrus.Logger) *RewriteHandler {
	return &RewriteHandler{rewriter: rewriter, logger: logger}
}

// HandleRewrite serves POST /rewrite. Authentication is optional.
func (h *RewriteHandler) HandleRewrite(c *gin.Context) {
	var req models.RewriteRequest
	if !bindJSON(c, &req) {
		return
	}

	id := middleware.CurrentIdentity(c)

	h.logger.WithFields(logrus.Fields{
		"identified":  id != nil,
		"text_length": len(req.UserText),
		"allow_infer": req.InferAllowed(),
	}).Debug("Processing rewrite request")

	resp, err := h.rewriter.Rewrite(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp)
}
