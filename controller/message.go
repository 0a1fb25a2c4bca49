package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"helpbot/lib"
	"helpbot/platform"
	"helpbot/service"
)

// MessageController adapts HTTP requests to the message service.
type MessageController struct {
	svc    *service.MessageService
	logger *logrus.Logger
}

func NewMessageController(svc *service.MessageService, logger *logrus.Logger) *MessageController {
	return &MessageController{svc: svc, logger: logger}
}

func (ctrl *MessageController) Create(c *gin.Context) {
	requestId := platform.RequestID(c.Request.Context())
	ctrl.logger.Infof("[%s] Handling create message request", requestId)

	body, err := c.GetRawData()
	if err != nil {
		ctrl.logger.Warnf("[%s] read body error, %s", requestId, err)
		c.JSON(http.StatusBadRequest, lib.Fail("Invalid JSON payload", err.Error()))
		return
	}

	req, err := ParseMessageRequest(body)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			ctrl.logger.Infof("[%s] Invalid input, %s", requestId, err)
			c.JSON(http.StatusBadRequest, lib.Fail(verr.Message, verr.Detail))
			return
		}
		ctrl.logger.Errorf("[%s] parse request error, %s", requestId, err)
		c.JSON(http.StatusInternalServerError, lib.Fail("An unexpected error occurred.", err.Error()))
		return
	}

	res := ctrl.svc.Submit(c.Request.Context(), req.Input())
	c.JSON(res.Status, res.Payload)
}

func (ctrl *MessageController) Get(c *gin.Context) {
	res := ctrl.svc.Fetch(c.Request.Context(), c.Param("id"))
	c.JSON(res.Status, res.Payload)
}

func (ctrl *MessageController) List(c *gin.Context) {
	res := ctrl.svc.List(c.Request.Context())
	c.JSON(res.Status, res.Payload)
}
