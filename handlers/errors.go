package handlers

import (
	"net/http"

	"food-order-bot/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError renders err as {"error": msg} with the status code carried by
// domain errors. Anything else is a 500 and gets logged.
func respondError(c *gin.Context, log *logrus.Entry, err error, fields logrus.Fields) {
	code := apperr.StatusCode(err)
	if code >= http.StatusInternalServerError {
		log.WithFields(fields).WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(code, gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
