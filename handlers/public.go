package handlers

import (
	"net/http"

	"food-order-bot/models"
	"food-order-bot/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the full state machine for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range statemachine.AllStatuses() {
		if statemachine.IsTerminal(s) {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"statuses":        statemachine.AllStatuses(),
		"terminal_states": terminal,
		"stock_effects": gin.H{
			string(models.StatusConfirmed): "salida: recipe and extras debited",
			string(models.StatusCancelled): "entrada: credited back when cancelled after confirmation",
		},
		"description": "Order lifecycle state machine",
	})
}
