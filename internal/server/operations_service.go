// file: internal/server/operations_service.go
// version: 1.0.0
// guid: 8b1c4d7e-0f3a-4b6c-99d2-e5f8a1b4c7d0

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tidybooks/tidybooks/internal/operations"
)

func (s *Server) listOperations(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			RespondWithValidationError(c, "limit", "must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	ops, err := s.store.ListOperations(limit)
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("list operations: %v", err))
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: ops, Count: len(ops), Limit: limit})
}

func (s *Server) listActiveOperations(c *gin.Context) {
	if operations.GlobalQueue == nil {
		RespondWithServiceUnavailable(c, "operation queue not initialized")
		return
	}
	active := operations.GlobalQueue.ActiveOperations()
	c.JSON(http.StatusOK, ListResponse{Items: active, Count: len(active)})
}

func (s *Server) getOperationStatus(c *gin.Context) {
	if operations.GlobalQueue == nil {
		RespondWithServiceUnavailable(c, "operation queue not initialized")
		return
	}

	op, err := operations.GlobalQueue.GetStatus(c.Param("id"))
	if err != nil {
		RespondWithNotFound(c, "operation", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, ItemResponse{Data: op})
}

func (s *Server) getOperationLogs(c *gin.Context) {
	logs, err := s.store.GetOperationLogs(c.Param("id"))
	if err != nil {
		RespondWithInternalError(c, fmt.Sprintf("operation logs: %v", err))
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: logs, Count: len(logs)})
}

func (s *Server) cancelOperation(c *gin.Context) {
	if operations.GlobalQueue == nil {
		RespondWithServiceUnavailable(c, "operation queue not initialized")
		return
	}

	id := c.Param("id")
	if err := operations.GlobalQueue.Cancel(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			RespondWithNotFound(c, "operation", id)
			return
		}
		RespondWithConflict(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "operation canceled", Code: "CANCELED"})
}
