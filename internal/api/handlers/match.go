package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pocketbreak/backend/internal/config"
	"github.com/pocketbreak/backend/internal/game"
)

// JoinQueue puts a player in the matchmaking queue
// POST /api/v1/queue/join
func JoinQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle      string `json:"handle"`
			DisplayName string `json:"display_name"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
			return
		}

		handle := strings.TrimSpace(req.Handle)
		if handle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
			return
		}
		if req.DisplayName == "" {
			req.DisplayName = handle
		}

		result, err := game.Manager.JoinQueue(handle, req.DisplayName)
		if err != nil {
			log.Printf("JoinQueue failed for %s: %v", handle, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join queue"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// LeaveQueue removes a player from the matchmaking queue
// POST /api/v1/queue/leave
func LeaveQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Handle string `json:"handle"`
		}
		if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Handle) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
			return
		}

		removed := game.Manager.LeaveQueue(strings.TrimSpace(req.Handle))
		c.JSON(http.StatusOK, gin.H{"removed": removed})
	}
}

// CheckQueueStatus polls for a queued player's match credentials
// GET /api/v1/queue/status?handle=...
func CheckQueueStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := strings.TrimSpace(c.Query("handle"))
		if handle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle required"})
			return
		}

		result, err := game.Manager.CheckQueueResult(handle)
		if err != nil {
			log.Printf("CheckQueueStatus failed for %s: %v", handle, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"matched":      result.Matched,
			"match_token":  result.MatchToken,
			"player_id":    result.PlayerID,
			"player_token": result.PlayerToken,
			"queue_length": game.Manager.QueueLength(),
		})
	}
}

// CreateTestMatch creates a match for two handles without queueing
// POST /api/v1/match/test — development only
func CreateTestMatch(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Environment == "production" {
			c.JSON(http.StatusForbidden, gin.H{"error": "not available in production"})
			return
		}

		var req struct {
			Handle1 string `json:"handle1"`
			Handle2 string `json:"handle2"`
		}
		if err := c.BindJSON(&req); err != nil || req.Handle1 == "" || req.Handle2 == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "handle1 and handle2 required"})
			return
		}

		match, err := game.Manager.CreateTestMatch(req.Handle1, req.Handle2)
		if err != nil {
			log.Printf("CreateTestMatch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create match"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"match_token":   match.Token,
			"player1_id":    match.Player1.ID,
			"player1_token": match.Player1.PlayerToken,
			"player2_id":    match.Player2.ID,
			"player2_token": match.Player2.PlayerToken,
		})
	}
}

// GetMatchState returns the match state for a player
// GET /api/v1/match/:token?player_id=...
func GetMatchState() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		m, err := game.Manager.GetMatchByToken(token)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}

		playerID := c.Query("player_id")
		if playerID == "" || m.GetPlayerByID(playerID) == nil {
			// Public summary only
			c.JSON(http.StatusOK, gin.H{
				"match_id": m.ID,
				"status":   m.GetStatus(),
				"winner":   m.Winner,
				"win_type": m.WinType,
			})
			return
		}

		c.JSON(http.StatusOK, m.StateForPlayer(playerID))
	}
}
