package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pocketbreak/backend/internal/game"
	"github.com/pocketbreak/backend/internal/rules"
)

// Match-specific message data types
type TransitionData struct {
	Kind string `json:"kind"`
	At   int64  `json:"at"`
}

type ShotEventsData struct {
	Events []rules.ShotEvent `json:"events"`
}

// MatchHub is the single hub for all matches.
var MatchHub *Hub

func init() {
	MatchHub = NewHub()
	go runMatchHub(MatchHub)
}

// HandleWebSocket handles WebSocket connections for live matches.
func HandleWebSocket(c *gin.Context) {
	matchToken := c.Query("token")
	playerToken := c.Query("pt")

	if matchToken == "" || playerToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and pt required"})
		return
	}

	m, err := game.Manager.GetMatchByToken(matchToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}

	playerID, err := game.Manager.VerifyPlayerToken(playerToken, matchToken)
	if err != nil || m.GetPlayerByID(playerID) == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid player token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:       conn,
		playerID:   playerID,
		opponentID: m.GetOpponentID(playerID),
		matchID:    m.ID,
		matchToken: matchToken,
		send:       make(chan []byte, 256),
	}

	MatchHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runMatchHub runs the hub with match lifecycle logic.
func runMatchHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()

			if oldClient, exists := h.clients[client.playerID]; exists {
				log.Printf("[WS] Player %s reconnecting - closing old connection", client.playerID)
				if err := oldClient.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("Error writing close control to old client %s: %v", oldClient.playerID, err)
				}
				oldClient.conn.Close()
				select {
				case <-oldClient.send:
				default:
					close(oldClient.send)
				}
				delete(h.clients, client.playerID)
				if room, exists := h.matchRooms[oldClient.matchID]; exists {
					delete(room, client.playerID)
				}
			}

			h.clients[client.playerID] = client
			if _, exists := h.matchRooms[client.matchID]; !exists {
				h.matchRooms[client.matchID] = make(map[string]*Client)
			}
			h.matchRooms[client.matchID][client.playerID] = client
			h.mu.Unlock()

			log.Printf("[WS] Player %s connected to match %s", client.playerID, client.matchID)

			m, err := game.Manager.GetMatchByToken(client.matchToken)
			if err != nil {
				log.Printf("[WS] Match not found for token %s: %v", client.matchToken, err)
				continue
			}

			client.opponentID = m.GetOpponentID(client.playerID)
			m.SetPlayerConnected(client.playerID, true)
			m.MarkPlayerShowedUp(client.playerID)

			if m.GetStatus() == game.StatusWaiting && m.BothPlayersConnected() {
				log.Printf("Both players connected - scheduling initialization of match %s", m.ID)

				go func(mRef *game.Match) {
					time.Sleep(150 * time.Millisecond)
					if mRef.GetStatus() != game.StatusWaiting || !mRef.BothPlayersConnected() {
						return
					}
					if err := mRef.Initialize(); err != nil {
						log.Printf("[WS] Init failed: %v", err)
						return
					}

					if mRef.SessionID > 0 && mRef.StartedAt != nil {
						if err := game.Manager.MarkSessionStarted(mRef.SessionID, *mRef.StartedAt); err != nil {
							log.Printf("[DB] MarkSessionStarted failed for session %d: %v", mRef.SessionID, err)
						}
					}
					game.Manager.SaveMatchToRedis(mRef)
					resetShotClock(mRef.Token, mRef.CurrentPlayerID())

					h.BroadcastToMatch(mRef.ID, map[string]interface{}{
						"type":    "match_starting",
						"message": "Both players connected! Rack and break...",
					})
					sendPersonalizedStates(h, mRef)
				}(m)
			} else {
				// Late joiner or reconnect: bring them up to date.
				state := m.StateForPlayer(client.playerID)
				state["type"] = "match_state"
				h.SendToPlayer(client.playerID, state)

				h.SendToPlayer(client.opponentID, map[string]interface{}{
					"type":   "opponent_connected",
					"player": client.playerID,
				})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if current, exists := h.clients[client.playerID]; exists && current == client {
				delete(h.clients, client.playerID)
				if room, ok := h.matchRooms[client.matchID]; ok {
					delete(room, client.playerID)
					if len(room) == 0 {
						delete(h.matchRooms, client.matchID)
					}
				}
				close(client.send)
			}
			h.mu.Unlock()

			log.Printf("[WS] Player %s disconnected from match %s", client.playerID, client.matchID)

			m, err := game.Manager.GetMatchByToken(client.matchToken)
			if err != nil {
				continue
			}
			m.SetPlayerDisconnected(client.playerID)

			h.SendToPlayer(client.opponentID, map[string]interface{}{
				"type":   "opponent_disconnected",
				"player": client.playerID,
			})

			// Forfeit if the player stays away past the grace period.
			go func(mRef *game.Match, playerID string) {
				grace := 120 * time.Second
				if wsConfig != nil {
					grace = time.Duration(wsConfig.DisconnectGracePeriodSecs) * time.Second
				}
				time.Sleep(grace)

				if mRef.GetStatus() != game.StatusInProgress {
					return
				}
				if p := mRef.GetPlayerByID(playerID); p == nil || p.Connected {
					return
				}

				log.Printf("[WS] Player %s did not return, forfeiting match %s", playerID, mRef.ID)
				mRef.ForfeitByDisconnect(playerID)
				game.Manager.PublishMatchEvent(map[string]interface{}{
					"type":        "player_forfeit",
					"match_token": mRef.Token,
					"match_id":    mRef.ID,
					"player":      playerID,
					"winner":      mRef.Winner,
				})
			}(m, client.playerID)
		}
	}
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		MatchHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for player %s: %v", c.playerID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	m, err := game.Manager.GetMatchByToken(c.matchToken)
	if err != nil {
		c.sendError("match not found")
		return
	}

	switch msg.Type {
	case "transition":
		var data TransitionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid transition data")
			return
		}
		c.handleTransition(m, data)

	case "shot_events":
		var data ShotEventsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid shot data")
			return
		}
		c.handleShot(m, data.Events)

	case "concede":
		log.Printf("[WS] Player %s concedes match %s", c.playerID, m.ID)
		m.ForfeitByConcede(c.playerID)
		MatchHub.BroadcastToMatch(m.ID, map[string]interface{}{
			"type":   "game_over",
			"winner": m.Winner,
			"reason": "concede",
		})
		sendPersonalizedStates(MatchHub, m)

	case "get_state":
		state := m.StateForPlayer(c.playerID)
		state["type"] = "match_state"
		if playerID, remaining := shotClockRemaining(m.Token); playerID != "" {
			state["shot_clock_player"] = playerID
			state["shot_clock_remaining"] = int(remaining.Seconds())
		}
		MatchHub.SendToPlayer(c.playerID, state)

	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

func (c *Client) handleTransition(m *game.Match, data TransitionData) {
	err := m.ApplyTransition(c.playerID, game.TransitionKind(data.Kind), data.At)
	if err != nil {
		if errors.Is(err, rules.ErrInvalidPhaseTransition) {
			c.sendError("transition not allowed in current phase")
		} else {
			c.sendError(err.Error())
		}
		return
	}

	game.Manager.SaveMatchToRedis(m)

	MatchHub.BroadcastToMatch(m.ID, map[string]interface{}{
		"type":   "transition_applied",
		"kind":   data.Kind,
		"player": c.playerID,
	})
	sendPersonalizedStates(MatchHub, m)
}

func (c *Client) handleShot(m *game.Match, events []rules.ShotEvent) {
	ruling, err := m.ApplyShot(c.playerID, events)
	if err != nil {
		if errors.Is(err, rules.ErrInvalidPhaseTransition) {
			c.sendError("shot not allowed in current phase")
		} else {
			c.sendError(err.Error())
		}
		return
	}

	game.Manager.SaveMatchToRedis(m)
	if p := m.GetPlayerByID(c.playerID); p != nil {
		game.Manager.RecordShot(m.SessionID, p.DBPlayerID, ruling.ShotNumber, ruling, events)
	}
	resetShotClock(m.Token, ruling.Turn)

	response := map[string]interface{}{
		"type":        "shot_ruling",
		"shot_number": ruling.ShotNumber,
		"outcome":     ruling.Outcome,
		"phase":       ruling.Phase,
		"next_turn":   ruling.Turn,
		"target":      ruling.Target,
		"score":       ruling.Score,
	}
	MatchHub.BroadcastToMatch(m.ID, response)

	if ruling.Outcome.Kind == rules.OutcomeGameOver {
		game.Manager.SaveFinalMatchState(m)
		MatchHub.BroadcastToMatch(m.ID, map[string]interface{}{
			"type":   "game_over",
			"winner": m.Winner,
			"reason": "ruled",
		})
	}
	sendPersonalizedStates(MatchHub, m)
}

// sendPersonalizedStates pushes each player their own view of the match.
func sendPersonalizedStates(h *Hub, m *game.Match) {
	for _, playerID := range []string{m.Player1.ID, m.Player2.ID} {
		state := m.StateForPlayer(playerID)
		state["type"] = "match_state"
		h.SendToPlayer(playerID, state)
	}
}
