package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dealhaus/deal-server-go/internal/bot"
	"github.com/dealhaus/deal-server-go/internal/game"
	"github.com/dealhaus/deal-server-go/internal/game/cards"
	"github.com/dealhaus/deal-server-go/internal/game/rules"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins once a web client origin is fixed
	},
}

// Connection is one websocket client, bound to a player seat once it creates
// or joins a game.
type Connection struct {
	ID       string
	PlayerID string
	GameID   string
	conn     *websocket.Conn
	send     chan []byte
	gateway  *Gateway
}

// Gateway bridges websocket clients to the engine and drives bot seats
// between human inputs.
type Gateway struct {
	logger     *zap.Logger
	engine     *game.DealEngine
	runner     *bot.Runner
	level      bot.Level
	thinkDelay time.Duration

	mu       sync.RWMutex
	conns    map[string]*Connection
	botBusy  map[string]bool
	archived map[string]bool

	onGameOver func(gameID string)
}

// NewGateway wires a gateway to an engine. The runner drives bot seats; the
// level applies to bots in games whose creator does not pick one.
func NewGateway(engine *game.DealEngine, runner *bot.Runner, level bot.Level, logger *zap.Logger) *Gateway {
	g := &Gateway{
		logger:   logger,
		engine:   engine,
		runner:   runner,
		level:    level,
		conns:    make(map[string]*Connection),
		botBusy:  make(map[string]bool),
		archived: make(map[string]bool),
	}
	engine.SetNotificationHandler(g.handleNotification)
	return g
}

// SetBotThinkDelay paces bot turns so connected clients can follow the moves.
func (g *Gateway) SetBotThinkDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thinkDelay = d
}

// SetGameOverHook registers a callback fired once per game when it reaches
// its terminal phase. Used to archive results and replays.
func (g *Gateway) SetGameOverHook(hook func(gameID string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onGameOver = hook
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWebSocket)
	return mux
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, 256),
		gateway: g,
	}

	g.mu.Lock()
	g.conns[c.ID] = c
	g.mu.Unlock()

	g.logger.Info("client connected", zap.String("conn_id", c.ID))

	go c.writePump()
	go c.readPump()
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.conns, c.ID)
	g.mu.Unlock()
	g.logger.Info("client disconnected", zap.String("conn_id", c.ID))
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.removeConnection(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gateway.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) sendMessage(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.gateway.logger.Error("failed to marshal server message", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow client; drop the message rather than block the gateway.
	}
}

func (c *Connection) sendError(err error) {
	c.sendMessage(ServerMessage{Type: MsgError, GameID: c.GameID, Error: err.Error()})
}

func (c *Connection) sendState() {
	if c.GameID == "" {
		return
	}
	view, err := c.gateway.engine.GetGameView(c.GameID, c.PlayerID)
	if err != nil {
		c.sendError(err)
		return
	}
	c.sendMessage(ServerMessage{Type: MsgState, GameID: c.GameID, PlayerID: c.PlayerID, State: view})
}

func (c *Connection) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(fmt.Errorf("invalid message: %w", err))
		return
	}

	if msg.Type == MsgCreateGame {
		c.handleCreateGame(msg)
		return
	}

	if c.GameID == "" {
		c.sendError(fmt.Errorf("no game joined"))
		return
	}

	var err error
	switch msg.Type {
	case MsgDrawCards:
		err = c.gateway.engine.DrawCards(c.GameID, c.PlayerID)
	case MsgPlayCard:
		err = c.gateway.engine.PlayCard(c.GameID, c.PlayerID, game.PlayRequest{
			CardID:         msg.CardID,
			Destination:    parseDestination(msg.Destination),
			TargetPlayerID: msg.TargetPlayerID,
			TargetCardID:   msg.TargetCardID,
			TargetColor:    cards.ParseColor(msg.TargetColor),
			AuxCardID:      msg.AuxCardID,
		})
	case MsgFlipWild:
		err = c.gateway.engine.FlipWildCard(c.GameID, c.PlayerID, msg.CardID, cards.ParseColor(msg.TargetColor))
	case MsgDiscardCards:
		err = c.gateway.engine.DiscardCards(c.GameID, c.PlayerID, msg.CardIDs)
	case MsgEndTurn:
		err = c.gateway.engine.EndTurn(c.GameID, c.PlayerID)
	case MsgConfirmPayment:
		err = c.gateway.engine.ConfirmPayment(c.GameID, c.PlayerID, msg.CardIDs)
	case MsgJustSayNo:
		err = c.gateway.engine.ReactWithJustSayNo(c.GameID, c.PlayerID)
	case MsgAcceptAction:
		err = c.gateway.engine.AcceptAction(c.GameID, c.PlayerID)
	case MsgGetState:
		c.sendState()
		return
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		c.sendError(err)
		return
	}
	c.sendState()
}

// handleCreateGame starts a game with this client in the first seat and the
// requested number of bot opponents.
func (c *Connection) handleCreateGame(msg ClientMessage) {
	bots := msg.Bots
	if bots < 1 {
		bots = 1
	}
	if bots > 3 {
		bots = 3
	}

	level := c.gateway.level
	if msg.BotLevel != "" {
		parsed, err := bot.ParseLevel(msg.BotLevel)
		if err != nil {
			c.sendError(err)
			return
		}
		level = parsed
	}

	gameID := uuid.NewString()
	playerID := uuid.NewString()
	name := msg.PlayerName
	if name == "" {
		name = "Player"
	}

	specs := []game.PlayerSpec{{PlayerID: playerID, Name: name}}
	botIDs := make([]string, 0, bots)
	for i := 0; i < bots; i++ {
		id := uuid.NewString()
		botIDs = append(botIDs, id)
		specs = append(specs, game.PlayerSpec{
			PlayerID: id,
			Name:     fmt.Sprintf("Bot %d", i+1),
			IsBot:    true,
		})
	}

	if err := c.gateway.engine.StartGame(gameID, specs); err != nil {
		c.sendError(err)
		return
	}
	for _, id := range botIDs {
		if err := c.gateway.runner.Register(gameID, id, level); err != nil {
			c.sendError(err)
			return
		}
	}

	c.GameID = gameID
	c.PlayerID = playerID
	c.sendMessage(ServerMessage{Type: MsgWelcome, GameID: gameID, PlayerID: playerID})
	c.sendState()
}

// handleNotification fans engine state changes out to connected clients and
// schedules bot turns. Runs on its own goroutine per notification.
func (g *Gateway) handleNotification(n game.GameNotification) {
	g.mu.RLock()
	var targets []*Connection
	for _, c := range g.conns {
		if c.GameID == n.GameID {
			targets = append(targets, c)
		}
	}
	g.mu.RUnlock()

	for _, c := range targets {
		c.sendState()
	}

	g.maybeArchive(n.GameID)
	g.maybeRunBot(n.GameID)
}

func (g *Gateway) maybeArchive(gameID string) {
	view, err := g.engine.GetGameView(gameID, "")
	if err != nil || view.Phase != rules.PhaseGameOver.String() {
		return
	}

	g.mu.Lock()
	hook := g.onGameOver
	done := g.archived[gameID]
	if !done {
		g.archived[gameID] = true
	}
	g.mu.Unlock()

	if done || hook == nil {
		return
	}
	hook(gameID)
}

// maybeRunBot runs the active bot's turn if one is due. The busy flag keeps
// concurrent notifications from double-driving the same game.
func (g *Gateway) maybeRunBot(gameID string) {
	view, err := g.engine.GetGameView(gameID, "")
	if err != nil {
		return
	}
	if view.Phase != rules.PhaseDraw.String() && view.Phase != rules.PhasePlaying.String() {
		return
	}
	var active *game.PlayerView
	for i := range view.Players {
		if view.Players[i].PlayerID == view.ActivePlayer {
			active = &view.Players[i]
			break
		}
	}
	if active == nil || !active.IsBot {
		return
	}

	g.mu.Lock()
	if g.botBusy[gameID] {
		g.mu.Unlock()
		return
	}
	g.botBusy[gameID] = true
	delay := g.thinkDelay
	g.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	defer func() {
		g.mu.Lock()
		delete(g.botBusy, gameID)
		g.mu.Unlock()
	}()

	if err := g.runner.RunTurn(gameID, active.PlayerID); err != nil {
		g.logger.Warn("bot turn failed",
			zap.String("game_id", gameID),
			zap.String("player_id", active.PlayerID),
			zap.Error(err),
		)
	}
}

func parseDestination(s string) rules.Destination {
	switch s {
	case "PROPERTIES":
		return rules.DestProperties
	case "ACTION":
		return rules.DestAction
	default:
		return rules.DestBank
	}
}
