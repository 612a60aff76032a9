package server

import (
	"github.com/dealhaus/deal-server-go/internal/game"
)

// ClientMessage is the JSON command envelope received from a client.
type ClientMessage struct {
	Type string `json:"type"`

	// create_game
	PlayerName string `json:"player_name,omitempty"`
	Bots       int    `json:"bots,omitempty"`
	BotLevel   string `json:"bot_level,omitempty"`

	// game operations
	GameID         string   `json:"game_id,omitempty"`
	CardID         string   `json:"card_id,omitempty"`
	Destination    string   `json:"destination,omitempty"`
	TargetPlayerID string   `json:"target_player_id,omitempty"`
	TargetCardID   string   `json:"target_card_id,omitempty"`
	TargetColor    string   `json:"target_color,omitempty"`
	AuxCardID      string   `json:"aux_card_id,omitempty"`
	CardIDs        []string `json:"card_ids,omitempty"`
}

// Client command types.
const (
	MsgCreateGame     = "create_game"
	MsgDrawCards      = "draw_cards"
	MsgPlayCard       = "play_card"
	MsgFlipWild       = "flip_wild"
	MsgDiscardCards   = "discard_cards"
	MsgEndTurn        = "end_turn"
	MsgConfirmPayment = "confirm_payment"
	MsgJustSayNo      = "just_say_no"
	MsgAcceptAction   = "accept_action"
	MsgGetState       = "get_state"
)

// ServerMessage is the JSON envelope sent to a client.
type ServerMessage struct {
	Type     string         `json:"type"`
	GameID   string         `json:"game_id,omitempty"`
	PlayerID string         `json:"player_id,omitempty"`
	Error    string         `json:"error,omitempty"`
	State    *game.GameView `json:"state,omitempty"`
}

// Server message types.
const (
	MsgState   = "state"
	MsgError   = "error"
	MsgWelcome = "welcome"
)
