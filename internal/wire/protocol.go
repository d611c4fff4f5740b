package wire

import "fmt"

// MessageType is the closed set of frame tags PokeProtocol exchanges.
type MessageType string

const (
	TypeHandshakeRequest   MessageType = "HANDSHAKE_REQUEST"
	TypeHandshakeResponse  MessageType = "HANDSHAKE_RESPONSE"
	TypeSpectatorRequest   MessageType = "SPECTATOR_REQUEST"
	TypeBattleSetup        MessageType = "BATTLE_SETUP"
	TypeAttackAnnounce     MessageType = "ATTACK_ANNOUNCE"
	TypeDefenseAnnounce    MessageType = "DEFENSE_ANNOUNCE"
	TypeCalculationReport  MessageType = "CALCULATION_REPORT"
	TypeCalculationConfirm MessageType = "CALCULATION_CONFIRM"
	TypeResolutionRequest  MessageType = "RESOLUTION_REQUEST"
	TypeGameOver           MessageType = "GAME_OVER"
	TypeChatMessage        MessageType = "CHAT_MESSAGE"
	TypeAck                MessageType = "ACK"
)

// CommunicationMode is BATTLE_SETUP's transport-sharing hint. Sessions only
// ever send P2P; BROADCAST round-trips through the codec but nothing gives
// it fan-out semantics (SPEC_FULL.md §4, Open Question 4).
type CommunicationMode string

const (
	ModeP2P       CommunicationMode = "P2P"
	ModeBroadcast CommunicationMode = "BROADCAST"
)

// ContentType distinguishes CHAT_MESSAGE payload kinds.
type ContentType string

const (
	ContentText    ContentType = "TEXT"
	ContentSticker ContentType = "STICKER"
)

// HandshakeRequest is sent by the joiner to initiate a session.
type HandshakeRequest struct {
	PeerID      string
	Seed        *uint32 // optional client-suggested seed; HOST is authoritative regardless
	TeamPreview []string
}

func (m HandshakeRequest) Frame() *Frame {
	f := NewFrame(TypeHandshakeRequest).Set("peer_id", m.PeerID)
	if m.Seed != nil {
		f.Set("seed", int64(*m.Seed))
	}
	f.Set("team_preview", toAnySlice(m.TeamPreview))
	return f
}

func ParseHandshakeRequest(f *Frame) (HandshakeRequest, error) {
	if f.Type != TypeHandshakeRequest {
		return HandshakeRequest{}, fmt.Errorf("wire: expected %s, got %s", TypeHandshakeRequest, f.Type)
	}
	peerID, _ := f.String("peer_id")
	m := HandshakeRequest{PeerID: peerID, TeamPreview: stringSliceField(f, "team_preview")}
	if seed, ok := f.Int("seed"); ok {
		s := uint32(seed)
		m.Seed = &s
	}
	return m, nil
}

// HandshakeResponse is sent by the host, piggybacking an ack_number for the
// joiner's HANDSHAKE_REQUEST alongside the session seed.
type HandshakeResponse struct {
	Seed        uint32
	PeerID      string
	TeamPreview []string
	Timestamp   int64
}

func (m HandshakeResponse) Frame() *Frame {
	return NewFrame(TypeHandshakeResponse).
		Set("seed", int64(m.Seed)).
		Set("peer_id", m.PeerID).
		Set("team_preview", toAnySlice(m.TeamPreview)).
		Set("timestamp", m.Timestamp)
}

func ParseHandshakeResponse(f *Frame) (HandshakeResponse, error) {
	if f.Type != TypeHandshakeResponse {
		return HandshakeResponse{}, fmt.Errorf("wire: expected %s, got %s", TypeHandshakeResponse, f.Type)
	}
	seed, ok := f.Int("seed")
	if !ok {
		return HandshakeResponse{}, fmt.Errorf("wire: %s missing seed", TypeHandshakeResponse)
	}
	peerID, _ := f.String("peer_id")
	timestamp, _ := f.Int("timestamp")
	return HandshakeResponse{
		Seed:        uint32(seed),
		PeerID:      peerID,
		TeamPreview: stringSliceField(f, "team_preview"),
		Timestamp:   timestamp,
	}, nil
}

// SpectatorRequest asks to observe a session passively.
type SpectatorRequest struct {
	PeerID string
}

func (m SpectatorRequest) Frame() *Frame {
	return NewFrame(TypeSpectatorRequest).Set("peer_id", m.PeerID)
}

func ParseSpectatorRequest(f *Frame) (SpectatorRequest, error) {
	if f.Type != TypeSpectatorRequest {
		return SpectatorRequest{}, fmt.Errorf("wire: expected %s, got %s", TypeSpectatorRequest, f.Type)
	}
	peerID, _ := f.String("peer_id")
	return SpectatorRequest{PeerID: peerID}, nil
}

// StatBoosts mirrors a combatant's remaining boost-use counters on the wire.
type StatBoosts struct {
	SpAttackUses  int `json:"sp_attack_uses"`
	SpDefenseUses int `json:"sp_defense_uses"`
}

// BattleSetup announces a combatant's Pokémon and is exchanged by both peers
// before either enters WAITING_FOR_MOVE.
type BattleSetup struct {
	CommunicationMode CommunicationMode
	PokemonName       string
	StatBoosts        StatBoosts
}

func (m BattleSetup) Frame() *Frame {
	return NewFrame(TypeBattleSetup).
		Set("communication_mode", string(m.CommunicationMode)).
		Set("pokemon_name", m.PokemonName).
		Set("stat_boosts", map[string]any{
			"sp_attack_uses":  m.StatBoosts.SpAttackUses,
			"sp_defense_uses": m.StatBoosts.SpDefenseUses,
		})
}

func ParseBattleSetup(f *Frame) (BattleSetup, error) {
	if f.Type != TypeBattleSetup {
		return BattleSetup{}, fmt.Errorf("wire: expected %s, got %s", TypeBattleSetup, f.Type)
	}
	mode, _ := f.String("communication_mode")
	name, ok := f.String("pokemon_name")
	if !ok {
		return BattleSetup{}, fmt.Errorf("wire: %s missing pokemon_name", TypeBattleSetup)
	}
	boosts := StatBoosts{}
	if raw, found := f.Raw("stat_boosts"); found {
		if mp, ok := raw.(map[string]any); ok {
			boosts.SpAttackUses = intFromAny(mp["sp_attack_uses"])
			boosts.SpDefenseUses = intFromAny(mp["sp_defense_uses"])
		}
	}
	return BattleSetup{
		CommunicationMode: CommunicationMode(mode),
		PokemonName:       name,
		StatBoosts:        boosts,
	}, nil
}

// AttackAnnounce declares the attacker's chosen move for the turn.
type AttackAnnounce struct {
	MoveName string
}

func (m AttackAnnounce) Frame() *Frame {
	return NewFrame(TypeAttackAnnounce).Set("move_name", m.MoveName)
}

func ParseAttackAnnounce(f *Frame) (AttackAnnounce, error) {
	if f.Type != TypeAttackAnnounce {
		return AttackAnnounce{}, fmt.Errorf("wire: expected %s, got %s", TypeAttackAnnounce, f.Type)
	}
	name, ok := f.String("move_name")
	if !ok {
		return AttackAnnounce{}, fmt.Errorf("wire: %s missing move_name", TypeAttackAnnounce)
	}
	return AttackAnnounce{MoveName: name}, nil
}

// DefenseAnnounce carries no payload; it only acknowledges that the defender
// has seen the attack and is about to compute its own result.
type DefenseAnnounce struct{}

func (m DefenseAnnounce) Frame() *Frame {
	return NewFrame(TypeDefenseAnnounce)
}

func ParseDefenseAnnounce(f *Frame) (DefenseAnnounce, error) {
	if f.Type != TypeDefenseAnnounce {
		return DefenseAnnounce{}, fmt.Errorf("wire: expected %s, got %s", TypeDefenseAnnounce, f.Type)
	}
	return DefenseAnnounce{}, nil
}

// CalculationReport carries one peer's locally-computed turn outcome for
// cross-verification against the other peer's report.
type CalculationReport struct {
	Attacker            string
	MoveUsed            string
	RemainingHealth     int
	DamageDealt         int
	DefenderHPRemaining int
	StatusMessage       string
}

func (m CalculationReport) Frame() *Frame {
	return NewFrame(TypeCalculationReport).
		Set("attacker", m.Attacker).
		Set("move_used", m.MoveUsed).
		Set("remaining_health", m.RemainingHealth).
		Set("damage_dealt", m.DamageDealt).
		Set("defender_hp_remaining", m.DefenderHPRemaining).
		Set("status_message", m.StatusMessage)
}

func ParseCalculationReport(f *Frame) (CalculationReport, error) {
	if f.Type != TypeCalculationReport {
		return CalculationReport{}, fmt.Errorf("wire: expected %s, got %s", TypeCalculationReport, f.Type)
	}
	attacker, _ := f.String("attacker")
	move, _ := f.String("move_used")
	remaining, _ := f.Int("remaining_health")
	damage, ok := f.Int("damage_dealt")
	if !ok {
		return CalculationReport{}, fmt.Errorf("wire: %s missing damage_dealt", TypeCalculationReport)
	}
	defenderHP, ok := f.Int("defender_hp_remaining")
	if !ok {
		return CalculationReport{}, fmt.Errorf("wire: %s missing defender_hp_remaining", TypeCalculationReport)
	}
	status, _ := f.String("status_message")
	return CalculationReport{
		Attacker:            attacker,
		MoveUsed:            move,
		RemainingHealth:     int(remaining),
		DamageDealt:         int(damage),
		DefenderHPRemaining: int(defenderHP),
		StatusMessage:       status,
	}, nil
}

// CalculationConfirm acknowledges that both peers' reports matched.
type CalculationConfirm struct{}

func (m CalculationConfirm) Frame() *Frame {
	return NewFrame(TypeCalculationConfirm)
}

func ParseCalculationConfirm(f *Frame) (CalculationConfirm, error) {
	if f.Type != TypeCalculationConfirm {
		return CalculationConfirm{}, fmt.Errorf("wire: expected %s, got %s", TypeCalculationConfirm, f.Type)
	}
	return CalculationConfirm{}, nil
}

// ResolutionRequest is sent by a peer that detected a calculation mismatch,
// proposing its own values as the session's authoritative outcome.
type ResolutionRequest struct {
	Attacker            string
	MoveUsed            string
	DamageDealt         int
	DefenderHPRemaining int
}

func (m ResolutionRequest) Frame() *Frame {
	return NewFrame(TypeResolutionRequest).
		Set("attacker", m.Attacker).
		Set("move_used", m.MoveUsed).
		Set("damage_dealt", m.DamageDealt).
		Set("defender_hp_remaining", m.DefenderHPRemaining)
}

func ParseResolutionRequest(f *Frame) (ResolutionRequest, error) {
	if f.Type != TypeResolutionRequest {
		return ResolutionRequest{}, fmt.Errorf("wire: expected %s, got %s", TypeResolutionRequest, f.Type)
	}
	attacker, _ := f.String("attacker")
	move, _ := f.String("move_used")
	damage, ok := f.Int("damage_dealt")
	if !ok {
		return ResolutionRequest{}, fmt.Errorf("wire: %s missing damage_dealt", TypeResolutionRequest)
	}
	defenderHP, ok := f.Int("defender_hp_remaining")
	if !ok {
		return ResolutionRequest{}, fmt.Errorf("wire: %s missing defender_hp_remaining", TypeResolutionRequest)
	}
	return ResolutionRequest{
		Attacker:            attacker,
		MoveUsed:            move,
		DamageDealt:         int(damage),
		DefenderHPRemaining: int(defenderHP),
	}, nil
}

// GameOver announces the session's outcome; sent by the loser's opponent
// once it has applied the fatal turn's results locally.
type GameOver struct {
	Winner string
	Loser  string
}

func (m GameOver) Frame() *Frame {
	return NewFrame(TypeGameOver).Set("winner", m.Winner).Set("loser", m.Loser)
}

func ParseGameOver(f *Frame) (GameOver, error) {
	if f.Type != TypeGameOver {
		return GameOver{}, fmt.Errorf("wire: expected %s, got %s", TypeGameOver, f.Type)
	}
	winner, _ := f.String("winner")
	loser, _ := f.String("loser")
	return GameOver{Winner: winner, Loser: loser}, nil
}

// ChatMessage is orthogonal to the turn state machine: reliable, but
// deliverable in any phase.
type ChatMessage struct {
	SenderName  string
	ContentType ContentType
	MessageText string // set when ContentType == ContentText
	StickerData string // base64, set when ContentType == ContentSticker
}

func (m ChatMessage) Frame() *Frame {
	f := NewFrame(TypeChatMessage).
		Set("sender_name", m.SenderName).
		Set("content_type", string(m.ContentType))
	if m.ContentType == ContentSticker {
		f.Set("sticker_data", m.StickerData)
	} else {
		f.Set("message_text", m.MessageText)
	}
	return f
}

func ParseChatMessage(f *Frame) (ChatMessage, error) {
	if f.Type != TypeChatMessage {
		return ChatMessage{}, fmt.Errorf("wire: expected %s, got %s", TypeChatMessage, f.Type)
	}
	sender, _ := f.String("sender_name")
	contentType, _ := f.String("content_type")
	text, _ := f.String("message_text")
	sticker, _ := f.String("sticker_data")
	return ChatMessage{
		SenderName:  sender,
		ContentType: ContentType(contentType),
		MessageText: text,
		StickerData: sticker,
	}, nil
}

// Ack carries ack_number only — never a sequence_number, per invariant I2.
type Ack struct {
	AckNumber uint32
}

func (m Ack) Frame() *Frame {
	return NewFrame(TypeAck).WithAck(m.AckNumber)
}

func ParseAck(f *Frame) (Ack, error) {
	if f.Type != TypeAck {
		return Ack{}, fmt.Errorf("wire: expected %s, got %s", TypeAck, f.Type)
	}
	if !f.HasAck {
		return Ack{}, fmt.Errorf("wire: %s missing ack_number", TypeAck)
	}
	return Ack{AckNumber: f.Ack}, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func stringSliceField(f *Frame, key string) []string {
	raw, found := f.Raw(key)
	if !found {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
