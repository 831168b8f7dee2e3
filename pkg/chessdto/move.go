package chessdto

// MovePayload is the body of the "move" event in both directions.
// Promotion is omitted by some servers on inbound moves.
type MovePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// DefaultPromotion is requested on every outbound move.
const DefaultPromotion = "q"
