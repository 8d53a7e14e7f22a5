package session

import "encoding/json"

// clientMessage is the client->server JSON control frame shape (spec §4.9).
// Unrecognized or malformed frames are Protocol errors (spec §7): logged
// and dropped, never session-fatal.
type clientMessage struct {
	Type              string   `json:"type"`
	VADTailMs         *int     `json:"vad_tail_ms,omitempty"`
	VADAggressiveness *int     `json:"vad_aggressiveness,omitempty"`
	MinUttMs          *int     `json:"min_utt_ms,omitempty"`
	MaxUttMs          *int     `json:"max_utt_ms,omitempty"`
	PartialIntervalMs *int     `json:"partial_interval_ms,omitempty"`
}

func parseClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
