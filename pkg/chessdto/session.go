package chessdto

// Handshake is the Engine.IO open packet sent by the server.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// NamespaceAck is the body of a successful namespace CONNECT reply.
type NamespaceAck struct {
	SID string `json:"sid"`
}
