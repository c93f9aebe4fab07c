package domain

// ConnectionStatus describes where a push subscription is in its lifecycle.
type ConnectionStatus string

const (
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnConnecting   ConnectionStatus = "connecting"
	ConnConnected    ConnectionStatus = "connected"
	ConnReconnecting ConnectionStatus = "reconnecting"
	ConnError        ConnectionStatus = "error"
)
