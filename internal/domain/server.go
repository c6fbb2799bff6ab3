package domain

// Capabilities maps app name to that app's key/value capability pairs, as
// reported by the server's capability endpoint.
type Capabilities map[string]map[string]string

// ServerInfo is the result of a capability probe.
type ServerInfo struct {
	Version      string
	Capabilities Capabilities
}
