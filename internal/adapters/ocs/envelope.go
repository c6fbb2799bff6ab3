package ocs

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/tgruber/ncusers/internal/domain"
)

// envelope is the common OCS response document. Endpoint-specific payloads
// all hang off data; decoding ignores the subtrees an endpoint does not use.
type envelope struct {
	XMLName xml.Name `xml:"ocs"`
	Meta    meta     `xml:"meta"`
	Data    payload  `xml:"data"`
}

type meta struct {
	Status     string `xml:"status"`
	StatusCode int    `xml:"statuscode"`
	Message    string `xml:"message"`
}

type payload struct {
	Users        []string       `xml:"users>element"`
	Groups       []string       `xml:"groups>element"`
	Capabilities capabilityNode `xml:"capabilities"`
	Version      versionInfo    `xml:"version"`
}

type versionInfo struct {
	String  string `xml:"string"`
	Edition string `xml:"edition"`
}

// versionString renders the server version, with the edition appended after
// a hyphen when present.
func (v versionInfo) versionString() string {
	if v.Edition == "" {
		return v.String
	}
	return v.String + "-" + v.Edition
}

// capabilityNode holds an arbitrarily named capability subtree; app and key
// names are only known at runtime.
type capabilityNode struct {
	XMLName  xml.Name
	Value    string           `xml:",chardata"`
	Children []capabilityNode `xml:",any"`
}

// toMap flattens data/capabilities/<app>/<key> into app -> key -> value.
func (n capabilityNode) toMap() domain.Capabilities {
	if len(n.Children) == 0 {
		return nil
	}

	caps := make(domain.Capabilities, len(n.Children))
	for _, app := range n.Children {
		keys := make(map[string]string, len(app.Children))
		for _, entry := range app.Children {
			keys[entry.XMLName.Local] = strings.TrimSpace(entry.Value)
		}
		caps[app.XMLName.Local] = keys
	}

	return caps
}

// parseEnvelope decodes an HTTP-200 response body and applies the
// application-layer half of the classification: a status code outside
// accepted becomes *domain.APIError carrying meta/message, or the raw
// envelope when the server sent no message.
func parseEnvelope(body []byte, accepted ...int) (*envelope, error) {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse ocs envelope: %w", err)
	}

	for _, code := range accepted {
		if env.Meta.StatusCode == code {
			return &env, nil
		}
	}

	message := env.Meta.Message
	if message == "" {
		message = string(body)
	}

	return nil, &domain.APIError{Code: env.Meta.StatusCode, Message: message}
}
