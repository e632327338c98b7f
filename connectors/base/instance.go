// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"encoding/json"
	"fmt"
)

// AuthType names the authentication scheme of an instance
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "api_key"
)

// AuthConfig is a closed sum type: NoAuth, BasicAuth, BearerAuth or APIKeyAuth.
type AuthConfig interface {
	Type() AuthType
	authConfig()
}

// NoAuth sends no credentials
type NoAuth struct{}

// BasicAuth sends HTTP Basic credentials
type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// BearerAuth sends a bearer token
type BearerAuth struct {
	Token string `json:"token"`
}

// APIKeyAuth sends a raw key in Authorization or in Header when set
type APIKeyAuth struct {
	Key    string `json:"key"`
	Header string `json:"header,omitempty"`
}

func (NoAuth) Type() AuthType     { return AuthNone }
func (BasicAuth) Type() AuthType  { return AuthBasic }
func (BearerAuth) Type() AuthType { return AuthBearer }
func (APIKeyAuth) Type() AuthType { return AuthAPIKey }

func (NoAuth) authConfig()     {}
func (BasicAuth) authConfig()  {}
func (BearerAuth) authConfig() {}
func (APIKeyAuth) authConfig() {}

// SSLConfig is the declared TLS policy of an instance. Pointers distinguish
// "unset" from an explicit false.
type SSLConfig struct {
	RejectUnauthorized *bool `json:"rejectUnauthorized,omitempty"`
	AllowSelfSigned    *bool `json:"allowSelfSigned,omitempty"`
	// Timeout is the per-call timeout in milliseconds; 0 means the default.
	Timeout int `json:"timeout,omitempty"`
}

// Bool returns a pointer to b, for building SSLConfig literals
func Bool(b bool) *bool { return &b }

// Instance is one configured endpoint of a plugin
type Instance struct {
	ID        string
	Name      string
	BaseURL   string
	Auth      AuthConfig
	IsActive  bool
	Tags      []string
	SSLConfig *SSLConfig
}

// AuthType returns the scheme of the instance, treating a nil Auth as none
func (i Instance) AuthType() AuthType {
	if i.Auth == nil {
		return AuthNone
	}
	return i.Auth.Type()
}

// Clone returns a deep copy of the instance
func (i Instance) Clone() Instance {
	out := i
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	if i.SSLConfig != nil {
		ssl := *i.SSLConfig
		if ssl.RejectUnauthorized != nil {
			ssl.RejectUnauthorized = Bool(*ssl.RejectUnauthorized)
		}
		if ssl.AllowSelfSigned != nil {
			ssl.AllowSelfSigned = Bool(*ssl.AllowSelfSigned)
		}
		out.SSLConfig = &ssl
	}
	return out
}

type instanceWire struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	BaseURL    string          `json:"baseUrl"`
	AuthType   AuthType        `json:"authType"`
	AuthConfig json.RawMessage `json:"authConfig,omitempty"`
	IsActive   bool            `json:"isActive"`
	Tags       []string        `json:"tags"`
	SSLConfig  *SSLConfig      `json:"sslConfig,omitempty"`
}

// MarshalJSON renders the auth union as authType + authConfig
func (i Instance) MarshalJSON() ([]byte, error) {
	w := instanceWire{
		ID:        i.ID,
		Name:      i.Name,
		BaseURL:   i.BaseURL,
		AuthType:  i.AuthType(),
		IsActive:  i.IsActive,
		Tags:      i.Tags,
		SSLConfig: i.SSLConfig,
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if i.Auth != nil && i.AuthType() != AuthNone {
		raw, err := json.Marshal(i.Auth)
		if err != nil {
			return nil, err
		}
		w.AuthConfig = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes authType + authConfig into the matching AuthConfig
func (i *Instance) UnmarshalJSON(data []byte) error {
	var w instanceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	auth, err := DecodeAuth(w.AuthType, w.AuthConfig)
	if err != nil {
		return err
	}

	*i = Instance{
		ID:        w.ID,
		Name:      w.Name,
		BaseURL:   w.BaseURL,
		Auth:      auth,
		IsActive:  w.IsActive,
		Tags:      w.Tags,
		SSLConfig: w.SSLConfig,
	}
	return nil
}

// DecodeAuth builds an AuthConfig from its wire form. An empty authType is
// treated as none; an unknown one is rejected.
func DecodeAuth(authType AuthType, raw json.RawMessage) (AuthConfig, error) {
	var target AuthConfig
	switch authType {
	case "", AuthNone:
		return NoAuth{}, nil
	case AuthBasic:
		var a BasicAuth
		if err := decodeAuthConfig(raw, &a); err != nil {
			return nil, authDecodeError(authType, err)
		}
		target = a
	case AuthBearer:
		var a BearerAuth
		if err := decodeAuthConfig(raw, &a); err != nil {
			return nil, authDecodeError(authType, err)
		}
		target = a
	case AuthAPIKey:
		var a APIKeyAuth
		if err := decodeAuthConfig(raw, &a); err != nil {
			return nil, authDecodeError(authType, err)
		}
		target = a
	default:
		return nil, fmt.Errorf("%w: unsupported authType %q", ErrInvalid, authType)
	}
	return target, nil
}

func decodeAuthConfig(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func authDecodeError(authType AuthType, err error) error {
	return fmt.Errorf("%w: invalid authConfig for %s: %v", ErrInvalid, authType, err)
}
