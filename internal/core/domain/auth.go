package domain

// AuthContext contains authenticated user info for request context
type AuthContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// TokenClaims represents the JWT token payload for API callers
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// ConnectMode distinguishes a first connection from a re-authorisation.
type ConnectMode string

const (
	ConnectModeConnect   ConnectMode = "connect"
	ConnectModeReconnect ConnectMode = "reconnect"
)

// IsValid reports whether m is a known mode. The empty mode is resolved by
// the caller and is not valid here.
func (m ConnectMode) IsValid() bool {
	return m == ConnectModeConnect || m == ConnectModeReconnect
}

// OAuthStateClaims is the signed payload carried in the OAuth state parameter.
type OAuthStateClaims struct {
	UserID    string       `json:"uid"`
	Provider  ProviderType `json:"prv"`
	Mode      ConnectMode  `json:"mode"`
	Nonce     string       `json:"nonce"`
	IssuedAt  int64        `json:"iat"`
	ExpiresAt int64        `json:"exp"`
}

// ConnectStage names a step of one connection attempt.
type ConnectStage string

const (
	StageStarted                  ConnectStage = "started"
	StageAwaitingProviderRedirect ConnectStage = "awaiting_provider_redirect"
	StageCodeReceived             ConnectStage = "code_received"
	StageTokenExchanged           ConnectStage = "token_exchanged"
	StageIdentityResolved         ConnectStage = "identity_resolved"
	StageIdentityUnknown          ConnectStage = "identity_unknown"
	StagePersisted                ConnectStage = "persisted"

	// Terminal failures
	StageConfigMissing       ConnectStage = "config_missing"
	StageStateInvalid        ConnectStage = "state_invalid"
	StageTokenExchangeFailed ConnectStage = "token_exchange_failed"
	StageUserInfoFailed      ConnectStage = "user_info_failed"
)

// IsTerminalFailure reports whether the stage ends the attempt unsuccessfully.
func (s ConnectStage) IsTerminalFailure() bool {
	switch s {
	case StageConfigMissing, StageStateInvalid, StageTokenExchangeFailed, StageUserInfoFailed:
		return true
	}
	return false
}
