package configs

import (
	"time"

	"github.com/spf13/viper"

	"github.com/gabble-chat/gabble/internal/chat"
	"github.com/gabble-chat/gabble/internal/hub"
)

// Retention returns the configured history window.
func Retention() time.Duration {
	days := viper.GetInt("retention-days")
	if days <= 0 {
		return chat.DefaultRetention
	}
	return time.Duration(days) * 24 * time.Hour
}

// LoginPolicy returns the configured duplicate-login behavior.
func LoginPolicy() hub.LoginPolicy {
	switch hub.LoginPolicy(viper.GetString("duplicate-login")) {
	case hub.PolicyEvict:
		return hub.PolicyEvict
	case hub.PolicyReject:
		return hub.PolicyReject
	default:
		return hub.PolicyAllow
	}
}

// AdminIdentities returns the identities allowed to clear the global scope.
// Empty means anyone.
func AdminIdentities() []string {
	return viper.GetStringSlice("admin-identities")
}

// Roster returns the fixed identity list for presence annotation, if any.
func Roster() []string {
	return viper.GetStringSlice("roster")
}

// AllowedOrigins returns the websocket origin allowlist. Empty allows all.
func AllowedOrigins() []string {
	return viper.GetStringSlice("allowed-origins")
}

// MaxMessageSize returns the largest accepted inbound frame in bytes.
func MaxMessageSize() int64 {
	return viper.GetInt64("max-message-size")
}
