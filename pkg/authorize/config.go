package authorize

import "github.com/Alijeyrad/medstage_backend/config"

// Config holds configuration for the authorization system
type Config struct {
	// CasbinModelPath overrides DefaultModel when set.
	CasbinModelPath string

	// EnableAudit logs every authorization decision.
	EnableAudit bool

	// PolicySyncEnabled propagates policy changes across instances through
	// the postgres watcher.
	PolicySyncEnabled bool
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	return Config{
		CasbinModelPath:   c.CasbinModelPath,
		EnableAudit:       c.EnableAudit,
		PolicySyncEnabled: c.PolicySyncEnabled,
	}
}
