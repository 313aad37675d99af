package domain

const (
	KeyAppName          = "app_name"
	KeyImagePath        = "image"
	KeyImageUsername    = "image_username"
	KeyImagePassword    = "image_password" // never printed by reporters
	KeyCredentialSource = "image_credential_source"
	KeyPort             = "port"
	KeyCPULimit         = "cpu_limit"
	KeyMemoryLimit      = "memory_limit"
	KeyPeers            = "peers"          // []string, compared as a set
	KeyExpectedUnits    = "expected_units" // []string, ordered by unit number

	// Relation databag keys
	RelationIngressAddress = "ingress-address"
	RelationPrivateAddress = "private-address"

	DefaultPort = 6379
)

// SensitiveKeys are redacted in reports and logs.
var SensitiveKeys = map[string]struct{}{
	KeyImagePassword: {},
}
