package domain

// ImageDetails points at the OCI image the workload runs.
type ImageDetails struct {
	RegistryPath string `json:"registrypath" mapstructure:"registrypath" validate:"required"`
	Username     string `json:"username,omitempty" mapstructure:"username"`
	Password     string `json:"password,omitempty" mapstructure:"password"`
	// CredentialSource names the registry provider that minted Username and
	// Password. Empty when the operator set them.
	CredentialSource string `json:"credential_source,omitempty" mapstructure:"-"`
}

// HasCredentials reports whether pull credentials are set.
func (i ImageDetails) HasCredentials() bool {
	return i.Username != "" || i.Password != ""
}

type ResourceLimits struct {
	CPU    string `json:"cpu,omitempty" mapstructure:"cpu" validate:"omitempty,quantity"`
	Memory string `json:"memory,omitempty" mapstructure:"memory" validate:"omitempty,quantity"`
}

// Peer is another unit of the application as seen through the peer relation.
type Peer struct {
	Unit    string `json:"unit" validate:"required"`
	Address string `json:"address" validate:"required,ip|hostname_rfc1123"`
}

// CharmOptions are the operator-settable charm options.
type CharmOptions struct {
	Image     ImageDetails   `json:"image" mapstructure:"image"`
	Port      int            `json:"port" mapstructure:"port"`
	Resources ResourceLimits `json:"resources" mapstructure:"resources"`
}

// Configuration is everything the reconciler needs besides the event and
// the observed workload. It is assembled fresh for every event.
type Configuration struct {
	AppName       string `validate:"required"`
	Image         ImageDetails
	Port          int `validate:"min=1,max=65535"`
	Resources     ResourceLimits
	Leader        bool
	ExpectedUnits []string
	Peers         []Peer `validate:"dive"`
}

// WorkloadSpec is the running configuration of the Redis workload.
type WorkloadSpec struct {
	AppName       string         `json:"app_name"`
	Image         ImageDetails   `json:"image"`
	Port          int            `json:"port"`
	Resources     ResourceLimits `json:"resources"`
	Peers         []string       `json:"peers,omitempty"`
	ExpectedUnits []string       `json:"expected_units,omitempty"`
}

// Attributes flattens the spec into comparable attributes keyed by the Key* constants.
// Provider-minted credentials change on every token refresh, so only their
// source is compared.
func (s WorkloadSpec) Attributes() map[string]any {
	user, pass := s.Image.Username, s.Image.Password
	if s.Image.CredentialSource != "" {
		user, pass = "", ""
	}
	return map[string]any{
		KeyAppName:          s.AppName,
		KeyImagePath:        s.Image.RegistryPath,
		KeyImageUsername:    user,
		KeyImagePassword:    pass,
		KeyCredentialSource: s.Image.CredentialSource,
		KeyPort:             s.Port,
		KeyCPULimit:         s.Resources.CPU,
		KeyMemoryLimit:      s.Resources.Memory,
		KeyPeers:            s.Peers,
		KeyExpectedUnits:    s.ExpectedUnits,
	}
}

// DesiredState is recomputed from configuration on every event and never persisted.
type DesiredState struct {
	WorkloadSpec
}

// ObservedState is what the orchestration layer reports as running.
// A zero ObservedState means the workload is absent.
type ObservedState struct {
	WorkloadSpec
	Present  bool   `json:"present"`
	Revision string `json:"revision,omitempty"`
}

func ObservedFrom(spec WorkloadSpec, revision string) ObservedState {
	return ObservedState{WorkloadSpec: spec, Present: true, Revision: revision}
}
