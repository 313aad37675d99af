package ports

import "context"

//go:generate mockery --name ImageCredentialsProvider --output ./mocks --outpkg mocks --case underscore
type ImageCredentialsProvider interface {
	Type() string
	Supports(registryPath string) bool
	Credentials(ctx context.Context, registryPath string) (username, password string, err error)
}

//go:generate mockery --name ReadinessProbe --output ./mocks --outpkg mocks --case underscore
type ReadinessProbe interface {
	Ready(ctx context.Context, host string, port int) bool
}
