// Package tcp checks Redis readiness by opening a TCP connection to its port.
package tcp

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
)

const DefaultTimeout = 2 * time.Second

type Probe struct {
	dialer *net.Dialer
	logger ports.Logger
}

var _ ports.ReadinessProbe = (*Probe)(nil)

func NewProbe(timeout time.Duration, logger ports.Logger) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{dialer: &net.Dialer{Timeout: timeout}, logger: logger}
}

func (p *Probe) Ready(ctx context.Context, host string, port int) bool {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		p.logger.Warnf(ctx, "Unable to connect to Redis at %s: %v", addr, err)
		return false
	}
	_ = conn.Close()
	p.logger.Debugf(ctx, "Redis service at %s is ready", addr)
	return true
}
