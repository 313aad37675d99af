// Package ecr resolves image pull credentials for images hosted in Amazon ECR.
package ecr

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

const (
	ProviderTypeECR = "ecr"

	// tokens are refreshed this long before AWS expires them
	refreshMargin = 5 * time.Minute
)

var registryHost = regexp.MustCompile(`^(\d{12})\.dkr\.ecr\.([a-z0-9-]+)\.amazonaws\.com(\.cn)?/`)

type Config struct {
	Region string `mapstructure:"region"`
	RPS    int    `mapstructure:"rps" validate:"gte=0,lte=50"`
}

type cachedToken struct {
	username string
	password string
	expires  time.Time
}

type Provider struct {
	ecr     ECRClient
	sts     STSClient
	limiter *Limiter
	logger  ports.Logger
	now     func() time.Time

	mu        sync.Mutex
	token     *cachedToken
	accountID string
}

var _ ports.ImageCredentialsProvider = (*Provider)(nil)

// NewProvider loads the default AWS credential chain.
func NewProvider(ctx context.Context, cfg Config, logger ports.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for ECR provider")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to load default AWS config")
	}
	return NewProviderWithClients(ctx, awsecr.NewFromConfig(awsCfg), sts.NewFromConfig(awsCfg), cfg, logger), nil
}

func NewProviderWithClients(ctx context.Context, ecrClient ECRClient, stsClient STSClient, cfg Config, logger ports.Logger) *Provider {
	return &Provider{
		ecr:     ecrClient,
		sts:     stsClient,
		limiter: NewLimiter(ctx, cfg.RPS, logger),
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Provider) Type() string {
	return ProviderTypeECR
}

func (p *Provider) Supports(registryPath string) bool {
	return registryHost.MatchString(registryPath)
}

func (p *Provider) Credentials(ctx context.Context, registryPath string) (string, string, error) {
	m := registryHost.FindStringSubmatch(registryPath)
	if m == nil {
		return "", "", errors.Newf(errors.CodeConfigValidation, "image %q is not hosted in ECR", registryPath)
	}
	registryAccount := m[1]

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != nil && p.now().Before(p.token.expires.Add(-refreshMargin)) {
		return p.token.username, p.token.password, nil
	}

	if account, err := p.callerAccount(ctx); err != nil {
		p.logger.Warnf(ctx, "Proceeding without AWS account ID due to STS error: %v", err)
	} else if account != registryAccount {
		p.logger.Warnf(ctx, "Pulling from registry account %s with credentials of account %s; the repository policy must allow it", registryAccount, account)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", "", classifyError(ctx, "ECR", "GetAuthorizationToken", err)
	}
	out, err := p.ecr.GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", "", classifyError(ctx, "ECR", "GetAuthorizationToken", err)
	}
	if out == nil || len(out.AuthorizationData) == 0 {
		return "", "", errors.New(errors.CodeRegistryAPIError, "ECR returned no authorization data")
	}

	data := out.AuthorizationData[0]
	user, pass, err := decodeToken(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return "", "", err
	}
	expires := p.now().Add(12 * time.Hour)
	if data.ExpiresAt != nil {
		expires = *data.ExpiresAt
	}
	p.token = &cachedToken{username: user, password: pass, expires: expires}
	p.logger.Debugf(ctx, "Obtained ECR authorization token valid until %s", expires.Format(time.RFC3339))
	return user, pass, nil
}

func (p *Provider) callerAccount(ctx context.Context) (string, error) {
	if p.accountID != "" {
		return p.accountID, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	output, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", classifyError(ctx, "STS", "GetCallerIdentity", err)
	}
	if output.Account == nil {
		return "", errors.New(errors.CodeRegistryAPIError, "AWS caller identity response did not contain Account ID")
	}
	p.accountID = *output.Account
	return p.accountID, nil
}

// decodeToken splits a base64 "user:password" authorization token.
func decodeToken(token string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", errors.Wrap(err, errors.CodeRegistryAuthError, "ECR authorization token is not valid base64")
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok || user == "" {
		return "", "", errors.New(errors.CodeRegistryAuthError, "ECR authorization token is malformed")
	}
	return user, pass, nil
}
