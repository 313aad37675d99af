package ecr

import (
	"context"

	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

//go:generate mockery --name ECRClient --output ../../../../mocks --outpkg mocks --case underscore
//go:generate mockery --name STSClient --output ../../../../mocks --outpkg mocks --case underscore

// ECRClient is the subset of the ECR API used to mint pull credentials.
type ECRClient interface {
	GetAuthorizationToken(ctx context.Context, params *awsecr.GetAuthorizationTokenInput, optFns ...func(*awsecr.Options)) (*awsecr.GetAuthorizationTokenOutput, error)
}

type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}
