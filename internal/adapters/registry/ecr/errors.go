package ecr

import (
	"context"
	stderrs "errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/olusolaa/redis-k8s-charm/internal/errors"
)

var authErrorCodes = map[string]struct{}{
	"AccessDenied":                {},
	"AccessDeniedException":       {},
	"UnrecognizedClientException": {},
	"InvalidClientTokenId":        {},
	"ExpiredToken":                {},
	"ExpiredTokenException":       {},
	"SignatureDoesNotMatch":       {},
}

var notFoundErrorCodes = map[string]struct{}{
	"RepositoryNotFoundException": {},
	"RegistryNotFoundException":   {},
	"ImageNotFoundException":      {},
}

// classifyError maps an AWS API failure onto an application error code.
func classifyError(ctx context.Context, service, operation string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeTimeout, fmt.Sprintf("%s %s call cancelled", service, operation))
	}

	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := authErrorCodes[code]; ok {
			return errors.WrapUserFacing(err, errors.CodeRegistryAuthError,
				fmt.Sprintf("AWS rejected the credentials used for %s %s", service, operation),
				"Check the AWS credentials available to the charm and their ECR permissions.")
		}
		if _, ok := notFoundErrorCodes[code]; ok {
			return errors.Wrap(err, errors.CodeResourceNotFound, fmt.Sprintf("%s %s: registry resource not found", service, operation))
		}
	}
	return errors.Wrap(err, errors.CodeRegistryAPIError, fmt.Sprintf("%s %s failed", service, operation))
}
