package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ParameterAPI is the part of the SSM client the source needs.
// *ssm.Client satisfies it.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads secrets from AWS Systems Manager Parameter Store. The
// secret "openai-api-key" with Prefix "/chatrelay/" is read from the
// parameter "/chatrelay/openai-api-key", decrypted.
type SSMSource struct {
	Prefix string
	api    ParameterAPI
}

// NewSSMSource creates a Parameter Store source over api.
func NewSSMSource(api ParameterAPI, prefix string) (*SSMSource, error) {
	if api == nil {
		return nil, errors.New("ssm api must not be nil")
	}
	return &SSMSource{Prefix: prefix, api: api}, nil
}

// NewDefaultSSMSource creates a Parameter Store source using the default
// AWS credential chain and region.
func NewDefaultSSMSource(ctx context.Context, prefix string) (*SSMSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSSMSource(ssm.NewFromConfig(cfg), prefix)
}

// Parameter returns the parameter name holding name.
func (s *SSMSource) Parameter(name string) string {
	return s.Prefix + strings.TrimSpace(name)
}

// Lookup implements Source.
func (s *SSMSource) Lookup(ctx context.Context, name string) (string, error) {
	param := s.Parameter(name)

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: parameter %s", ErrNotFound, param)
		}
		return "", fmt.Errorf("get parameter %q: %w", param, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", param)
	}
	return *out.Parameter.Value, nil
}

// Name implements Source.
func (s *SSMSource) Name() string { return "ssm" }
