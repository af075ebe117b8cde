// Package cognito exchanges service-account credentials for a short-lived
// SigV4 request-signing capability via Cognito federation.
package cognito

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	idptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// IdentityProviderAPI is the user-pool surface the authorizer needs.
type IdentityProviderAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// IdentityAPI is the identity-pool surface the authorizer needs.
type IdentityAPI interface {
	GetId(ctx context.Context, params *cognitoidentity.GetIdInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error)
	GetCredentialsForIdentity(ctx context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

// Config carries the federation and signing parameters.
type Config struct {
	Username       string
	Password       string
	ClientID       string
	IdentityPoolID string
	Provider       string // cognito-idp.<region>.amazonaws.com/<pool id>
	Region         string // Cognito region
	Service        string // service to sign for
	SigningRegion  string // region to sign for
}

// Authorizer produces request signers backed by temporary federated
// credentials. No caching across invocations: every call re-authenticates.
type Authorizer struct {
	idp      IdentityProviderAPI
	identity IdentityAPI
	cfg      Config
}

// New builds an Authorizer with SDK clients pinned to the Cognito region.
func New(awsCfg aws.Config, cfg Config) *Authorizer {
	return &Authorizer{
		idp: cognitoidentityprovider.NewFromConfig(awsCfg, func(o *cognitoidentityprovider.Options) {
			o.Region = cfg.Region
		}),
		identity: cognitoidentity.NewFromConfig(awsCfg, func(o *cognitoidentity.Options) {
			o.Region = cfg.Region
		}),
		cfg: cfg,
	}
}

// NewWithClients builds an Authorizer with injected clients, for tests.
func NewWithClients(idp IdentityProviderAPI, identity IdentityAPI, cfg Config) *Authorizer {
	return &Authorizer{idp: idp, identity: identity, cfg: cfg}
}

// Credentials authenticates the service account against the user pool and
// exchanges the resulting identity token for temporary credentials scoped to
// the identity pool.
func (a *Authorizer) Credentials(ctx context.Context) (aws.Credentials, error) {
	auth, err := a.idp.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: idptypes.AuthFlowTypeUserPasswordAuth,
		ClientId: &a.cfg.ClientID,
		AuthParameters: map[string]string{
			"USERNAME": a.cfg.Username,
			"PASSWORD": a.cfg.Password,
		},
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("initiate auth: %w", err)
	}
	if auth.AuthenticationResult == nil || auth.AuthenticationResult.IdToken == nil {
		return aws.Credentials{}, fmt.Errorf("initiate auth returned no identity token")
	}
	idToken := *auth.AuthenticationResult.IdToken
	logins := map[string]string{a.cfg.Provider: idToken}

	id, err := a.identity.GetId(ctx, &cognitoidentity.GetIdInput{
		IdentityPoolId: &a.cfg.IdentityPoolID,
		Logins:         logins,
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("get identity id: %w", err)
	}

	creds, err := a.identity.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: id.IdentityId,
		Logins:     logins,
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("get credentials for identity: %w", err)
	}
	if creds.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("identity pool returned no credentials")
	}

	out := aws.Credentials{
		AccessKeyID:     aws.ToString(creds.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(creds.Credentials.SecretKey),
		SessionToken:    aws.ToString(creds.Credentials.SessionToken),
		Source:          "CognitoIdentityFederation",
	}
	if creds.Credentials.Expiration != nil {
		out.CanExpire = true
		out.Expires = *creds.Credentials.Expiration
	}
	return out, nil
}

// NewSigner authenticates and returns a Signer bound to the configured
// service/region pair. A failure here is fatal to the workflow.
func (a *Authorizer) NewSigner(ctx context.Context) (*Signer, error) {
	creds, err := a.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	return &Signer{
		creds:   creds,
		service: a.cfg.Service,
		region:  a.cfg.SigningRegion,
		signer:  v4.NewSigner(),
		nowFunc: time.Now,
	}, nil
}

// Signer signs outgoing HTTP requests with SigV4.
type Signer struct {
	creds   aws.Credentials
	service string
	region  string
	signer  *v4.Signer
	nowFunc func() time.Time
}

// Sign computes the payload hash and signs the request in place.
func (s *Signer) Sign(ctx context.Context, req *http.Request, payload []byte) error {
	sum := sha256.Sum256(payload)
	hash := hex.EncodeToString(sum[:])
	if err := s.signer.SignHTTP(ctx, s.creds, req, hash, s.service, s.region, s.nowFunc().UTC()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}
