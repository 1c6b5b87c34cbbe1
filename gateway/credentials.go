package gateway

import (
	"fmt"

	"github.com/sokopay/SokoPay/config"
	"github.com/sokopay/SokoPay/models"
)

// Credentials is the resolved Daraja credential bundle used for a single
// push attempt.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Passkey        string
	Shortcode      string
	InitiatorName  string
	InitiatorPass  string
	CallbackURL    string
	Env            string // sandbox, production
}

// CredentialsFromConfig builds the process-wide default bundle.
func CredentialsFromConfig(cfg config.MpesaConfig) Credentials {
	return Credentials{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		Passkey:        cfg.Passkey,
		Shortcode:      cfg.Shortcode,
		InitiatorName:  cfg.InitiatorName,
		InitiatorPass:  cfg.InitiatorPass,
		CallbackURL:    cfg.CallbackURL,
		Env:            cfg.Env,
	}
}

// ResolveCredentials merges a merchant's business-profile overrides onto
// the defaults, field by field. Only non-empty override fields replace
// the corresponding default. A nil profile returns the defaults as-is.
func ResolveCredentials(defaults Credentials, profile *models.BusinessProfile) Credentials {
	creds := defaults
	if profile == nil {
		return creds
	}
	if profile.MpesaConsumerKey != "" {
		creds.ConsumerKey = profile.MpesaConsumerKey
	}
	if profile.MpesaConsumerSecret != "" {
		creds.ConsumerSecret = profile.MpesaConsumerSecret
	}
	if profile.MpesaPasskey != "" {
		creds.Passkey = profile.MpesaPasskey
	}
	if profile.MpesaShortcode != "" {
		creds.Shortcode = profile.MpesaShortcode
	}
	if profile.MpesaInitiatorName != "" {
		creds.InitiatorName = profile.MpesaInitiatorName
	}
	if profile.MpesaInitiatorPass != "" {
		creds.InitiatorPass = profile.MpesaInitiatorPass
	}
	if profile.MpesaCallbackURL != "" {
		creds.CallbackURL = profile.MpesaCallbackURL
	}
	if profile.MpesaEnv != "" {
		creds.Env = profile.MpesaEnv
	}
	return creds
}

// Validate reports the fields an STK push cannot proceed without.
func (c Credentials) Validate() error {
	if c.ConsumerKey == "" || c.ConsumerSecret == "" {
		return fmt.Errorf("missing consumer key/secret")
	}
	if c.Shortcode == "" {
		return fmt.Errorf("missing shortcode")
	}
	if c.Passkey == "" {
		return fmt.Errorf("missing passkey")
	}
	if c.CallbackURL == "" {
		return fmt.Errorf("missing callback URL")
	}
	return nil
}
