package httpapi

import (
	"time"

	"github.com/connectorhub/registry/internal/registry/domain/app"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
)

// repositoryPayload is the wire shape of a repository update.
type repositoryPayload struct {
	Type    *string        `json:"type,omitempty"`
	URI     *string        `json:"uri,omitempty"`
	Tag     *string        `json:"tag,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

func (p *repositoryPayload) toUpdate() *app.RepositoryUpdate {
	if p == nil {
		return nil
	}
	return &app.RepositoryUpdate{
		Type:    p.Type,
		URI:     p.URI,
		Tag:     p.Tag,
		Options: p.Options,
	}
}

// vendorAppPayload is the field set a vendor may write. Everything else --
// approval, version, audit fields, icons, runtime limits -- is absent here,
// so a request naming one fails decoding instead of being silently dropped.
type vendorAppPayload struct {
	Name                     *string            `json:"name,omitempty"`
	Type                     *string            `json:"type,omitempty"`
	Repository               *repositoryPayload `json:"repository,omitempty"`
	ShortDescription         *string            `json:"shortDescription,omitempty"`
	LongDescription          *string            `json:"longDescription,omitempty"`
	LicenseURL               *string            `json:"licenseUrl,omitempty"`
	DocumentationURL         *string            `json:"documentationUrl,omitempty"`
	Encryption               *bool              `json:"encryption,omitempty"`
	Network                  *string            `json:"network,omitempty"`
	DefaultBucket            *bool              `json:"defaultBucket,omitempty"`
	DefaultBucketStage       *string            `json:"defaultBucketStage,omitempty"`
	UIOptions                []string           `json:"uiOptions,omitempty"`
	ImageParameters          map[string]any     `json:"imageParameters,omitempty"`
	TestConfiguration        map[string]any     `json:"testConfiguration,omitempty"`
	ConfigurationSchema      map[string]any     `json:"configurationSchema,omitempty"`
	ConfigurationDescription *string            `json:"configurationDescription,omitempty"`
	ConfigurationFormat      *string            `json:"configurationFormat,omitempty"`
	EmptyConfiguration       map[string]any     `json:"emptyConfiguration,omitempty"`
	Actions                  []string           `json:"actions,omitempty"`
	Fees                     *bool              `json:"fees,omitempty"`
	Limits                   *string            `json:"limits,omitempty"`
	Logger                   *string            `json:"logger,omitempty"`
	LoggerConfiguration      map[string]any     `json:"loggerConfiguration,omitempty"`
	StagingStorageInput      *string            `json:"stagingStorageInput,omitempty"`
	IsVisible                *bool              `json:"isVisible,omitempty"`
	IsDeprecated             *bool              `json:"isDeprecated,omitempty"`
	ExpiredOn                *time.Time         `json:"expiredOn,omitempty"`
	ReplacementApp           *string            `json:"replacementApp,omitempty"`
	Permissions              []app.Permission   `json:"permissions,omitempty"`
}

func (p vendorAppPayload) toUpdate() app.Update {
	return app.Update{
		Name:                     p.Name,
		Type:                     p.Type,
		Repository:               p.Repository.toUpdate(),
		ShortDescription:         p.ShortDescription,
		LongDescription:          p.LongDescription,
		LicenseURL:               p.LicenseURL,
		DocumentationURL:         p.DocumentationURL,
		Encryption:               p.Encryption,
		Network:                  p.Network,
		DefaultBucket:            p.DefaultBucket,
		DefaultBucketStage:       p.DefaultBucketStage,
		UIOptions:                p.UIOptions,
		ImageParameters:          p.ImageParameters,
		TestConfiguration:        p.TestConfiguration,
		ConfigurationSchema:      p.ConfigurationSchema,
		ConfigurationDescription: p.ConfigurationDescription,
		ConfigurationFormat:      p.ConfigurationFormat,
		EmptyConfiguration:       p.EmptyConfiguration,
		Actions:                  p.Actions,
		Fees:                     p.Fees,
		Limits:                   p.Limits,
		Logger:                   p.Logger,
		LoggerConfiguration:      p.LoggerConfiguration,
		StagingStorageInput:      p.StagingStorageInput,
		IsVisible:                p.IsVisible,
		IsDeprecated:             p.IsDeprecated,
		ExpiredOn:                p.ExpiredOn,
		ReplacementApp:           p.ReplacementApp,
		Permissions:              p.Permissions,
	}
}

// createAppPayload adds the vendor-chosen id suffix to the writable fields.
type createAppPayload struct {
	ID string `json:"id"`
	vendorAppPayload
}

// adminAppPayload extends the vendor field set with runtime settings only
// admins may touch.
type adminAppPayload struct {
	vendorAppPayload
	RequiredMemory      *string `json:"requiredMemory,omitempty"`
	ProcessTimeout      *int    `json:"processTimeout,omitempty"`
	ForwardToken        *bool   `json:"forwardToken,omitempty"`
	ForwardTokenDetails *bool   `json:"forwardTokenDetails,omitempty"`
	InjectEnvironment   *bool   `json:"injectEnvironment,omitempty"`
	CPUShares           *int    `json:"cpuShares,omitempty"`
}

func (p adminAppPayload) toUpdate() app.Update {
	u := p.vendorAppPayload.toUpdate()
	u.RequiredMemory = p.RequiredMemory
	u.ProcessTimeout = p.ProcessTimeout
	u.ForwardToken = p.ForwardToken
	u.ForwardTokenDetails = p.ForwardTokenDetails
	u.InjectEnvironment = p.InjectEnvironment
	u.CPUShares = p.CPUShares
	return u
}

// --- Auth payloads ----------------------------------------------------------

type signUpPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Vendor   string `json:"vendor"`
	Password string `json:"password"`
}

type confirmPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailPayload struct {
	Email string `json:"email"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordPayload struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type vendorPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

func vendorFromPayload(p vendorPayload) vendor.Vendor {
	return vendor.Vendor{ID: p.ID, Name: p.Name, Address: p.Address, Email: p.Email}
}
