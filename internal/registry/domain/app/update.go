package app

import (
	"slices"
	"time"

	"github.com/connectorhub/registry/internal/apperr"
)

// RepositoryUpdate carries the repository fields a caller wants to change.
// Nil fields leave the stored column untouched.
type RepositoryUpdate struct {
	Type    *string        `json:"type,omitempty"`
	URI     *string        `json:"uri,omitempty"`
	Tag     *string        `json:"tag,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// Update is the typed mutation payload for an app. Only non-nil fields are
// written, so a partial update never clobbers unspecified columns.
//
// Identity, audit and computed fields (id, vendor, isPublic, version,
// createdOn, createdBy, icons, legacyUri) have no counterpart here; callers
// cannot set them by construction. Fields reserved to platform operators
// (requiredMemory, processTimeout, forwardToken*, injectEnvironment,
// cpuShares) are present so the admin API can set them; the vendor-facing
// wire payload does not expose them.
type Update struct {
	Name       *string           `json:"name,omitempty"`
	Type       *string           `json:"type,omitempty"`
	Repository *RepositoryUpdate `json:"repository,omitempty"`

	ShortDescription *string `json:"shortDescription,omitempty"`
	LongDescription  *string `json:"longDescription,omitempty"`
	LicenseURL       *string `json:"licenseUrl,omitempty"`
	DocumentationURL *string `json:"documentationUrl,omitempty"`

	RequiredMemory      *string `json:"requiredMemory,omitempty"`
	ProcessTimeout      *int    `json:"processTimeout,omitempty"`
	Encryption          *bool   `json:"encryption,omitempty"`
	Network             *string `json:"network,omitempty"`
	DefaultBucket       *bool   `json:"defaultBucket,omitempty"`
	DefaultBucketStage  *string `json:"defaultBucketStage,omitempty"`
	ForwardToken        *bool   `json:"forwardToken,omitempty"`
	ForwardTokenDetails *bool   `json:"forwardTokenDetails,omitempty"`
	InjectEnvironment   *bool   `json:"injectEnvironment,omitempty"`
	CPUShares           *int    `json:"cpuShares,omitempty"`

	UIOptions                []string       `json:"uiOptions,omitempty"`
	ImageParameters          map[string]any `json:"imageParameters,omitempty"`
	TestConfiguration        map[string]any `json:"testConfiguration,omitempty"`
	ConfigurationSchema      map[string]any `json:"configurationSchema,omitempty"`
	ConfigurationDescription *string        `json:"configurationDescription,omitempty"`
	ConfigurationFormat      *string        `json:"configurationFormat,omitempty"`
	EmptyConfiguration       map[string]any `json:"emptyConfiguration,omitempty"`
	Actions                  []string       `json:"actions,omitempty"`
	Fees                     *bool          `json:"fees,omitempty"`
	Limits                   *string        `json:"limits,omitempty"`
	Logger                   *string        `json:"logger,omitempty"`
	LoggerConfiguration      map[string]any `json:"loggerConfiguration,omitempty"`
	StagingStorageInput      *string        `json:"stagingStorageInput,omitempty"`

	IsVisible      *bool      `json:"isVisible,omitempty"`
	IsDeprecated   *bool      `json:"isDeprecated,omitempty"`
	ExpiredOn      *time.Time `json:"expiredOn,omitempty"`
	ReplacementApp *string    `json:"replacementApp,omitempty"`

	Permissions []Permission `json:"permissions,omitempty"`
}

// Empty reports whether the update carries no fields at all. An empty update
// is a no-op: no version bump, no snapshot.
func (u Update) Empty() bool {
	return u.Name == nil && u.Type == nil && u.Repository == nil &&
		u.ShortDescription == nil && u.LongDescription == nil &&
		u.LicenseURL == nil && u.DocumentationURL == nil &&
		u.RequiredMemory == nil && u.ProcessTimeout == nil &&
		u.Encryption == nil && u.Network == nil &&
		u.DefaultBucket == nil && u.DefaultBucketStage == nil &&
		u.ForwardToken == nil && u.ForwardTokenDetails == nil &&
		u.InjectEnvironment == nil && u.CPUShares == nil &&
		u.UIOptions == nil && u.ImageParameters == nil &&
		u.TestConfiguration == nil && u.ConfigurationSchema == nil &&
		u.ConfigurationDescription == nil && u.ConfigurationFormat == nil &&
		u.EmptyConfiguration == nil && u.Actions == nil &&
		u.Fees == nil && u.Limits == nil &&
		u.Logger == nil && u.LoggerConfiguration == nil &&
		u.StagingStorageInput == nil &&
		u.IsVisible == nil && u.IsDeprecated == nil &&
		u.ExpiredOn == nil && u.ReplacementApp == nil &&
		u.Permissions == nil
}

// Validate checks the semantic constraints that need registry state: the type
// enum and that every permission references a known stack. It fails before
// anything is written.
func (u Update) Validate(stacks []string) error {
	if u.Type != nil && !slices.Contains(Types, *u.Type) {
		return apperr.Unprocessable("type %s is not supported", *u.Type)
	}
	for _, p := range u.Permissions {
		if !slices.Contains(stacks, p.Stack) {
			return apperr.Unprocessable("stack %s is not supported", p.Stack)
		}
	}
	return nil
}

// Apply writes the present fields of the update onto the app. The relational
// store expresses the same semantics in SQL; this form backs the in-memory
// store and keeps both behaviours aligned.
func (a *App) Apply(u Update) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setStr(&a.Name, u.Name)
	setStr(&a.Type, u.Type)
	if u.Repository != nil {
		if a.Repository == nil {
			a.Repository = &Repository{}
		}
		setStr(&a.Repository.Type, u.Repository.Type)
		setStr(&a.Repository.URI, u.Repository.URI)
		setStr(&a.Repository.Tag, u.Repository.Tag)
		if u.Repository.Options != nil {
			a.Repository.Options = u.Repository.Options
		}
	}
	setStr(&a.ShortDescription, u.ShortDescription)
	setStr(&a.LongDescription, u.LongDescription)
	setStr(&a.LicenseURL, u.LicenseURL)
	setStr(&a.DocumentationURL, u.DocumentationURL)
	setStr(&a.RequiredMemory, u.RequiredMemory)
	setInt(&a.ProcessTimeout, u.ProcessTimeout)
	setBool(&a.Encryption, u.Encryption)
	setStr(&a.Network, u.Network)
	setBool(&a.DefaultBucket, u.DefaultBucket)
	setStr(&a.DefaultBucketStage, u.DefaultBucketStage)
	setBool(&a.ForwardToken, u.ForwardToken)
	setBool(&a.ForwardTokenDetails, u.ForwardTokenDetails)
	setBool(&a.InjectEnvironment, u.InjectEnvironment)
	setInt(&a.CPUShares, u.CPUShares)
	if u.UIOptions != nil {
		a.UIOptions = u.UIOptions
	}
	if u.ImageParameters != nil {
		a.ImageParameters = u.ImageParameters
	}
	if u.TestConfiguration != nil {
		a.TestConfiguration = u.TestConfiguration
	}
	if u.ConfigurationSchema != nil {
		a.ConfigurationSchema = u.ConfigurationSchema
	}
	setStr(&a.ConfigurationDescription, u.ConfigurationDescription)
	setStr(&a.ConfigurationFormat, u.ConfigurationFormat)
	if u.EmptyConfiguration != nil {
		a.EmptyConfiguration = u.EmptyConfiguration
	}
	if u.Actions != nil {
		a.Actions = u.Actions
	}
	setBool(&a.Fees, u.Fees)
	setStr(&a.Limits, u.Limits)
	setStr(&a.Logger, u.Logger)
	if u.LoggerConfiguration != nil {
		a.LoggerConfiguration = u.LoggerConfiguration
	}
	setStr(&a.StagingStorageInput, u.StagingStorageInput)
	setBool(&a.IsVisible, u.IsVisible)
	setBool(&a.IsDeprecated, u.IsDeprecated)
	if u.ExpiredOn != nil {
		a.ExpiredOn = u.ExpiredOn
	}
	setStr(&a.ReplacementApp, u.ReplacementApp)
	if u.Permissions != nil {
		a.Permissions = u.Permissions
	}
}
