// Package app defines the app (integration connector) record, the typed
// update payload accepted from callers, and the projections exposed by the
// read models.
package app

import (
	"fmt"
	"time"

	"github.com/connectorhub/registry/internal/apperr"
	"github.com/connectorhub/registry/internal/registry/domain/vendor"
)

// Types accepted for App.Type.
var Types = []string{"extractor", "application", "writer", "other", "transformation", "processor"}

// Repository describes where the app's image lives.
type Repository struct {
	Type    string         `json:"type"`
	URI     string         `json:"uri"`
	Tag     string         `json:"tag"`
	Options map[string]any `json:"options"`
}

// Permission grants an app access to projects on a named stack. Stack must
// reference an existing stack record.
type Permission struct {
	Stack    string  `json:"stack"`
	Projects []int64 `json:"projects,omitempty"`
}

// App is the public representation of a registered connector. The same shape
// serves the canonical row and the immutable version snapshots.
type App struct {
	ID         string        `json:"id"`
	Vendor     vendor.Vendor `json:"vendor"`
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	URI        string        `json:"uri"`
	Repository *Repository   `json:"repository,omitempty"`

	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
	LicenseURL       string `json:"licenseUrl"`
	DocumentationURL string `json:"documentationUrl"`

	RequiredMemory      string `json:"requiredMemory"`
	ProcessTimeout      int    `json:"processTimeout"`
	Encryption          bool   `json:"encryption"`
	Network             string `json:"network"`
	DefaultBucket       bool   `json:"defaultBucket"`
	DefaultBucketStage  string `json:"defaultBucketStage"`
	ForwardToken        bool   `json:"forwardToken"`
	ForwardTokenDetails bool   `json:"forwardTokenDetails"`
	InjectEnvironment   bool   `json:"injectEnvironment"`
	CPUShares           int    `json:"cpuShares"`

	UIOptions                []string       `json:"uiOptions"`
	ImageParameters          map[string]any `json:"imageParameters"`
	TestConfiguration        map[string]any `json:"testConfiguration"`
	ConfigurationSchema      map[string]any `json:"configurationSchema"`
	ConfigurationDescription string         `json:"configurationDescription"`
	ConfigurationFormat      string         `json:"configurationFormat"`
	EmptyConfiguration       map[string]any `json:"emptyConfiguration"`
	Actions                  []string       `json:"actions"`
	Fees                     bool           `json:"fees"`
	Limits                   string         `json:"limits"`
	Logger                   string         `json:"logger"`
	LoggerConfiguration      map[string]any `json:"loggerConfiguration"`
	StagingStorageInput      string         `json:"stagingStorageInput"`

	IsPublic       bool       `json:"isPublic"`
	IsVisible      bool       `json:"isVisible"`
	IsDeprecated   bool       `json:"isDeprecated"`
	ExpiredOn      *time.Time `json:"expiredOn"`
	ReplacementApp string     `json:"replacementApp"`
	DeletedOn      *time.Time `json:"deletedOn,omitempty"`

	Icon32 string `json:"icon32"`
	Icon64 string `json:"icon64"`

	Version   int        `json:"version"`
	CreatedOn *time.Time `json:"createdOn,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`

	Permissions []Permission `json:"permissions"`
}

// PublicApp is the projection served to unauthenticated callers. Audit and
// administrative fields are absent from the type, not blanked at runtime.
type PublicApp struct {
	ID         string        `json:"id"`
	Vendor     vendor.Vendor `json:"vendor"`
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	URI        string        `json:"uri"`
	Repository *Repository   `json:"repository,omitempty"`

	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
	LicenseURL       string `json:"licenseUrl"`
	DocumentationURL string `json:"documentationUrl"`

	RequiredMemory      string `json:"requiredMemory"`
	ProcessTimeout      int    `json:"processTimeout"`
	Encryption          bool   `json:"encryption"`
	Network             string `json:"network"`
	DefaultBucket       bool   `json:"defaultBucket"`
	DefaultBucketStage  string `json:"defaultBucketStage"`
	ForwardToken        bool   `json:"forwardToken"`
	ForwardTokenDetails bool   `json:"forwardTokenDetails"`
	InjectEnvironment   bool   `json:"injectEnvironment"`
	CPUShares           int    `json:"cpuShares"`

	UIOptions                []string       `json:"uiOptions"`
	ImageParameters          map[string]any `json:"imageParameters"`
	TestConfiguration        map[string]any `json:"testConfiguration"`
	ConfigurationSchema      map[string]any `json:"configurationSchema"`
	ConfigurationDescription string         `json:"configurationDescription"`
	ConfigurationFormat      string         `json:"configurationFormat"`
	EmptyConfiguration       map[string]any `json:"emptyConfiguration"`
	Actions                  []string       `json:"actions"`
	Fees                     bool           `json:"fees"`
	Limits                   string         `json:"limits"`
	Logger                   string         `json:"logger"`
	LoggerConfiguration      map[string]any `json:"loggerConfiguration"`
	StagingStorageInput      string         `json:"stagingStorageInput"`

	IsPublic       bool       `json:"isPublic"`
	IsVisible      bool       `json:"isVisible"`
	IsDeprecated   bool       `json:"isDeprecated"`
	ExpiredOn      *time.Time `json:"expiredOn"`
	ReplacementApp string     `json:"replacementApp"`

	Icon32 string `json:"icon32"`
	Icon64 string `json:"icon64"`

	Version int `json:"version"`
}

// Public converts an app into its public projection. Apps that are not public
// report NotFound, so hidden apps stay indistinguishable from missing ones.
func (a App) Public() (PublicApp, error) {
	if !a.IsPublic {
		return PublicApp{}, apperr.NotFound("app %s does not exist", a.ID)
	}
	return PublicApp{
		ID:                       a.ID,
		Vendor:                   a.Vendor,
		Name:                     a.Name,
		Type:                     a.Type,
		URI:                      a.URI,
		Repository:               a.Repository,
		ShortDescription:         a.ShortDescription,
		LongDescription:          a.LongDescription,
		LicenseURL:               a.LicenseURL,
		DocumentationURL:         a.DocumentationURL,
		RequiredMemory:           a.RequiredMemory,
		ProcessTimeout:           a.ProcessTimeout,
		Encryption:               a.Encryption,
		Network:                  a.Network,
		DefaultBucket:            a.DefaultBucket,
		DefaultBucketStage:       a.DefaultBucketStage,
		ForwardToken:             a.ForwardToken,
		ForwardTokenDetails:      a.ForwardTokenDetails,
		InjectEnvironment:        a.InjectEnvironment,
		CPUShares:                a.CPUShares,
		UIOptions:                a.UIOptions,
		ImageParameters:          a.ImageParameters,
		TestConfiguration:        a.TestConfiguration,
		ConfigurationSchema:      a.ConfigurationSchema,
		ConfigurationDescription: a.ConfigurationDescription,
		ConfigurationFormat:      a.ConfigurationFormat,
		EmptyConfiguration:       a.EmptyConfiguration,
		Actions:                  a.Actions,
		Fees:                     a.Fees,
		Limits:                   a.Limits,
		Logger:                   a.Logger,
		LoggerConfiguration:      a.LoggerConfiguration,
		StagingStorageInput:      a.StagingStorageInput,
		IsPublic:                 a.IsPublic,
		IsVisible:                a.IsVisible,
		IsDeprecated:             a.IsDeprecated,
		ExpiredOn:                a.ExpiredOn,
		ReplacementApp:           a.ReplacementApp,
		Icon32:                   a.Icon32,
		Icon64:                   a.Icon64,
		Version:                  a.Version,
	}, nil
}

// DisplayURI returns the uri shown for an app: the legacy uri when the row
// still carries one, otherwise the canonical docker path.
func DisplayURI(id, legacyURI string) string {
	if legacyURI != "" {
		return legacyURI
	}
	return "docker/" + id
}

// IconPath builds the deterministic icon object key for an app id, icon size
// in pixels and version.
func IconPath(id string, size, version int) string {
	return fmt.Sprintf("%s/%d/%d.png", id, size, version)
}
