package postmap

import (
	"context"
	"time"
)

// Role is the destination of an extracted field in a post.
type Role string

// Role constants.
const (
	RolePostTitle   Role = "post_title"
	RolePostContent Role = "post_content"
	RoleImportOnly  Role = "import_only"
)

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePostTitle, RolePostContent, RoleImportOnly:
		return r, nil
	}
	return "", Errorf(EINVALID, "unknown field role %q", s)
}

// FieldMapping routes extracted field names to post roles.
type FieldMapping map[string]Role

// Validate returns an error if any role is unknown.
func (m FieldMapping) Validate() error {
	for name, role := range m {
		if _, err := ParseRole(string(role)); err != nil {
			return Errorf(EINVALID, "field %q: unknown role %q", name, role)
		}
	}
	return nil
}

// Provider names the extraction backend used by a connector.
type Provider string

// Provider constants.
const (
	ProviderImportIO    Provider = "importio"
	ProviderSelector    Provider = "selector"
	ProviderArticle     Provider = "article"
	ProviderReadability Provider = "readability"
	ProviderGemini      Provider = "gemini"
)

// Providers lists all known providers.
func Providers() []Provider {
	return []Provider{ProviderImportIO, ProviderSelector, ProviderArticle, ProviderReadability, ProviderGemini}
}

// ConnectorField declares one field a connector extracts.
// Selector and Attr are used by the selector provider, Description by the
// gemini provider.
type ConnectorField struct {
	Name        string       `json:"name"`
	Type        PropertyType `json:"type"`
	Selector    string       `json:"selector,omitempty"`
	Attr        string       `json:"attr,omitempty"`
	Description string       `json:"description,omitempty"`
}

// OutputProperties returns the declared fields as output properties.
func (c *Connector) OutputProperties() []OutputProperty {
	props := make([]OutputProperty, 0, len(c.Fields))
	for _, f := range c.Fields {
		props = append(props, OutputProperty{Name: f.Name, Type: f.Type})
	}
	return props
}

// Connector identifies an extraction template for a source site together
// with the field mapping used to build posts from its records.
type Connector struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Provider       Provider         `json:"provider"`
	RecordSelector string           `json:"recordSelector,omitempty"`
	Fields         []ConnectorField `json:"fields,omitempty"`
	Mapping        FieldMapping     `json:"mapping"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Validate returns an error if the connector contains invalid fields.
func (c *Connector) Validate() error {
	if c.Name == "" {
		return Errorf(EINVALID, "connector name required")
	}
	if !c.knownProvider() {
		return Errorf(EINVALID, "unknown connector provider %q", c.Provider)
	}
	for _, f := range c.Fields {
		if f.Name == "" {
			return Errorf(EINVALID, "connector field name required")
		}
		if !f.Type.Valid() {
			return Errorf(EINVALID, "field %q: unknown type %q", f.Name, f.Type)
		}
		if c.Provider == ProviderSelector && f.Selector == "" {
			return Errorf(EINVALID, "field %q: selector required", f.Name)
		}
	}
	return c.Mapping.Validate()
}

func (c *Connector) knownProvider() bool {
	for _, p := range Providers() {
		if c.Provider == p {
			return true
		}
	}
	return false
}

// ConnectorService represents a service for managing connectors.
type ConnectorService interface {
	// CreateConnector creates a new connector.
	// An ID is generated if none is set.
	CreateConnector(ctx context.Context, c *Connector) error

	// FindConnectorByID retrieves a connector by ID.
	// Returns ENOTFOUND if connector does not exist.
	FindConnectorByID(ctx context.Context, id string) (*Connector, error)

	// FindConnectors retrieves all connectors ordered by name.
	FindConnectors(ctx context.Context) ([]*Connector, error)

	// UpdateConnector replaces an existing connector's settings.
	// Returns ENOTFOUND if connector does not exist.
	UpdateConnector(ctx context.Context, c *Connector) error

	// DeleteConnector permanently removes a connector.
	// Returns ENOTFOUND if connector does not exist.
	DeleteConnector(ctx context.Context, id string) error
}
