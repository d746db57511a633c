package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fwojciec/postmap"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ postmap.ConnectorService = (*ConnectorService)(nil)

// ConnectorService implements postmap.ConnectorService using SQLite.
// Fields and mapping are stored as JSON columns.
type ConnectorService struct {
	db *DB
}

// NewConnectorService creates a new ConnectorService.
func NewConnectorService(db *DB) *ConnectorService {
	return &ConnectorService{db: db}
}

const connectorColumns = "id, name, provider, record_selector, fields, mapping, created_at, updated_at"

// CreateConnector creates a new connector.
// Returns ECONFLICT if a connector with the same ID exists.
func (s *ConnectorService) CreateConnector(ctx context.Context, c *postmap.Connector) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	} else if _, err := s.FindConnectorByID(ctx, c.ID); err == nil {
		return postmap.Errorf(postmap.ECONFLICT, "connector %q already exists", c.ID)
	} else if postmap.ErrorCode(err) != postmap.ENOTFOUND {
		return err
	}

	fields, mapping, err := encodeConnector(c)
	if err != nil {
		return err
	}

	now := s.db.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connectors (`+connectorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, string(c.Provider), c.RecordSelector, fields, mapping,
		c.CreatedAt.Format(timeFormat), c.UpdatedAt.Format(timeFormat))

	return err
}

// FindConnectorByID retrieves a connector by ID.
func (s *ConnectorService) FindConnectorByID(ctx context.Context, id string) (*postmap.Connector, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+connectorColumns+` FROM connectors WHERE id = ?`, id)

	c, err := scanConnector(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, postmap.Errorf(postmap.ENOTFOUND, "connector %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindConnectors retrieves all connectors ordered by name.
func (s *ConnectorService) FindConnectors(ctx context.Context) ([]*postmap.Connector, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+connectorColumns+` FROM connectors ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connectors []*postmap.Connector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, err
		}
		connectors = append(connectors, c)
	}

	return connectors, rows.Err()
}

// UpdateConnector replaces an existing connector's settings.
// CreatedAt is preserved.
func (s *ConnectorService) UpdateConnector(ctx context.Context, c *postmap.Connector) error {
	if err := c.Validate(); err != nil {
		return err
	}

	existing, err := s.FindConnectorByID(ctx, c.ID)
	if err != nil {
		return err
	}

	fields, mapping, err := encodeConnector(c)
	if err != nil {
		return err
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.db.Now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE connectors
		SET name = ?, provider = ?, record_selector = ?, fields = ?, mapping = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, string(c.Provider), c.RecordSelector, fields, mapping, c.UpdatedAt.Format(timeFormat), c.ID)

	return err
}

// DeleteConnector permanently removes a connector. Posts built with it are kept.
func (s *ConnectorService) DeleteConnector(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM connectors WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return postmap.Errorf(postmap.ENOTFOUND, "connector %q not found", id)
	}

	return nil
}

func encodeConnector(c *postmap.Connector) (fields, mapping string, err error) {
	fieldList := c.Fields
	if fieldList == nil {
		fieldList = []postmap.ConnectorField{}
	}
	f, err := json.Marshal(fieldList)
	if err != nil {
		return "", "", fmt.Errorf("encoding connector fields: %w", err)
	}

	m := c.Mapping
	if m == nil {
		m = postmap.FieldMapping{}
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("encoding connector mapping: %w", err)
	}

	return string(f), string(mb), nil
}

func scanConnector(row scanner) (*postmap.Connector, error) {
	var c postmap.Connector
	var provider, fields, mapping, createdAt, updatedAt string

	if err := row.Scan(&c.ID, &c.Name, &provider, &c.RecordSelector, &fields, &mapping,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Provider = postmap.Provider(provider)

	if err := json.Unmarshal([]byte(fields), &c.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	if err := json.Unmarshal([]byte(mapping), &c.Mapping); err != nil {
		return nil, fmt.Errorf("failed to decode mapping: %w", err)
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
