package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fwojciec/postmap"
)

// Run executes the connectors command.
func (c *ConnectorsCmd) Run(deps *Dependencies) error {
	connectors, err := deps.Connectors.FindConnectors(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", postmap.ErrorMessage(err))
		return err
	}

	if len(connectors) == 0 {
		fmt.Fprintln(deps.Stdout, "No connectors configured. Declare them under 'connectors' in postmap.yaml.")
		return nil
	}

	for _, conn := range connectors {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n", conn.ID, conn.Provider, conn.Name)
		for _, field := range sortedFields(conn.Mapping) {
			fmt.Fprintf(deps.Stdout, "    %s -> %s\n", field, conn.Mapping[field])
		}
	}
	return nil
}

func sortedFields(m postmap.FieldMapping) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// syncConnectors makes the store match the configured connectors. Existing
// connectors are updated in place and new ones are created. Connectors that
// are only in the store are left alone.
func syncConnectors(ctx context.Context, svc postmap.ConnectorService, connectors []*postmap.Connector) error {
	for _, conn := range connectors {
		_, err := svc.FindConnectorByID(ctx, conn.ID)
		switch postmap.ErrorCode(err) {
		case "":
			err = svc.UpdateConnector(ctx, conn)
		case postmap.ENOTFOUND:
			err = svc.CreateConnector(ctx, conn)
		}
		if err != nil {
			return fmt.Errorf("syncing connector %q: %w", conn.ID, err)
		}
	}
	return nil
}

// joinProviders lists the providers a build can dispatch to.
func joinProviders(providers []postmap.Provider) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
