package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	admin "github.com/goliatone/go-messmass/components/admin"
)

// Resource paths relative to the API root.
const (
	ProjectsPath   = "/projects"
	CategoriesPath = "/categories"
	UsersPath      = "/users"
	VariablesPath  = "/variables"
	StylesPath     = "/styles"
	ChartsPath     = "/charts"
)

// SetFlag toggles one visibility flag of a variable.
func (c *Client) SetFlag(ctx context.Context, name, flag string, value bool) (admin.VariableDefinition, error) {
	path := VariablesPath + "/" + url.PathEscape(name) + "/flags/" + url.PathEscape(flag)
	return send[admin.VariableDefinition](ctx, c, http.MethodPut, path, "variable", map[string]bool{"value": value})
}

// RenameLabel changes a variable's display label.
func (c *Client) RenameLabel(ctx context.Context, name, label string) (admin.VariableDefinition, error) {
	path := VariablesPath + "/" + url.PathEscape(name) + "/rename"
	return send[admin.VariableDefinition](ctx, c, http.MethodPost, path, "variable", map[string]string{"label": label})
}

// RenameIdentifier changes a custom variable's name.
func (c *Client) RenameIdentifier(ctx context.Context, name, newName string) (admin.VariableDefinition, error) {
	path := VariablesPath + "/" + url.PathEscape(name) + "/rename"
	return send[admin.VariableDefinition](ctx, c, http.MethodPost, path, "variable", map[string]string{"newName": newName})
}

// PatchVariable merges patch into the variable named patch.Name.
func (c *Client) PatchVariable(ctx context.Context, patch admin.VariablePatch) (admin.VariableDefinition, error) {
	path := VariablesPath + "/" + url.PathEscape(patch.Name)
	return send[admin.VariableDefinition](ctx, c, http.MethodPatch, path, "variable", patch)
}

// Reorder assigns clicker ranks within category in the given order.
func (c *Client) Reorder(ctx context.Context, category string, names []string) error {
	payload := map[string]any{"category": category, "names": names}
	return c.do(ctx, http.MethodPost, VariablesPath+"/reorder", nil, payload, nil)
}

// Registry returns every variable, or the reorder list of category when set.
func (c *Client) Registry(ctx context.Context, category string) ([]admin.VariableDefinition, error) {
	var resp struct {
		Variables []admin.VariableDefinition `json:"variables"`
	}
	var query url.Values
	if category != "" {
		query = url.Values{"category": {category}}
	}
	if err := c.do(ctx, http.MethodGet, VariablesPath+"/registry", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Variables, nil
}

// SetStylePointer assigns styleID to the global, admin, or hashtag pointer.
// An empty styleID clears it.
func (c *Client) SetStylePointer(ctx context.Context, pointer, styleID, hashtag string) (admin.StyleSettings, error) {
	path := StylesPath + "/settings/" + url.PathEscape(pointer)
	payload := map[string]string{"styleId": styleID, "hashtag": hashtag}
	return send[admin.StyleSettings](ctx, c, http.MethodPut, path, "settings", payload)
}

// ResolveStyle asks the server which theme applies to a project page.
func (c *Client) ResolveStyle(ctx context.Context, projectID string, scope admin.StyleScope) (admin.StyleTheme, error) {
	query := url.Values{}
	if projectID != "" {
		query.Set("projectId", projectID)
	}
	if scope != "" {
		query.Set("scope", string(scope))
	}
	var resp struct {
		Style admin.StyleTheme `json:"style"`
	}
	if err := c.do(ctx, http.MethodGet, StylesPath+"/resolve", query, nil, &resp); err != nil {
		return admin.StyleTheme{}, err
	}
	return resp.Style, nil
}

// FlagMutation builds an optimistic flag toggle for def. Locked variables
// produce a no-op mutation that never contacts the server.
func (c *Client) FlagMutation(def *admin.VariableDefinition, flag string, value bool) Mutation {
	key := "variable:" + def.Name + ":" + flag
	if def.FlagsLocked() {
		return Mutation{Key: key}
	}
	previous := def.Flags
	return Mutation{
		Key: key,
		Apply: func() {
			setFlag(&def.Flags, flag, value)
		},
		Persist: func(ctx context.Context) error {
			saved, err := c.SetFlag(ctx, def.Name, flag, value)
			if err != nil {
				return err
			}
			if saved.Name != def.Name {
				return fmt.Errorf("client: flag update returned %q", saved.Name)
			}
			return nil
		},
		Rollback: func() {
			def.Flags = previous
		},
	}
}

func setFlag(flags *admin.VariableFlags, flag string, value bool) {
	switch flag {
	case admin.FlagVisibleInClicker:
		flags.VisibleInClicker = value
	case admin.FlagEditableInManual:
		flags.EditableInManual = value
	}
}
