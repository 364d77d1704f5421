// Package authz decides which roles may perform which actions, using a
// casbin RBAC model embedded in the binary.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Resources and actions used by the API.
const (
	ResRecipe     = "recipe"
	ResFavourite  = "favourite"
	ResEvent      = "event"
	ResReport     = "report"
	ResModeration = "moderation"

	ActCreate  = "create"
	ActRead    = "read"
	ActWrite   = "write"
	ActDelete  = "delete"
	ActUpload  = "upload"
	ActToggle  = "toggle"
	ActRate    = "rate"
	ActComment = "comment"
	ActInvite  = "invite"
	ActRespond = "respond"
	ActResolve = "resolve"
)

type Enforcer struct {
	e *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}
	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{e: e}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("authz: add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("authz: add grouping %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("authz: malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether role may perform act on obj. Enforcement errors
// deny.
func (en *Enforcer) Allowed(role, obj, act string) bool {
	ok, err := en.e.Enforce(role, obj, act)
	return err == nil && ok
}
