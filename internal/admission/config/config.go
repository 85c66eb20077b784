package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wealthgate/internal/admission/models"
	dErrors "wealthgate/pkg/domain-errors"
)

// PolicyTable is the immutable set of policies built once at start-up.
type PolicyTable struct {
	policies map[models.Operation]models.Policy
}

// Lookup returns the policy for op or an unknown_operation error.
func (t *PolicyTable) Lookup(op models.Operation) (models.Policy, error) {
	p, ok := t.policies[op]
	if !ok {
		return models.Policy{}, models.UnknownOperationError(string(op))
	}
	return p, nil
}

// Policies returns the table contents in operation order.
func (t *PolicyTable) Policies() []models.Policy {
	out := make([]models.Policy, 0, len(t.policies))
	for _, op := range models.Operations() {
		if p, ok := t.policies[op]; ok {
			out = append(out, p)
		}
	}
	return out
}

// DefaultPolicies: login and export fail closed since they guard credentials
// and bulk data; search and api fail open.
func DefaultPolicies() map[models.Operation]models.Policy {
	return map[models.Operation]models.Policy{
		models.OperationLogin:  {Operation: models.OperationLogin, Window: 60 * time.Second, MaxRequests: 5, KeyPrefix: "login", FailMode: models.FailClosed},
		models.OperationSearch: {Operation: models.OperationSearch, Window: 60 * time.Second, MaxRequests: 30, KeyPrefix: "search", FailMode: models.FailOpen},
		models.OperationAPI:    {Operation: models.OperationAPI, Window: 60 * time.Second, MaxRequests: 100, KeyPrefix: "api", FailMode: models.FailOpen},
		models.OperationExport: {Operation: models.OperationExport, Window: 3600 * time.Second, MaxRequests: 5, KeyPrefix: "export", FailMode: models.FailClosed},
	}
}

// DefaultTable returns the default policy table.
func DefaultTable() *PolicyTable {
	return &PolicyTable{policies: DefaultPolicies()}
}

// NewTable starts from the defaults and applies overrides of the form
// "max/window" (e.g. "10/30s"), optionally suffixed with ",open" or ",closed"
// to change the fail mode.
func NewTable(overrides map[string]string) (*PolicyTable, error) {
	policies := DefaultPolicies()
	for name, raw := range overrides {
		op, err := models.ParseOperation(name)
		if err != nil {
			return nil, err
		}
		p := policies[op]
		if err := applyOverride(&p, raw); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("rate limit override for %s", op))
		}
		policies[op] = p
	}
	return &PolicyTable{policies: policies}, nil
}

func applyOverride(p *models.Policy, raw string) error {
	spec, mode, hasMode := strings.Cut(strings.TrimSpace(raw), ",")
	maxStr, windowStr, ok := strings.Cut(spec, "/")
	if !ok {
		return fmt.Errorf("expected max/window, got %q", raw)
	}
	maxReq, err := strconv.Atoi(strings.TrimSpace(maxStr))
	if err != nil || maxReq <= 0 {
		return fmt.Errorf("invalid max requests %q", maxStr)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowStr))
	if err != nil || window < time.Second {
		return fmt.Errorf("invalid window %q", windowStr)
	}
	p.MaxRequests = maxReq
	p.Window = window

	if hasMode {
		switch models.FailMode(strings.TrimSpace(mode)) {
		case models.FailOpen:
			p.FailMode = models.FailOpen
		case models.FailClosed:
			p.FailMode = models.FailClosed
		default:
			return fmt.Errorf("invalid fail mode %q", mode)
		}
	}
	return nil
}
