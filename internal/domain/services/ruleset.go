package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"threatscope-lab/internal/domain/models"
	"threatscope-lab/pkg/logger"
)

// Ruleset holds the static rule and attack-chain tables. It is loaded once
// at startup and shared read-only across concurrent requests; the rare
// tuning write replaces a record by id under the lock.
type Ruleset struct {
	mu     sync.RWMutex
	rules  []models.RuleDefinition
	chains []models.AttackChainDefinition
	logger *logger.Logger
}

// NewRuleset creates a ruleset from the given tables, dropping malformed
// records. Pass the builtin tables for the stock configuration.
func NewRuleset(rules []models.RuleDefinition, chains []models.AttackChainDefinition, log *logger.Logger) *Ruleset {
	rs := &Ruleset{logger: log.WithComponent("ruleset")}

	for _, r := range rules {
		if err := r.Validate(); err != nil {
			rs.logger.Warn().Err(err).Str("rule_id", r.ID).Msg("skipping malformed rule")
			continue
		}
		rs.rules = append(rs.rules, r)
	}
	for _, c := range chains {
		if err := c.Validate(); err != nil {
			rs.logger.Warn().Err(err).Str("chain_id", c.ID).Msg("skipping malformed attack chain")
			continue
		}
		rs.chains = append(rs.chains, c)
	}

	rs.logger.Info().
		Int("rules", len(rs.rules)).
		Int("chains", len(rs.chains)).
		Msg("ruleset loaded")
	return rs
}

// NewDefaultRuleset loads the builtin tables
func NewDefaultRuleset(log *logger.Logger) *Ruleset {
	return NewRuleset(BuiltinRules(), BuiltinAttackChains(), log)
}

// rulesetFile is the on-disk shape of a custom ruleset
type rulesetFile struct {
	Rules  []models.RuleDefinition        `json:"rules"`
	Chains []models.AttackChainDefinition `json:"chains"`
}

// LoadRuleset reads a JSON ruleset from disk. Malformed records are dropped
// the same way builtin ones would be; a file with no rules at all is an
// error, since an empty rule table silently disables the matcher.
func LoadRuleset(path string, log *logger.Logger) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset: %w", err)
	}

	var file rulesetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing ruleset %s: %w", path, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("ruleset %s contains no rules", path)
	}

	return NewRuleset(file.Rules, file.Chains, log), nil
}

// Rules returns a copy of the rule table
func (rs *Ruleset) Rules() []models.RuleDefinition {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]models.RuleDefinition, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Chains returns a copy of the attack-chain table
func (rs *Ruleset) Chains() []models.AttackChainDefinition {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]models.AttackChainDefinition, len(rs.chains))
	copy(out, rs.chains)
	return out
}

// UpsertRule replaces a rule by id, or appends it. Tuning writes are rare
// and never sit on the request path.
func (rs *Ruleset) UpsertRule(rule models.RuleDefinition) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for i, r := range rs.rules {
		if r.ID == rule.ID {
			rs.rules[i] = rule
			return nil
		}
	}
	rs.rules = append(rs.rules, rule)
	return nil
}

// Counts returns the table sizes
func (rs *Ruleset) Counts() (rules, chains int) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rules), len(rs.chains)
}
