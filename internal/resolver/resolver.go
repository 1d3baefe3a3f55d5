// Package resolver finds the form control that best matches a list of field-name aliases.
//
// Each alias is tried against four tiers in order of precision before the next
// alias is considered:
//
//  1. name attribute equals the alias
//  2. id attribute equals the alias
//  3. name or id equals the alias, ignoring case
//  4. name or id contains the alias, ignoring case
//
// The first element (in document order) matched by the first successful
// alias/tier pair wins.
package resolver

import (
	"fmt"
	"strings"

	"github.com/jonathan/form-filler/internal/dom"
	"github.com/jonathan/form-filler/internal/types"
	"go.uber.org/zap"
)

// Strategy is one resolution tier.
type Strategy interface {
	Tier() types.Tier
	Match(el dom.Element, alias string) bool
}

type exactName struct{}

func (exactName) Tier() types.Tier { return types.TierExactName }
func (exactName) Match(el dom.Element, alias string) bool {
	return el.Name() != "" && el.Name() == alias
}

type exactID struct{}

func (exactID) Tier() types.Tier { return types.TierExactID }
func (exactID) Match(el dom.Element, alias string) bool {
	return el.ID() != "" && el.ID() == alias
}

type caseInsensitive struct{}

func (caseInsensitive) Tier() types.Tier { return types.TierCaseInsensitive }
func (caseInsensitive) Match(el dom.Element, alias string) bool {
	a := strings.ToLower(alias)
	return (el.Name() != "" && strings.ToLower(el.Name()) == a) ||
		(el.ID() != "" && strings.ToLower(el.ID()) == a)
}

type substring struct{}

func (substring) Tier() types.Tier { return types.TierSubstring }
func (substring) Match(el dom.Element, alias string) bool {
	a := strings.ToLower(alias)
	return (el.Name() != "" && strings.Contains(strings.ToLower(el.Name()), a)) ||
		(el.ID() != "" && strings.Contains(strings.ToLower(el.ID()), a))
}

// DefaultStrategies returns the four tiers in precision order.
func DefaultStrategies() []Strategy {
	return []Strategy{exactName{}, exactID{}, caseInsensitive{}, substring{}}
}

// Resolver locates form controls on a page.
type Resolver struct {
	strategies []Strategy
	logger     *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStrategies replaces the tier list.
func WithStrategies(s ...Strategy) Option {
	return func(r *Resolver) { r.strategies = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver using the default tiers.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		strategies: DefaultStrategies(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("resolver")
	return r
}

// Resolve returns the best match for aliases, or ok=false when nothing matches.
// The page's controls are listed once per call.
func (r *Resolver) Resolve(page dom.Page, aliases []string) (*types.ResolvedField, bool, error) {
	controls, err := page.Controls()
	if err != nil {
		return nil, false, fmt.Errorf("failed to list form controls: %w", err)
	}
	field, ok := r.ResolveIn(controls, aliases)
	return field, ok, nil
}

// ResolveIn matches aliases against an already listed set of controls.
func (r *Resolver) ResolveIn(controls []dom.Element, aliases []string) (*types.ResolvedField, bool) {
	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		for _, s := range r.strategies {
			for _, el := range controls {
				if !s.Match(el, alias) {
					continue
				}
				r.logger.Debug("resolved field",
					zap.String("alias", alias),
					zap.Stringer("tier", s.Tier()),
					zap.String("element", el.Key()),
				)
				return &types.ResolvedField{Element: el, Alias: alias, Tier: s.Tier()}, true
			}
		}
	}
	r.logger.Debug("no field matched", zap.Strings("aliases", aliases))
	return nil, false
}
