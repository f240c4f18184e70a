package nodetype

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/port"
	"github.com/c360/flowbuilder/schema"
)

// AllCategories selects every category in ListByCategory and Filter
const AllCategories = "all"

// Registry is the catalog of node types keyed by type id. It is safe for
// concurrent use; definitions are copied in and out.
type Registry struct {
	types  map[string]Definition
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry. A nil logger means slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		types:  make(map[string]Definition),
		logger: logger,
	}
}

// Register adds a node type. It rejects empty or duplicate ids, duplicate port
// ids within one direction, unknown data types, malformed field declarations
// and defaults whose values do not match the declared kinds.
func (r *Registry) Register(def Definition) error {
	return r.store(def, false)
}

// Replace registers def, overwriting any existing type with the same id.
func (r *Registry) Replace(def Definition) error {
	return r.store(def, true)
}

func (r *Registry) store(def Definition, overwrite bool) error {
	if err := checkDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[def.ID]; exists && !overwrite {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrDuplicateNodeType, def.ID),
			"Registry", "Register", "duplicate check",
		)
	}

	stored := def.Clone()
	if stored.Defaults == nil {
		stored.Defaults = schema.NewConfiguration()
	}
	r.types[def.ID] = stored
	r.logger.Debug("node type registered", "type", def.ID, "category", def.Category,
		"inputs", len(def.Inputs), "outputs", len(def.Outputs), "fields", len(def.Schema.Fields),
		"replaced", overwrite)
	return nil
}

func checkDefinition(def Definition) error {
	invalid := func(format string, args ...any) error {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidNodeType, fmt.Sprintf(format, args...)),
			"Registry", "Register", "definition check",
		)
	}

	if strings.TrimSpace(def.ID) == "" {
		return invalid("empty type id")
	}
	for dir, specs := range map[port.Direction][]port.Spec{port.Input: def.Inputs, port.Output: def.Outputs} {
		seen := make(map[string]bool, len(specs))
		for _, p := range specs {
			if p.ID == "" {
				return invalid("%s: %s port with empty id", def.ID, dir)
			}
			if seen[p.ID] {
				return invalid("%s: duplicate %s port %q", def.ID, dir, p.ID)
			}
			if !p.DataType.Valid() {
				return invalid("%s: port %q has unknown data type %q", def.ID, p.ID, p.DataType)
			}
			seen[p.ID] = true
		}
	}
	if err := def.Schema.Verify(); err != nil {
		return errors.Wrap(err, "Registry", "Register", def.ID+" schema")
	}
	// connections.<input> is where validation reports a missing edge
	for _, f := range def.Schema.InSection(schema.Connections) {
		if _, ok := def.Input(f.Name); ok {
			return invalid("%s: field %s shadows input port %q", def.ID, f.Path(), f.Name)
		}
	}
	if err := def.Schema.VerifyDefaults(def.Defaults); err != nil {
		return errors.Wrap(err, "Registry", "Register", def.ID+" defaults")
	}
	return nil
}

// Get returns the definition for typeID or ErrUnknownNodeType
func (r *Registry) Get(typeID string) (Definition, error) {
	r.mu.RLock()
	def, ok := r.types[typeID]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, errors.Invalidf(errors.ErrUnknownNodeType, "Registry", "Get", "type %q", typeID)
	}
	return def.Clone(), nil
}

// Has reports whether typeID is registered
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeID]
	return ok
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// CreateDefaultConfiguration returns a fresh deep copy of the type's default
// configuration. Mutating it never affects the registry or other instances.
func (r *Registry) CreateDefaultConfiguration(typeID string) (schema.Configuration, error) {
	r.mu.RLock()
	def, ok := r.types[typeID]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Invalidf(errors.ErrUnknownNodeType, "Registry", "CreateDefaultConfiguration", "type %q", typeID)
	}
	return def.Defaults.Clone(), nil
}

// List returns every definition sorted by category, then label, then id
func (r *Registry) List() []Definition {
	return r.Filter(AllCategories, "")
}

// ListByCategory returns the definitions of one category. "" and "all" select
// every category. Matching is case-insensitive.
func (r *Registry) ListByCategory(category string) []Definition {
	return r.Filter(category, "")
}

// Search returns definitions whose label or description contains term,
// ignoring case.
func (r *Registry) Search(term string) []Definition {
	return r.Filter(AllCategories, term)
}

// Filter combines ListByCategory and Search
func (r *Registry) Filter(category, term string) []Definition {
	term = strings.ToLower(strings.TrimSpace(term))
	allCategories := category == "" || strings.EqualFold(category, AllCategories)

	r.mu.RLock()
	out := make([]Definition, 0, len(r.types))
	for _, def := range r.types {
		if !allCategories && !strings.EqualFold(def.Category, category) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(def.Label), term) &&
			!strings.Contains(strings.ToLower(def.Description), term) {
			continue
		}
		out = append(out, def.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Categories returns the number of types in each category
func (r *Registry) Categories() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, def := range r.types {
		out[def.Category]++
	}
	return out
}
