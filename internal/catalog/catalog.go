package catalog

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"reservatec/pkg/model"
	"reservatec/pkg/sanitizer"
)

// Validator checks catalog entries before they are indexed.
type Validator interface {
	ValidateSpace(space *model.Space) error
	ValidateRequester(requester *model.Requester) error
}

var (
	ErrDuplicate = errors.New("already in catalog")
	ErrRetired   = errors.New("removed from catalog")
)

// Catalog holds the known spaces and requesters. Entries are validated on the
// way in. Names and ids of removed entries are retired and cannot be added
// again, since their reservations were cancelled on removal.
type Catalog struct {
	mu         sync.RWMutex
	spaces     map[string]model.Space
	requesters map[string]model.Requester
	retired    map[string]struct{}
	validator  Validator
}

// New validates and indexes the entries. Space names and requester ids must
// be unique.
func New(spaces []model.Space, requesters []model.Requester, v Validator) (*Catalog, error) {
	c := &Catalog{
		spaces:     make(map[string]model.Space, len(spaces)),
		requesters: make(map[string]model.Requester, len(requesters)),
		retired:    make(map[string]struct{}),
		validator:  v,
	}

	var errs []error
	for i, space := range spaces {
		if _, err := c.AddSpace(space); err != nil {
			errs = append(errs, fmt.Errorf("space[%d]: %w", i, err))
		}
	}
	for i, requester := range requesters {
		if _, err := c.AddRequester(requester); err != nil {
			errs = append(errs, fmt.Errorf("requester[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return c, nil
}

func spaceKey(name string) string   { return "space:" + name }
func requesterKey(id string) string { return "requester:" + id }

// AddSpace normalizes, validates and indexes a new space.
func (c *Catalog) AddSpace(space model.Space) (model.Space, error) {
	space.Name = sanitizer.NormalizeName(space.Name)
	space.AcademicUnit = sanitizer.NormalizeName(space.AcademicUnit)
	if err := c.validator.ValidateSpace(&space); err != nil {
		return model.Space{}, fmt.Errorf("space %q: %w", space.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.retired[spaceKey(space.Name)]; ok {
		return model.Space{}, fmt.Errorf("space %q: %w", space.Name, ErrRetired)
	}
	if _, dup := c.spaces[space.Name]; dup {
		return model.Space{}, fmt.Errorf("space %q: %w", space.Name, ErrDuplicate)
	}
	c.spaces[space.Name] = space
	return space, nil
}

// AddRequester normalizes, validates and indexes a new requester.
func (c *Catalog) AddRequester(requester model.Requester) (model.Requester, error) {
	requester.Name = sanitizer.NormalizeName(requester.Name)
	requester.AcademicUnit = sanitizer.NormalizeName(requester.AcademicUnit)
	if requester.AreaResponsible != nil {
		profile := *requester.AreaResponsible
		profile.AuthorizedSpaces = sanitizer.NormalizeSpaceNames(profile.AuthorizedSpaces)
		requester.AreaResponsible = &profile
	}
	if err := c.validator.ValidateRequester(&requester); err != nil {
		return model.Requester{}, fmt.Errorf("requester %q: %w", requester.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.retired[requesterKey(requester.ID)]; ok {
		return model.Requester{}, fmt.Errorf("requester %q: %w", requester.ID, ErrRetired)
	}
	if _, dup := c.requesters[requester.ID]; dup {
		return model.Requester{}, fmt.Errorf("requester %q: %w", requester.ID, ErrDuplicate)
	}
	c.requesters[requester.ID] = requester
	return requester, nil
}

// Load reads two JSON arrays, one of spaces and one of requesters.
func Load(spacesFile, requestersFile string, v Validator) (*Catalog, error) {
	var spaces []model.Space
	if err := readJSON(spacesFile, &spaces); err != nil {
		return nil, err
	}

	var requesters []model.Requester
	if err := readJSON(requestersFile, &requesters); err != nil {
		return nil, err
	}

	return New(spaces, requesters, v)
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode catalog file %s: %w", path, err)
	}
	return nil
}

// Space matches name exactly.
func (c *Catalog) Space(name string) (model.Space, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	space, ok := c.spaces[name]
	return space, ok
}

func (c *Catalog) Requester(id string) (model.Requester, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	requester, ok := c.requesters[id]
	return requester, ok
}

// Spaces returns every space sorted by name.
func (c *Catalog) Spaces() []model.Space {
	c.mu.RLock()
	out := make([]model.Space, 0, len(c.spaces))
	for _, space := range c.spaces {
		out = append(out, space)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Space) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Requesters returns every requester sorted by id.
func (c *Catalog) Requesters() []model.Requester {
	c.mu.RLock()
	out := make([]model.Requester, 0, len(c.requesters))
	for _, requester := range c.requesters {
		out = append(out, requester)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Requester) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (c *Catalog) RemoveSpace(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.spaces[name]; !ok {
		return false
	}
	delete(c.spaces, name)
	c.retired[spaceKey(name)] = struct{}{}
	return true
}

func (c *Catalog) RemoveRequester(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.requesters[id]; !ok {
		return false
	}
	delete(c.requesters, id)
	c.retired[requesterKey(id)] = struct{}{}
	return true
}

func (c *Catalog) Counts() (spaces, requesters int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.spaces), len(c.requesters)
}
