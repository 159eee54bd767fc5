// File: internal/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"replisync/internal/errs"
	"replisync/internal/replica"
)

const primaryIndexSuffix = "_products"

// Store is one storefront scope and the sorting attributes configured for it
type Store struct {
	ID      int                        `json:"id" yaml:"id" toml:"id" validate:"gt=0"`
	Code    string                     `json:"code" yaml:"code" toml:"code" validate:"required,lowercase"`
	Name    string                     `json:"name" yaml:"name" toml:"name" validate:"required"`
	Sorting []replica.SortingAttribute `json:"sorting" yaml:"sorting" toml:"sorting" validate:"dive"`
}

// Document is the on-disk shape of a catalog
type Document struct {
	IndexPrefix string  `json:"index_prefix" yaml:"index_prefix" toml:"index_prefix"`
	Stores      []Store `json:"stores" yaml:"stores" toml:"stores" validate:"dive"`
}

// Opener is satisfied by the catalog source factory
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Catalog is the store registry and index-settings helper used by the sync commands
type Catalog struct {
	indexPrefix string
	stores      []Store
	byID        map[int]int
}

var validate = validator.New()

// Load opens location through opener and decodes it according to its file extension
func Load(ctx context.Context, opener Opener, location string) (*Catalog, error) {
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return Decode(rc, formatOf(location))
}

func formatOf(location string) string {
	switch strings.ToLower(path.Ext(location)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// Decode reads a catalog document in the given format (yaml, json or toml) and validates it
func Decode(r io.Reader, format string) (*Catalog, error) {
	var doc Document
	var err error

	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case "toml":
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&doc)
		if err == io.EOF {
			err = nil
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", format)
	}
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("error parsing catalog: %w", err), errs.KindInvalidConfig)
	}

	return New(doc)
}

// New validates doc and builds a Catalog from it
func New(doc Document) (*Catalog, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, errs.Wrap(fmt.Errorf("invalid catalog: %w", err), errs.KindInvalidConfig)
	}

	c := &Catalog{
		indexPrefix: doc.IndexPrefix,
		stores:      doc.Stores,
		byID:        make(map[int]int, len(doc.Stores)),
	}

	for i, s := range doc.Stores {
		if _, dup := c.byID[s.ID]; dup {
			return nil, errs.New(errs.KindInvalidConfig, "invalid catalog: store ID %d is defined more than once", s.ID)
		}
		c.byID[s.ID] = i

		seen := make(map[string]bool, len(s.Sorting))
		for _, attr := range s.Sorting {
			key := attr.Attribute + "/" + attr.Sort
			if seen[key] {
				return nil, errs.New(errs.KindInvalidConfig, "invalid catalog: store %q sorts on %s %s more than once", s.Code, attr.Attribute, attr.Sort)
			}
			seen[key] = true
		}
	}

	return c, nil
}

func (c *Catalog) store(storeID int) (Store, error) {
	i, ok := c.byID[storeID]
	if !ok {
		return Store{}, errs.New(errs.KindUnknownStore, "The store with ID %d that was requested wasn't found. Verify the store and try again.", storeID)
	}
	return c.stores[i], nil
}

// StoreName returns the display name of a store
func (c *Catalog) StoreName(ctx context.Context, storeID int) (string, error) {
	s, err := c.store(storeID)
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

// StoreIDs returns every store ID in document order
func (c *Catalog) StoreIDs(ctx context.Context) ([]int, error) {
	ids := make([]int, 0, len(c.stores))
	for _, s := range c.stores {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// Stores returns a copy of the configured stores in document order
func (c *Catalog) Stores() []Store {
	out := make([]Store, len(c.stores))
	copy(out, c.stores)
	return out
}

// PrimaryIndexName returns the products index of a store, e.g. magento2_default_products
func (c *Catalog) PrimaryIndexName(s Store) string {
	return c.indexPrefix + s.Code + primaryIndexSuffix
}

// IndexSettings returns the replica-relevant settings of a store's primary index
func (c *Catalog) IndexSettings(ctx context.Context, storeID int) (replica.IndexSettings, error) {
	s, err := c.store(storeID)
	if err != nil {
		return replica.IndexSettings{}, err
	}

	sorting := make([]replica.SortingAttribute, len(s.Sorting))
	copy(sorting, s.Sorting)

	return replica.IndexSettings{
		IndexName: c.PrimaryIndexName(s),
		Sorting:   sorting,
	}, nil
}
