package market

// Product is an immutable catalogue entry that offers are keyed by.
// CommodityString is an opaque construction key owned by the embedding
// system; the engine never interprets it.
type Product struct {
	id          string
	displayName string
	commodity   string
}

// NewProduct creates a Product with the given identity.
func NewProduct(id, displayName, commodity string) *Product {
	return &Product{
		id:          id,
		displayName: displayName,
		commodity:   commodity,
	}
}

// ID returns the product identifier.
func (p *Product) ID() string {
	return p.id
}

// DisplayName returns the human-readable product name.
func (p *Product) DisplayName() string {
	return p.displayName
}

// CommodityString returns the opaque external construction key.
func (p *Product) CommodityString() string {
	return p.commodity
}

// Category groups products under a named heading. Product order is the
// order of registration and is preserved by catalogue queries.
type Category struct {
	id       string
	name     string
	products []*Product
}

// NewCategory creates a Category with the given products.
func NewCategory(id, name string, products []*Product) *Category {
	return &Category{
		id:       id,
		name:     name,
		products: products,
	}
}

// ID returns the category identifier.
func (c *Category) ID() string {
	return c.id
}

// Name returns the category display name.
func (c *Category) Name() string {
	return c.name
}

// Products returns the products in registration order.
func (c *Category) Products() []*Product {
	out := make([]*Product, len(c.products))
	copy(out, c.products)
	return out
}

// Catalogue holds every category and an id index over their products.
type Catalogue struct {
	categories []*Category
	products   map[string]*Product
}

// NewCatalogue builds a Catalogue from categories. Later products win on
// duplicate ids; loaders are expected to reject duplicates before this
// point.
func NewCatalogue(categories []*Category) *Catalogue {
	products := make(map[string]*Product)
	for _, cat := range categories {
		for _, p := range cat.products {
			products[p.id] = p
		}
	}

	return &Catalogue{
		categories: categories,
		products:   products,
	}
}

// Categories returns all categories in registration order.
func (c *Catalogue) Categories() []*Category {
	out := make([]*Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Product resolves a product by id.
func (c *Catalogue) Product(id string) (*Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, ErrUnknownProduct
	}
	return p, nil
}

// Products returns every product across all categories.
func (c *Catalogue) Products() []*Product {
	out := make([]*Product, 0, len(c.products))
	for _, cat := range c.categories {
		out = append(out, cat.products...)
	}
	return out
}
