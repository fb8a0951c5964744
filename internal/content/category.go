package content

import "path"

// Category groups every page carrying a non-empty value for one metadata key.
type Category struct {
	// Name is the display name from configuration.
	Name string
	// Group is the metadata key that was scanned.
	Group string
	// Pages are the site pages with at least one value for Group.
	Pages []*Page
	// Items holds one entry per distinct value, in first-seen order.
	Items []*CategoryItem

	byValue map[string]*CategoryItem
}

// DeriveCategory scans pages for values of group and builds a Category with
// one item per distinct value. Items appear in the order their value is first
// seen while iterating pages.
func DeriveCategory(group, name string, pages []*Page) *Category {
	c := &Category{Name: name, Group: group, byValue: make(map[string]*CategoryItem)}
	for _, p := range pages {
		values := p.Metadata.Strings(group)
		if len(values) == 0 {
			continue
		}
		c.Pages = append(c.Pages, p)
		for _, v := range values {
			if _, seen := c.byValue[v]; seen {
				continue
			}
			item := &CategoryItem{Value: v, category: c}
			c.byValue[v] = item
			c.Items = append(c.Items, item)
		}
	}
	return c
}

// Kind returns KindCategory.
func (c *Category) Kind() string { return KindCategory }

// URL returns "{group}/{name}".
func (c *Category) URL() string { return path.Join(c.Group, c.Name) }

// Templates returns the template names to try for the category listing.
func (c *Category) Templates() []string { return []string{c.Group, "category"} }

// Item returns the item for value, or nil.
func (c *Category) Item(value string) *CategoryItem {
	if c.byValue == nil {
		return nil
	}
	return c.byValue[value]
}

// Values returns the distinct item values in item order.
func (c *Category) Values() []string {
	values := make([]string, len(c.Items))
	for i, item := range c.Items {
		values[i] = item.Value
	}
	return values
}

// CategoryItem is one distinct value of a category group.
type CategoryItem struct {
	Value string

	category *Category
}

// Kind returns KindItem.
func (i *CategoryItem) Kind() string { return KindItem }

// Category returns the owning category.
func (i *CategoryItem) Category() *Category { return i.category }

// URL returns "{group}/{value}".
func (i *CategoryItem) URL() string { return path.Join(i.category.Group, i.Value) }

// Templates returns the template names to try for the item listing.
func (i *CategoryItem) Templates() []string {
	return []string{i.Value, "item", i.category.Name}
}

// Pages returns the category pages whose group list contains the value. The
// filter runs on every call.
func (i *CategoryItem) Pages() []*Page {
	var pages []*Page
	for _, p := range i.category.Pages {
		if p.Metadata.Contains(i.category.Group, i.Value) {
			pages = append(pages, p)
		}
	}
	return pages
}

// Sorted returns Pages ordered by (date, title).
func (i *CategoryItem) Sorted() []*Page { return SortPages(i.Pages()) }
