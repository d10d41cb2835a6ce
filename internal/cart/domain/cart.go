package domain

import "sort"

// Cart maps product id -> size -> quantity.
type Cart map[string]map[string]int

type Line struct {
	ProductID string
	Size      string
	Quantity  int
}

func New() Cart {
	return Cart{}
}

// Add increments (productID, size) by one, creating the inner map as needed.
func (c Cart) Add(productID, size string) int {
	sizes, ok := c[productID]
	if !ok {
		sizes = map[string]int{}
		c[productID] = sizes
	}
	sizes[size]++
	return sizes[size]
}

// Set overwrites the quantity. Zero and negative values are stored as given.
func (c Cart) Set(productID, size string, qty int) {
	sizes, ok := c[productID]
	if !ok {
		sizes = map[string]int{}
		c[productID] = sizes
	}
	sizes[size] = qty
}

func (c Cart) Quantity(productID, size string) int {
	return c[productID][size]
}

// Count sums positive quantities only.
func (c Cart) Count() int {
	total := 0
	for _, sizes := range c {
		for _, qty := range sizes {
			if qty > 0 {
				total += qty
			}
		}
	}
	return total
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, sizes := range c {
		inner := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			inner[size] = qty
		}
		out[id] = inner
	}
	return out
}

// Lines flattens the cart ordered by product id then size. Entries with a
// non-positive quantity are kept; callers filter as they need.
func (c Cart) Lines() []Line {
	lines := make([]Line, 0, len(c))
	for id, sizes := range c {
		for size, qty := range sizes {
			lines = append(lines, Line{ProductID: id, Size: size, Quantity: qty})
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].Size < lines[j].Size
	})
	return lines
}
