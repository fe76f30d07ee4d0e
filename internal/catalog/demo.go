package catalog

import (
	"fmt"

	"github.com/odyssey-erp/storefront/internal/pricing"
)

// DemoCatalog is the sample data used by STORE_DRIVER=memory and the seed command.
type DemoCatalog struct {
	Products    []Product
	Categories  []Category
	Attachments []Attachment
	Offers      []pricing.Offer
}

// Demo builds the sample catalog with stable IDs.
func Demo() DemoCatalog {
	var d DemoCatalog
	categories := []string{"Laptops", "Desktops", "Phones", "Accessories"}
	for i, name := range categories {
		d.Categories = append(d.Categories, Category{ID: int64(i + 1), Name: name, Slug: Slugify(name)})
	}

	add := func(name string, price int64, featured bool, categoryID int64) int64 {
		id := int64(len(d.Products) + 1)
		d.Products = append(d.Products, Product{
			ID:          id,
			Name:        name,
			Slug:        Slugify(name),
			Description: fmt.Sprintf("%s from the demo catalog.", name),
			Price:       price,
			Featured:    featured,
		})
		d.Attachments = append(d.Attachments, Attachment{ProductID: id, CategoryID: categoryID})
		return id
	}

	for i := 1; i <= 6; i++ {
		add(fmt.Sprintf("Laptop %d", i), 99999+int64(i)*10000, i%2 == 1, 1)
	}
	for i := 1; i <= 4; i++ {
		add(fmt.Sprintf("Desktop %d", i), 79999+int64(i)*15000, i == 1, 2)
	}
	for i := 1; i <= 5; i++ {
		add(fmt.Sprintf("Phone %d", i), 39999+int64(i)*5000, i <= 3, 3)
	}
	productA := add("Product A", 50, true, 4)
	productB := add("Product B", 30, true, 4)
	cable := add("USB-C Cable", 999, false, 4)

	d.Offers = []pricing.Offer{
		{ID: 1, ProductID: productA, MinQuantity: 3, Price: 130, Kind: pricing.OfferKindBundle},
		{ID: 2, ProductID: productB, MinQuantity: 2, Price: 45, Kind: pricing.OfferKindBundle},
		{ID: 3, ProductID: cable, MinQuantity: 5, Price: 799, Kind: pricing.OfferKindUnit},
		{ID: 4, ProductID: cable, MinQuantity: 10, Price: 699, Kind: pricing.OfferKindUnit},
	}
	return d
}

// Snapshot returns the demo catalog as an immutable store.
func (d DemoCatalog) Snapshot() *Snapshot {
	return NewSnapshot(d.Products, d.Categories, d.Attachments, d.Offers)
}
