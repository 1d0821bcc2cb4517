package model

import "time"

// Business is a cached local business row in the `businesses` table. Rows
// originate from an external places sync (out of scope here) and are read
// through the marketplace endpoints.
type Business struct {
	ID         uint64    // businesses.id
	PlaceID    string    // businesses.place_id (unique external id)
	Name       string    // businesses.name
	Address    *string   // businesses.address (nullable)
	Latitude   *float64  // businesses.latitude (nullable)
	Longitude  *float64  // businesses.longitude (nullable)
	Rating     *float64  // businesses.rating (nullable)
	Category   *string   // businesses.category (nullable)
	PhotoURL   *string   // businesses.photo_url (nullable)
	CachedAt   time.Time // businesses.cached_at
	OfferCount int       // aggregated count of offers
}

// Offer is a time-bound promotion attached to a business, stored in the
// `offers` table. An offer is active while valid_until has not passed.
type Offer struct {
	ID          uint64    // offers.id
	BusinessID  uint64    // offers.business_id
	Title       string    // offers.title
	Description *string   // offers.description (nullable)
	ImageURL    *string   // offers.image_url (nullable)
	ValidFrom   time.Time // offers.valid_from
	ValidUntil  time.Time // offers.valid_until
	Conditions  *string   // offers.conditions (nullable)
	CreatedAt   time.Time // offers.created_at
}
