// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package models

// StoreLocation is a thrift store with valid coordinates. Records whose
// coordinates fail to parse never become a StoreLocation.
type StoreLocation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Email     string  `json:"email,omitempty"`
	Reviews   string  `json:"reviews,omitempty"`
	ImageURL  string  `json:"img_link,omitempty"`
	Rating    float64 `json:"rating"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// StoreWithDistance is a store annotated with its distance from the
// reference point, in miles.
type StoreWithDistance struct {
	StoreLocation
	DistanceMiles float64 `json:"distance_miles"`
}
