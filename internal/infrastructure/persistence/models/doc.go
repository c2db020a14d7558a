// Package models contains GORM-specific persistence models that map to
// database tables. These models are separate from domain entities to keep
// the domain layer free from ORM concerns.
//
// Key principles:
//  1. Domain entities carry no GORM tags or infrastructure concerns
//  2. Persistence models contain all GORM annotations and table mappings
//  3. Mappers convert between domain entities and persistence models
//  4. Repositories use persistence models for database operations
package models
