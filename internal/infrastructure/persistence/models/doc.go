// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of
// ORM concerns.
//
// Structure:
//   - base.go: BaseModel, AggregateModel and the AutoMigrate list
//   - contribution.go: groups, members, payment methods, claims, approvals,
//     ledger entries and the derived balance rows
//   - mobilemoney.go: STK push transactions
package models
