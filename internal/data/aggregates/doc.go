// Package aggregates implements the domain aggregate contracts on top of gorm.
//
// Each write composes table repos from internal/data/repos inside one transaction owned
// by the aggregate.
package aggregates
