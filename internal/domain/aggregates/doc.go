// Package aggregates defines the write boundaries of the knowledge domain.
//
// Interfaces and error codes here say nothing about storage; implementations live
// in internal/data/aggregates.
package aggregates
