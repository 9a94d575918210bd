// Package transform defines the pipeline step abstraction. A Strategy turns
// one materialized metric collection into another; the three built-in
// strategies wrap a filter, an aggregation, or a time grouping paired with an
// aggregation. Strategies are stateless and never modify their input.
package transform
