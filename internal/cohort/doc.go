// Package cohort classifies the variants of clinical samples against the
// historical cohort held in the variant and coverage stores.
//
// A run is a two-stage task graph. Coverage statistics for the union of all
// target regions are aggregated once over the whole cohort; that snapshot is
// immutable and shared read-only by every sample. Samples are then classified
// concurrently: each library's variants are placed on or off target, matched
// against every prior observation of the same variant identity, summarised,
// and bucketed into one of eight review tiers.
//
// Storage and panel definitions are reached through the VariantStore,
// CoverageStore and PanelResolver interfaces; see internal/db and
// internal/panel for the concrete backends.
package cohort
