// Package labeling contains the domain model for retail price labels.
//
// A label print run flows through four steps:
//   - ProductRecord + LabelOptions are turned into a FormattedLabel by the Formatter
//   - ExpandProducts repeats products by their requested QuantityMap counts
//   - rendered labels are arranged into rows and pages by Compose
//   - the resulting ComposedSheet is wrapped into a printable document by infrastructure
//
// LabelFormat describes the physical label stock. The five catalogue formats are
// fixed; CUSTOM can be resized with NewCustomFormat. LabelJob records PDF print
// runs so they can be inspected after the fact.
package labeling
