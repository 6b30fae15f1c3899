// Package catalog loads target definitions from storage and turns them into
// descriptors.
//
// A Store loads and saves one rts.Definition per name. The Resolver follows
// each definition's Base chain back to its root, builds the lineage and hands
// it to rts.BuildLineage, so a definition stored as
//
//	name = "nucleo-g474"
//	base = "cortex-m4f"
//
// inherits everything cortex-m4f (and whatever it is based on) declares.
//
// Data flow:
//
//	Store -> Resolver.Chain -> rts.NewLineage -> rts.BuildLineage -> *rts.TargetDescriptor
//
// All I/O happens in Resolver.Registry, during the registration phase. The
// registry it returns only hands out descriptors that were already built.
package catalog
