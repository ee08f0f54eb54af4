// Package vdom provides the virtual node model and the keyed diff engine
// for weft.
//
// A view describes the UI it wants as an immutable tree of *Node values.
// Nothing in this package touches a live tree: Diff compares two trees and
// returns a Patch describing how to bring the live tree from the old shape
// to the new one, together with the updated event registry.
//
// # Core Types
//
// Node is a tagged union discriminated by Kind (Fragment, Element, Text,
// RawHTML). Attribute is a tagged union discriminated by AttrKind (plain
// attribute, DOM property, event binding). Attributes are kept sorted by
// name with class and style merged, which the diff's two-pointer merge
// depends on.
//
// # Element API
//
// Elements are created with Element, ElementNS or the variadic El helpers:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    Button(OnClick(Increment{}), Text("+")),
//	)
//
// # Diffing
//
// Diff walks both trees with an explicit work stack. Children with keys are
// matched by key, which lets reordered lists produce Move changes instead of
// remove/insert pairs. Children without keys are matched by position.
//
// # Events
//
// Event handlers are not part of the patch. They live in an Events registry
// addressed by the structural Path of the element plus the event name. The
// registry is updated in place by Diff and consulted by the runtime when the
// live tree reports an event.
package vdom
