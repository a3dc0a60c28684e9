/*
Package domain contains the core types of the intro/menu presentation layer.

It defines the phase enumeration, the transition record, lifecycle hooks and the
error taxonomy shared by the state machine, the coordinator and the projector.
This package is kept pure and free of I/O, following the same hexagonal split
as the ports and adapters packages.

# Key Entities

  - Phase: the single authoritative stage of the intro lifecycle.
  - TransitionRecord: the latest committed phase change.
  - LifecycleHooks: synchronous observability callbacks.
  - ElementID: stable identifiers of the DOM nodes the core manages.
*/
package domain
