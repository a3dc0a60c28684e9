/*
Package ports defines the driven ports (interfaces) of the presentation core.

These interfaces decouple the state machine and the coordinator from the
rendering engine and the DOM, so the core can run in a browser binding, in a
headless simulator or in tests.

# Key Interfaces

  - SceneBridge: triggers and cancels 3D logo and post-processing animations.
  - DOM / Element: class and inline-style access to the managed elements.
  - Animator: starts a tween on an element and returns a Handle.
  - Handle: an in-flight animation that can be paused in place.
*/
package ports
