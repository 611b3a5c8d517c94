// Package overlay is a transparent, always-on-top drawing overlay for
// [Ebitengine].
//
// An overlay covers the monitor's work area with a dashed guide-line field
// and any number of movable labels, still images and animated GIFs. Outside
// layout mode the window is click-through; in layout mode objects can be
// dragged, scaled, rotated, faded, flipped, recolored and deleted.
//
// # Quick start
//
// [Run] creates the window and game loop:
//
//	st, err := overlay.LoadSettings(path)
//	if err != nil {
//		log.Fatal(err)
//	}
//	overlay.Run(overlay.RunOptions{Title: "Dragon", Settings: st, SettingsPath: path})
//
// For full control, drive a [Scene] yourself: feed it [Event] values through
// [Scene.Dispatch] or an [EventQueue], call [Scene.Tick] to learn how long to
// wait before the next tick, and [Scene.Draw] when [Scene.NeedsRedraw]
// reports true. [Loop] does exactly that for any [InputSource].
//
// # Objects
//
// Every scene holds exactly one [LineField] plus [Label], [StaticImage] and
// [AnimatedImage] objects. Objects are addressed by [Handle], their index in
// [Scene.Objects]. Deleted objects stay in place until [Scene.Compact], so
// handles remain stable during a drag.
//
// Events are routed to the object holding the pointer capture first, then to
// the objects under the pointer, first in list order, then to the line field,
// and finally to the global key and wheel bindings.
//
// # Rendering
//
// [Scene.EmitCommands] turns the scene into [RenderCommand] values: sprites
// for bitmaps and triangle meshes for guide lines. CPU bitmaps are uploaded
// to GPU textures only when their version changes.
//
// # Persistence
//
// [Settings] is stored as TOML. Each object is written as a [Descriptor];
// older files are migrated on load.
//
// [Ebitengine]: https://ebitengine.org
package overlay
