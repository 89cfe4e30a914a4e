// Package overlay computes and draws per-frame video annotations from pose
// detections. It owns the math that turns raw keypoints into stable visuals.
//
// Responsibilities:
//   - Map detection-space coordinates onto the drawing surface, including
//     per-model virtual input frames and letterboxed video placement.
//   - Smooth short joint histories into dense paths with velocity-adaptive
//     Catmull-Rom sampling.
//   - Fuse weak directional cues into one temporally stable body facing
//     angle per session.
//   - Measure joint angles and place their labels without overlap or
//     frame-to-frame flicker.
//   - Dispatch all overlay layers in a fixed draw order onto a Surface.
//
// Everything here is synchronous and per-frame. The only mutable state is
// the OrientationTracker (session-scoped, reset on video change) and the
// LabelStateMap, which the caller threads through each render call.
//
// Dependency rule: overlay depends on internal/pose, internal/units, and
// numeric libraries. It never performs I/O and never touches the database,
// video decoding, or HTTP layers.
package overlay
