// Package pose defines the detection-side vocabulary of the overlay engine:
// keypoint layouts for the supported detection models, the per-frame pose
// types exchanged with detectors, and frame sources (synthetic generation
// and pose log replay).
//
// Responsibilities:
//   - Fix the keypoint ordering, names, and skeleton edges for each model.
//   - Own the extended model's virtual input frame constants.
//   - Provide the Source interface plus synthetic and replay implementations.
//
// Dependency rule: pose depends only on the standard library. It must not
// import overlay, session, or monitor packages.
package pose
