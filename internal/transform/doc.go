// Package transform implements the two-stage geometric remap applied to every
// captured frame before display.
//
// Stage 1 (ApplyZoomPan) applies a user-controlled digital zoom: the frame is
// cropped toward its center by 1/zoom, with the crop window shifted by the pan
// offsets. Stage 2 (AspectFill) crops the result to the aspect ratio of the
// target content area and resizes it to exactly those dimensions, so the
// output fills the area with no distortion and no letterbox bars.
//
// Both stages are pure functions of (frame, parameters). They allocate fresh
// frames and never mutate their input, which keeps the capture side's
// immutability contract intact.
package transform
