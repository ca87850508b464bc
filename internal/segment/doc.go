// Package segment adapts an external foreground/background
// segmentation service.
//
// Background removal is deliberately outside the transformation
// pipeline: it is a standalone external effect with its own failure
// mode (ErrSegmentationFailed) and no caching in this process. The
// core consumes it through the imaging.SegmentationProvider interface,
// so tests can substitute a stub and the module carries no model
// dependency.
package segment
