package ui

// Resize keeps the camera projection and the output surface in sync with the viewport. Calling it again with
// the same size changes nothing; non-positive sizes (minimized windows) are ignored.
func (s *Session) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s.camera.SetAspect(float64(w) / float64(h))
	s.surface.Resize(w, h)
}
