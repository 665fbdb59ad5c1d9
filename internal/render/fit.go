package render

// FitResolution computes the largest glyph grid that shows a srcW x srcH
// video inside termW x termH cells without distortion.
//
// Terminal cells are roughly twice as tall as they are wide, so the width is
// doubled relative to the source aspect.
func FitResolution(termW, termH, srcW, srcH int) Resolution {
	if srcW <= 0 || srcH <= 0 || termW <= 0 || termH <= 0 {
		return Resolution{}
	}

	outW, outH := termW, termH
	aspectSrc := float64(srcW) / float64(srcH)
	aspectTerm := float64(outW) / (float64(outH) * 2.0)

	if aspectSrc > aspectTerm {
		// Source is wider: fit to width, reduce height.
		h := int(float64(outW) / aspectSrc / 2.0)
		if h < outH {
			outH = h
		}
	} else {
		// Source is taller: fit to height, reduce width.
		w := int(float64(outH) * aspectSrc * 2.0)
		if w < outW {
			outW = w
		}
	}

	if outW < 4 {
		outW = 4
	}
	if outH < 2 {
		outH = 2
	}
	return Resolution{Width: outW, Height: outH}
}
