package hoinet

import (
	"image"

	"github.com/nfnt/resize"
)

// imageToCHW resizes an image to width x height and lays it out as a CHW
// float32 tensor with pixel values normalized to [0, 1].
func imageToCHW(img image.Image, width, height int) []float32 {
	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	data := make([]float32, 3*height*width)
	plane := height * width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			idx := y*width + x
			data[idx] = float32(r>>8) / 255.0
			data[plane+idx] = float32(g>>8) / 255.0
			data[2*plane+idx] = float32(b>>8) / 255.0
		}
	}
	return data
}

// scaleBoxes maps box coordinates from the original image frame into the
// resized model input frame.
func scaleBoxes(boxes []float32, origW, origH, inW, inH int) []float32 {
	sx := float32(inW) / float32(origW)
	sy := float32(inH) / float32(origH)
	out := make([]float32, len(boxes))
	for i := 0; i < len(boxes); i += 4 {
		out[i] = boxes[i] * sx
		out[i+1] = boxes[i+1] * sy
		out[i+2] = boxes[i+2] * sx
		out[i+3] = boxes[i+3] * sy
	}
	return out
}
