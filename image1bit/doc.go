// Package image1bit provides a 1-bit monochrome image format for the RA8835A
// graphics layer.
//
// The RA8835A stores graphics pixels eight to a byte, leftmost pixel in the
// most significant bit. Rows start on a byte boundary.
//
// Memory layout example for a 10-pixel row:
//
//	Pixels: 0 1 2 3 4 5 6 7 | 8 9
//	Values: 1 0 1 1 0 0 0 1 | 1 1
//	Bytes:  0xB1            | 0xC0
//
// This package provides:
//
// - Bit: a color that is either On or Off
// - BitModel: a color model converting standard Go colors to Bit
// - HorizontalMSB: an image.Image whose Pix can be uploaded unchanged
//
// Example usage:
//
//	img := image1bit.NewHorizontalMSB(image.Rect(0, 0, 320, 240))
//	img.SetBit(10, 20, image1bit.On)
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.Off), image.Point{}, draw.Src)
package image1bit
