package ra8835

// DrawLine turns on every pixel of the line from (x0, y0) to (x1, y1),
// both endpoints included, using Bresenham's algorithm.
func (d *Dev) DrawLine(x0, y0, x1, y1 int) error {
	if d.halted {
		return ErrHalted
	}
	return plotLine(x0, y0, x1, y1, func(x, y int) error {
		return d.setPixel(x, y, true)
	})
}

// DrawRectangle turns on the outline of the rectangle with corners
// (x0, y0) and (x1, y1). Each outline pixel is written once.
func (d *Dev) DrawRectangle(x0, y0, x1, y1 int) error {
	if d.halted {
		return ErrHalted
	}
	return plotRectangle(x0, y0, x1, y1, func(x, y int) error {
		return d.setPixel(x, y, true)
	})
}

// plotLine calls plot for each point of the line, stopping at the first
// error.
func plotLine(x0, y0, x1, y1 int, plot func(x, y int) error) error {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	x, y := x0, y0
	for {
		if e := plot(x, y); e != nil {
			return e
		}
		if x == x1 && y == y1 {
			return nil
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// plotRectangle plots the horizontal edges over the full width, then the
// vertical edges between them so corners aren't plotted twice.
func plotRectangle(x0, y0, x1, y1 int, plot func(x, y int) error) error {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for x := x0; x <= x1; x++ {
		if err := plot(x, y0); err != nil {
			return err
		}
		if y1 != y0 {
			if err := plot(x, y1); err != nil {
				return err
			}
		}
	}
	for y := y0 + 1; y < y1; y++ {
		if err := plot(x0, y); err != nil {
			return err
		}
		if x1 != x0 {
			if err := plot(x1, y); err != nil {
				return err
			}
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
