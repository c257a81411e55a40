package viz

import (
	"math"
	"strings"
)

// Braille cell dot layout, offset 0x2800:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  max(w, 1),
		Height: max(h, 1),
	}
	c.Grid = make([][]rune, c.Height)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, c.Width)
	}
	c.Clear()
	return c
}

// PixelWidth and PixelHeight are the canvas size in dots.
func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

// Set lights the dot at (x, y); y grows downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Plot draws u as a polyline spanning the full width, mapping [lo, hi] to
// the bottom and top dot rows. Values outside the range are clamped.
func (c *Canvas) Plot(u []float64, lo, hi float64) {
	if len(u) == 0 {
		return
	}
	if !(hi > lo) {
		lo, hi = lo-1, lo+1
	}
	pw, ph := c.PixelWidth(), c.PixelHeight()
	row := func(v float64) int {
		if math.IsNaN(v) {
			v = lo
		}
		f := (math.Min(math.Max(v, lo), hi) - lo) / (hi - lo)
		return int(math.Round(float64(ph-1) * (1 - f)))
	}

	px, py := -1, -1
	for x := 0; x < pw; x++ {
		i := 0
		if pw > 1 {
			i = int(math.Round(float64(x) * float64(len(u)-1) / float64(pw-1)))
		}
		y := row(u[i])
		if px < 0 {
			c.Set(x, y)
		} else {
			c.DrawLine(px, py, x, y)
		}
		px, py = x, y
	}
}

// Axis draws a dotted horizontal line at value v.
func (c *Canvas) Axis(v, lo, hi float64) {
	if !(hi > lo) || v < lo || v > hi {
		return
	}
	y := int(math.Round(float64(c.PixelHeight()-1) * (1 - (v-lo)/(hi-lo))))
	for x := 0; x < c.PixelWidth(); x += 4 {
		c.Set(x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderLayer draws a layer on a w x h cell canvas with a zero axis. The
// vertical range is symmetric around zero and covers amp, or the layer's own
// peak when amp is not positive.
func RenderLayer(u []float64, w, h int, amp float64) string {
	if amp <= 0 {
		for _, v := range u {
			amp = math.Max(amp, math.Abs(v))
		}
		if amp == 0 {
			amp = 1
		}
	}
	c := NewCanvas(w, h)
	c.Axis(0, -amp, amp)
	c.Plot(u, -amp, amp)
	return c.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
