package vm

import (
	"testing"

	"github.com/papyrus-lang/papyrus/ir"
	"github.com/papyrus-lang/papyrus/sema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLoader map[string]string

func (m memLoader) Load(path string) (string, error) {
	if src, ok := m[path]; ok {
		return src, nil
	}
	return "", assert.AnError
}

func run(t *testing.T, entry string, files map[string]string) []*Canvas {
	t.Helper()
	v := sema.New(memLoader(files))
	prog, bag := v.ValidateEntry(entry)
	require.Nil(t, bag)
	require.NotNil(t, prog)
	rt, err := ir.Lower(prog)
	require.NoError(t, err)
	canvases, err := New(rt).Run()
	require.NoError(t, err)
	return canvases
}

func rgb(c *Canvas, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA(x, y)
	return r, g, b
}

// S1 — single red pixel.
func TestRun_SingleRedPixel(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `def main(){ create_canvas(2,2); put(0,0,#ff0000); save_canvas(); }`,
	})
	require.Len(t, canvases, 1)
	c := canvases[0]
	assert.Equal(t, 2, c.Width)
	assert.Equal(t, 2, c.Height)
	r, g, b := rgb(c, 0, 0)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
	r, g, b = rgb(c, 1, 1)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}

// S2 — fill and overwrite.
func TestRun_FillThenOverwrite(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `def main(){ create_canvas(1,1); fill(#00ff00); put(0,0,#0000ff); save_canvas(); }`,
	})
	require.Len(t, canvases, 1)
	r, g, b := rgb(canvases[0], 0, 0)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(255), b)
}

// S3 — sub-canvas composite.
func TestRun_SubcanvasComposite(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `
def main(){
  create_canvas(4,4); fill(#000000);
  subcanvas(1,1,2,2){ fill(#ffffff); }
  save_canvas();
}
`,
	})
	require.Len(t, canvases, 1)
	c := canvases[0]
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, g, b := rgb(c, x, y)
			inSquare := (x == 1 || x == 2) && (y == 1 || y == 2)
			if inSquare {
				assert.Equalf(t, uint8(255), r, "x=%d y=%d", x, y)
				assert.Equalf(t, uint8(255), g, "x=%d y=%d", x, y)
				assert.Equalf(t, uint8(255), b, "x=%d y=%d", x, y)
			} else {
				assert.Equalf(t, uint8(0), r, "x=%d y=%d", x, y)
				assert.Equalf(t, uint8(0), g, "x=%d y=%d", x, y)
				assert.Equalf(t, uint8(0), b, "x=%d y=%d", x, y)
			}
		}
	}
}

// S4 — function with return and arithmetic.
func TestRun_FunctionCallWithArithmetic(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `
def double(x:int):int { return x*2; }
def main(){ create_canvas(1,1); a:int = double(7); put(0,0,rgba(a,a,a,255)); save_canvas(); }
`,
	})
	require.Len(t, canvases, 1)
	r, g, b := rgb(canvases[0], 0, 0)
	assert.Equal(t, uint8(14), r)
	assert.Equal(t, uint8(14), g)
	assert.Equal(t, uint8(14), b)
}

// S5 — implicit int->float promotion produces an empty canvas but a
// correctly promoted bit pattern; exercised indirectly since f is never
// read back into a pixel — this asserts the run completes without fault
// and the canvas is all-zero.
func TestRun_ImplicitIntToFloatPromotionCompiles(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `def main(){ create_canvas(1,1); f:float = 1 + 0.5; save_canvas(); }`,
	})
	require.Len(t, canvases, 1)
	c := canvases[0]
	for _, px := range c.Pix {
		assert.Equal(t, uint32(0), px)
	}
}

func TestRun_QualifiedCallAcrossFiles(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `
import "shapes";
def main(){ create_canvas(1,1); shapes.paint(); save_canvas(); }
`,
		"/shapes.pprs": `
pub def paint() { fill(#ffffff); }
`,
	})
	require.Len(t, canvases, 1)
	r, g, b := rgb(canvases[0], 0, 0)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(255), g)
	assert.Equal(t, uint8(255), b)
}

func TestRun_WhileLoopAccumulates(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `
def main(){
  create_canvas(1,1);
  i: int = 0;
  n: int = 0;
  while (i < 5) {
    n = n + i;
    i = i + 1;
  }
  put(0,0,rgba(n,0,0,255));
  save_canvas();
}
`,
	})
	require.Len(t, canvases, 1)
	r, _, _ := rgb(canvases[0], 0, 0)
	assert.Equal(t, uint8(10), r) // 0+1+2+3+4
}

func TestRun_TravelVisitsEveryPixel(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `
def main(){
  create_canvas(3,2);
  travel(x, y) {
    put(x, y, #ffffff);
  }
  save_canvas();
}
`,
	})
	require.Len(t, canvases, 1)
	c := canvases[0]
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			r, g, b := rgb(c, x, y)
			assert.Equalf(t, uint8(255), r, "x=%d y=%d", x, y)
			assert.Equalf(t, uint8(255), g, "x=%d y=%d", x, y)
			assert.Equalf(t, uint8(255), b, "x=%d y=%d", x, y)
		}
	}
}

func TestRun_DivisionByZeroIsFatal(t *testing.T) {
	v := sema.New(memLoader{
		"/a.pprs": `def main(){ create_canvas(1,1); a: int = 1; b: int = 0; c: int = a / b; save_canvas(); }`,
	})
	prog, bag := v.ValidateEntry("/a.pprs")
	require.Nil(t, bag)
	rt, err := ir.Lower(prog)
	require.NoError(t, err)
	_, runErr := New(rt).Run()
	require.Error(t, runErr)
}

func TestRun_OutOfBoundsPutIsSilentNoOp(t *testing.T) {
	canvases := run(t, "/a.pprs", map[string]string{
		"/a.pprs": `def main(){ create_canvas(1,1); put(5,5,#ff0000); save_canvas(); }`,
	})
	require.Len(t, canvases, 1)
	r, g, b := rgb(canvases[0], 0, 0)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}
