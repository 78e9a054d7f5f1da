package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// memLoader is an in-memory Loader so import/cycle tests don't touch disk.
type memLoader map[string]string

func (m memLoader) Load(path string) (string, error) {
	if src, ok := m[path]; ok {
		return src, nil
	}
	return "", assert.AnError
}

func TestValidate_SingleFileHappyPath(t *testing.T) {
	src := `
def double(x: int): int { return x * 2; }
def main() {
  create_canvas(1, 1);
  a: int = double(7);
  put(0, 0, rgba(a, a, a, 255));
  save_canvas();
}
`
	loader := memLoader{"/a.pprs": src}
	v := New(loader)
	prog, bag := v.ValidateEntry("/a.pprs")
	assert.Nil(t, bag)
	assert.NotNil(t, prog)
	assert.Equal(t, []string{"/a.pprs"}, prog.Order)

	unit := prog.Units["/a.pprs"]
	assert.Equal(t, 2, len(unit.Functions))
}

func TestValidate_TopLevelStatementOtherThanDefImportIsIllegal(t *testing.T) {
	loader := memLoader{"/a.pprs": `x: int = 1;`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_DuplicateVariableBindingIsError(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  x: int = 1;
  x: int = 2;
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_AssignmentTypeMismatchIsError(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  x: int = 1;
  x = 2.0;
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_MixedOrderingComparisonIsRejected(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  a: int = 1;
  b: float = 2.0;
  if (a > b) { }
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_MixedArithmeticPromotesToFloat(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  f: float = 1 + 0.5;
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.Nil(t, bag)
}

func TestValidate_ReturnRequiredAsLastStatement(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def one(): int {
  x: int = 1;
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_SubcanvasForbiddenInsideTravel(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  create_canvas(4, 4);
  travel(x, y) {
    subcanvas(0, 0, 1, 1) { }
  }
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_CreateCanvasForbiddenInsideSubcanvas(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  create_canvas(4, 4);
  subcanvas(0, 0, 1, 1) { create_canvas(1, 1); }
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_ImportAndQualifiedCall(t *testing.T) {
	loader := memLoader{
		"/a.pprs": `
import "shapes";
def main() {
  create_canvas(1, 1);
  shapes.paint();
  save_canvas();
}
`,
		"/shapes.pprs": `
pub def paint() {
  fill(#ff0000);
}
`,
	}
	v := New(loader)
	prog, bag := v.ValidateEntry("/a.pprs")
	assert.Nil(t, bag)
	assert.Equal(t, []string{"/shapes.pprs", "/a.pprs"}, prog.Order)
}

func TestValidate_UnqualifiedCallToImportedFunctionIsError(t *testing.T) {
	loader := memLoader{
		"/a.pprs": `
import "shapes";
def main() {
  paint();
}
`,
		"/shapes.pprs": `
pub def paint() { }
`,
	}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_CircularImportReportsBothEndpoints(t *testing.T) {
	loader := memLoader{
		"/a.pprs": `
import "b";
def main() { save_canvas(); }
`,
		"/b.pprs": `
import "a";
pub def noop() { }
`,
	}
	v := New(loader)
	prog, bag := v.ValidateEntry("/a.pprs")
	assert.Nil(t, prog)
	assert.NotNil(t, bag)
	assert.True(t, bag.Len() >= 2)
}

func TestValidate_SelfImportIsError(t *testing.T) {
	loader := memLoader{"/a.pprs": `import "a";`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestValidate_TravelBindsFreshIntVariables(t *testing.T) {
	loader := memLoader{"/a.pprs": `
def main() {
  create_canvas(4, 4);
  travel(px, py) {
    put(px, py, #000000);
  }
}
`}
	v := New(loader)
	_, bag := v.ValidateEntry("/a.pprs")
	assert.Nil(t, bag)
}
