package vm

import (
	"fmt"
	"strings"

	"github.com/papyrus-lang/papyrus/ir"
)

// Fault is a fatal runtime error (spec §7): division by zero, a missing
// label/register, or canvas-stack underflow. It names the script and
// instruction index where execution stopped.
type Fault struct {
	Script string
	PC     int
	Msg    string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s:%d: %s", f.Script, f.PC, f.Msg)
}

// frame is one call's register file (spec §3 StackFrame). RegReturn (_rt)
// starts pre-initialized so a Void function's never-written return value
// reads as 0 rather than faulting.
type frame struct {
	regs map[ir.RegID]uint32
}

func newFrame(args []uint32) *frame {
	f := &frame{regs: map[ir.RegID]uint32{ir.RegReturn: 0}}
	for i, a := range args {
		f.regs[ir.RegID(i+1)] = a
	}
	return f
}

// Machine is a single-threaded, synchronous interpreter over one
// ir.Runtime (spec §4.5/§5: no preemption, no time limit, deterministic
// fetch-execute).
type Machine struct {
	rt       *ir.Runtime
	frames   []*frame
	canvases []*Canvas
	saved    []*Canvas
	aliases  map[string]string // import alias -> script path, populated by Import
}

// New builds a Machine ready to run rt.
func New(rt *ir.Runtime) *Machine {
	return &Machine{rt: rt, aliases: map[string]string{}}
}

// Run executes the entry script's "main" label to completion and returns
// every canvas captured by Save, in source-emission order (spec §6: output
// files are named canvas0, canvas1, ... in Save order).
func (m *Machine) Run() ([]*Canvas, error) {
	script, ok := m.rt.Find(m.rt.EntryPath)
	if !ok {
		return nil, fmt.Errorf("vm: entry script %q not present in runtime", m.rt.EntryPath)
	}
	if _, err := m.call(script, "main", nil); err != nil {
		return nil, err
	}
	return m.saved, nil
}

// call runs one function to its Ret and returns its _rt (spec §4.5 Call
// dispatch): pushes a fresh frame with args bound to registers 1..N,
// executes, pops, and reports the callee's final _rt for the caller to
// adopt.
func (m *Machine) call(script *ir.Script, label string, args []uint32) (uint32, error) {
	start, ok := findLabel(script, label)
	if !ok {
		return 0, &Fault{Script: script.Path, PC: -1, Msg: fmt.Sprintf("label %q not found", label)}
	}
	f := newFrame(args)
	m.frames = append(m.frames, f)
	err := m.execute(script, start)
	m.frames = m.frames[:len(m.frames)-1]
	if err != nil {
		return 0, err
	}
	return f.regs[ir.RegReturn], nil
}

func findLabel(script *ir.Script, name string) (int, bool) {
	for i, in := range script.Program {
		if l, ok := in.(ir.LabelInstr); ok && l.Name == name {
			return i, true
		}
	}
	return 0, false
}

// execute is the fetch-execute loop of spec §4.5: fetch at pc, dispatch,
// increment unless the instruction redirected pc itself, stop on Ret.
// Running off the end of the program without Ret is a fatal error.
func (m *Machine) execute(script *ir.Script, pc int) error {
	f := m.frames[len(m.frames)-1]

	fault := func(format string, args ...interface{}) error {
		return &Fault{Script: script.Path, PC: pc, Msg: fmt.Sprintf(format, args...)}
	}
	read := func(p ir.Param) (uint32, error) {
		switch v := p.(type) {
		case ir.ValueParam:
			return v.Bits, nil
		case ir.RegisterParam:
			val, ok := f.regs[v.Reg]
			if !ok {
				return 0, fault("register %s read before being written", v.Reg)
			}
			return val, nil
		}
		return 0, fault("unrecognised parameter %#v", p)
	}
	top := func() (*Canvas, error) {
		if len(m.canvases) == 0 {
			return nil, fault("canvas stack underflow")
		}
		return m.canvases[len(m.canvases)-1], nil
	}

	for {
		if pc < 0 || pc >= len(script.Program) {
			return fault("ran past the end of the program without Ret")
		}

		switch in := script.Program[pc].(type) {
		case ir.LabelInstr:
			// marks a jump target only

		case ir.ImportInstr:
			m.aliases[in.Alias] = in.Path

		case ir.CopyInstr:
			v, err := read(in.Src)
			if err != nil {
				return err
			}
			f.regs[in.Dst] = v

		case ir.ArithInstr:
			a, err := read(in.A)
			if err != nil {
				return err
			}
			b, err := read(in.B)
			if err != nil {
				return err
			}
			res, err := evalArith(in.Op, a, b)
			if err != nil {
				return fault("%s", err)
			}
			f.regs[in.Dst] = res

		case ir.NegInstr:
			a, err := read(in.A)
			if err != nil {
				return err
			}
			if in.Float {
				f.regs[in.Dst] = fromFloat(-asFloat(a))
			} else {
				f.regs[in.Dst] = fromInt(-asInt(a))
			}

		case ir.CompareInstr:
			a, err := read(in.A)
			if err != nil {
				return err
			}
			b, err := read(in.B)
			if err != nil {
				return err
			}
			f.regs[in.Dst] = evalCompare(in.Op, a, b)

		case ir.LogicInstr:
			a, err := read(in.A)
			if err != nil {
				return err
			}
			b, err := read(in.B)
			if err != nil {
				return err
			}
			f.regs[in.Dst] = evalLogic(in.Op, a, b)

		case ir.NotInstr:
			a, err := read(in.A)
			if err != nil {
				return err
			}
			f.regs[in.Dst] = fromBool(!asBool(a))

		case ir.ConvertInstr:
			a, err := read(in.A)
			if err != nil {
				return err
			}
			if in.Op == ir.ConvertFlt {
				f.regs[in.Dst] = fromFloat(float32(asInt(a)))
			} else {
				f.regs[in.Dst] = fromInt(int32(asFloat(a)))
			}

		case ir.ChannelInstr:
			c, err := read(in.Color)
			if err != nil {
				return err
			}
			f.regs[in.Dst] = evalChannel(in.Op, c)

		case ir.RGBAInstr:
			r, err := read(in.R)
			if err != nil {
				return err
			}
			g, err := read(in.G)
			if err != nil {
				return err
			}
			b, err := read(in.B)
			if err != nil {
				return err
			}
			a, err := read(in.A)
			if err != nil {
				return err
			}
			f.regs[in.Dst] = evalRGBA(r, g, b, a)

		case ir.PushInstr:
			w, err := read(in.Width)
			if err != nil {
				return err
			}
			h, err := read(in.Height)
			if err != nil {
				return err
			}
			m.canvases = append(m.canvases, NewCanvas(clampDim(w), clampDim(h)))

		case ir.MergeInstr:
			if len(m.canvases) < 2 {
				return fault("canvas stack underflow")
			}
			inner := m.canvases[len(m.canvases)-1]
			m.canvases = m.canvases[:len(m.canvases)-1]
			parent := m.canvases[len(m.canvases)-1]
			ox, err := read(in.OffsetX)
			if err != nil {
				return err
			}
			oy, err := read(in.OffsetY)
			if err != nil {
				return err
			}
			baseX, baseY := int(asInt(ox)), int(asInt(oy))
			for y := 0; y < inner.Height; y++ {
				for x := 0; x < inner.Width; x++ {
					px := inner.At(x, y)
					if px&0xFF == 0 { // transparent: skipped, no blending
						continue
					}
					tx, ty := baseX+x, baseY+y
					if parent.InBounds(tx, ty) {
						parent.Set(tx, ty, px)
					}
				}
			}

		case ir.PutInstr:
			c, err := top()
			if err != nil {
				return err
			}
			xv, err := read(in.X)
			if err != nil {
				return err
			}
			yv, err := read(in.Y)
			if err != nil {
				return err
			}
			color, err := read(in.Color)
			if err != nil {
				return err
			}
			x, y := int(asInt(xv)), int(asInt(yv))
			if c.InBounds(x, y) {
				c.Set(x, y, color)
			}

		case ir.FillInstr:
			c, err := top()
			if err != nil {
				return err
			}
			color, err := read(in.Color)
			if err != nil {
				return err
			}
			c.Fill(color)

		case ir.PopInstr:
			if _, err := top(); err != nil {
				return err
			}
			m.canvases = m.canvases[:len(m.canvases)-1]

		case ir.SaveInstr:
			c, err := top()
			if err != nil {
				return err
			}
			m.saved = append(m.saved, c.Clone())

		case ir.SampleInstr:
			c, err := top()
			if err != nil {
				return err
			}
			xv, err := read(in.X)
			if err != nil {
				return err
			}
			yv, err := read(in.Y)
			if err != nil {
				return err
			}
			x, y := int(asInt(xv)), int(asInt(yv))
			if c.InBounds(x, y) {
				f.regs[in.Dst] = c.At(x, y)
			}
			// out of bounds: destination register is left unchanged (§4.5)

		case ir.WidthInstr:
			c, err := top()
			if err != nil {
				return err
			}
			f.regs[in.Dst] = fromInt(int32(c.Width))

		case ir.HeightInstr:
			c, err := top()
			if err != nil {
				return err
			}
			f.regs[in.Dst] = fromInt(int32(c.Height))

		case ir.JFInstr:
			v, err := read(in.Cond)
			if err != nil {
				return err
			}
			if v == 0 {
				target, ok := findLabel(script, in.Target)
				if !ok {
					return fault("label %q not found", in.Target)
				}
				pc = target
				continue
			}

		case ir.JumpInstr:
			target, ok := findLabel(script, in.Target)
			if !ok {
				return fault("label %q not found", in.Target)
			}
			pc = target
			continue

		case ir.CallInstr:
			ret, err := m.dispatchCall(script, f, read, in)
			if err != nil {
				return err
			}
			f.regs[ir.RegReturn] = ret

		case ir.RetInstr:
			return nil

		default:
			return fault("unhandled instruction %T", in)
		}

		pc++
	}
}

// dispatchCall resolves CallInstr.Target ("label" for an intra-file call,
// "alias.label" for a cross-file one via the alias table Import populates)
// and runs it as a nested call (spec §4.5).
func (m *Machine) dispatchCall(script *ir.Script, f *frame, read func(ir.Param) (uint32, error), in ir.CallInstr) (uint32, error) {
	args := make([]uint32, len(in.Args))
	for i, p := range in.Args {
		v, err := read(p)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}

	targetScript, label := script, in.Target
	if alias, rest, ok := strings.Cut(in.Target, "."); ok {
		path, known := m.aliases[alias]
		if !known {
			return 0, &Fault{Script: script.Path, Msg: fmt.Sprintf("unresolved import alias %q", alias)}
		}
		s, ok := m.rt.Find(path)
		if !ok {
			return 0, &Fault{Script: script.Path, Msg: fmt.Sprintf("imported script %q not present in runtime", path)}
		}
		targetScript, label = s, rest
	}

	return m.call(targetScript, label, args)
}
