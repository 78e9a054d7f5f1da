package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/papyrus-lang/papyrus/ir"
)

// evalArith computes a typed arithmetic opcode's result. Division and
// modulo by zero return an error; the caller turns it into a fatal Fault
// tagged with the offending instruction's location (spec §7).
func evalArith(op ir.ArithOp, a, b uint32) (uint32, error) {
	switch op {
	case ir.ArithAdd:
		return fromInt(asInt(a) + asInt(b)), nil
	case ir.ArithSub:
		return fromInt(asInt(a) - asInt(b)), nil
	case ir.ArithMul:
		return fromInt(asInt(a) * asInt(b)), nil
	case ir.ArithDiv:
		if asInt(b) == 0 {
			return 0, errors.New("division by zero")
		}
		return fromInt(asInt(a) / asInt(b)), nil
	case ir.ArithMod:
		if asInt(b) == 0 {
			return 0, errors.New("modulo by zero")
		}
		return fromInt(asInt(a) % asInt(b)), nil
	case ir.ArithPow:
		return fromInt(int32(math.Pow(float64(asInt(a)), float64(asInt(b))))), nil
	case ir.ArithAddF:
		return fromFloat(asFloat(a) + asFloat(b)), nil
	case ir.ArithSubF:
		return fromFloat(asFloat(a) - asFloat(b)), nil
	case ir.ArithMulF:
		return fromFloat(asFloat(a) * asFloat(b)), nil
	case ir.ArithDivF:
		if asFloat(b) == 0 {
			return 0, errors.New("division by zero")
		}
		return fromFloat(asFloat(a) / asFloat(b)), nil
	case ir.ArithPowF:
		return fromFloat(float32(math.Pow(float64(asFloat(a)), float64(asFloat(b))))), nil
	}
	return 0, fmt.Errorf("unhandled arithmetic opcode %s", op)
}

// evalCompare computes a typed comparison, producing 0/1 (spec §4.5).
// Eq/NE compare the raw packed word, which is exact for Int/Bool/Color and
// bit-exact for Float.
func evalCompare(op ir.CompareOp, a, b uint32) uint32 {
	switch op {
	case ir.CmpGT:
		return fromBool(asInt(a) > asInt(b))
	case ir.CmpLT:
		return fromBool(asInt(a) < asInt(b))
	case ir.CmpGE:
		return fromBool(asInt(a) >= asInt(b))
	case ir.CmpLE:
		return fromBool(asInt(a) <= asInt(b))
	case ir.CmpGTF:
		return fromBool(asFloat(a) > asFloat(b))
	case ir.CmpLTF:
		return fromBool(asFloat(a) < asFloat(b))
	case ir.CmpGEF:
		return fromBool(asFloat(a) >= asFloat(b))
	case ir.CmpLEF:
		return fromBool(asFloat(a) <= asFloat(b))
	case ir.CmpEq:
		return fromBool(a == b)
	case ir.CmpNE:
		return fromBool(a != b)
	}
	return 0
}

func evalLogic(op ir.LogicOp, a, b uint32) uint32 {
	if op == ir.LogicOr {
		return fromBool(asBool(a) || asBool(b))
	}
	return fromBool(asBool(a) && asBool(b))
}

func evalChannel(op ir.ChannelOp, c uint32) uint32 {
	switch op {
	case ir.ChannelRed:
		return fromInt(int32((c >> 24) & 0xFF))
	case ir.ChannelGreen:
		return fromInt(int32((c >> 16) & 0xFF))
	case ir.ChannelBlue:
		return fromInt(int32((c >> 8) & 0xFF))
	case ir.ChannelAlpha:
		return fromInt(int32(c & 0xFF))
	}
	return 0
}

// evalRGBA clamps each component to [0, 255] and packs R<<24|G<<16|B<<8|A
// (spec §4.5).
func evalRGBA(r, g, b, a uint32) uint32 {
	return (clampByte(r) << 24) | (clampByte(g) << 16) | (clampByte(b) << 8) | clampByte(a)
}
